package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStyles_HeaderIsBold(t *testing.T) {
	styles := DefaultStyles()

	assert.True(t, styles.Header.GetBold())
}

func TestNoColorStyles_RenderVerbatim(t *testing.T) {
	// Given: unstyled components
	styles := NoColorStyles()

	// Then: rendering returns the input unchanged
	for _, s := range []string{
		styles.Header.Render("x"),
		styles.Success.Render("x"),
		styles.Warning.Render("x"),
		styles.Error.Render("x"),
		styles.Dim.Render("x"),
		styles.Label.Render("x"),
		styles.Match.Render("x"),
	} {
		assert.Equal(t, "x", s)
	}
}

func TestGetStyles(t *testing.T) {
	assert.False(t, GetStyles(true).Header.GetBold())
	assert.True(t, GetStyles(false).Header.GetBold())
}
