package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "NEW", EventNew.String())
	assert.Equal(t, "DELETED", EventDeleted.String())
	assert.Equal(t, "FLUSH", EventFlush.String())
	assert.Equal(t, "UNKNOWN", EventKind(42).String())
}

func TestRequestKind_String(t *testing.T) {
	assert.Equal(t, "NEW_FILE", RequestNewFile.String())
	assert.Equal(t, "NEW_DIR", RequestNewDir.String())
	assert.Equal(t, "DELETE", RequestDelete.String())
	assert.Equal(t, "FLUSH", RequestFlush.String())
	assert.Equal(t, "UNKNOWN", RequestKind(-1).String())
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{PollInterval: 3 * time.Second}.WithDefaults()

	assert.Equal(t, 3*time.Second, opts.PollInterval)
	assert.Equal(t, 64, opts.RequestBufferSize)
	assert.Equal(t, 16, opts.EventBufferSize)
	assert.Equal(t, 100*time.Millisecond, opts.NotifyDelay)
	assert.NotNil(t, opts.Logger)
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, Options{Exclude: []string{"**/*.tmp", ".git/**"}}.Validate())
	assert.Error(t, Options{Exclude: []string{"a[b"}}.Validate())
}
