// Package ui renders indexer state for terminals and pipes.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Format selects the output encoding of a renderer.
type Format string

const (
	// FormatText is human-readable output.
	FormatText Format = "text"
	// FormatJSON is indented JSON.
	FormatJSON Format = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), true
	default:
		return "", false
	}
}

// NoColorFor reports whether output to w should be unstyled: w is not a
// terminal, NO_COLOR is set, or we run under CI.
func NoColorFor(w io.Writer) bool {
	return !IsTTY(w) || DetectNoColor() || DetectCI()
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
