package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Aman-CERP/textindexer/internal/indexer"
	"github.com/Aman-CERP/textindexer/internal/telemetry"
)

// StatusInfo is what the status command prints.
type StatusInfo struct {
	Stats    indexer.Stats                    `json:"stats"`
	Searches *telemetry.SearchMetricsSnapshot `json:"searches,omitempty"`
}

// StatusRenderer displays indexer status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	s := info.Stats

	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status"))

	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render("Words:         "), humanize.Comma(int64(s.IndexedWords)))
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render("Files indexed: "), humanize.Comma(s.FilesIndexed))
	_, _ = fmt.Fprintf(r.out, "  %s %d (%s)\n", r.styles.Label.Render("In progress:   "), s.FilesInProgress, humanize.IBytes(uint64(s.BytesInFlight)))
	_, _ = fmt.Fprintf(r.out, "  %s %d queued, %d postponed\n", r.styles.Label.Render("Pending:       "), s.PendingTasks, s.DeferredFiles)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render("State:         "), r.renderState(s))
	_, _ = fmt.Fprintln(r.out)

	if len(s.WatchedDirs)+len(s.WatchedFiles) > 0 {
		_, _ = fmt.Fprintln(r.out, "  Watching:")
		for _, d := range s.WatchedDirs {
			_, _ = fmt.Fprintf(r.out, "    %s/\n", d)
		}
		for _, f := range s.WatchedFiles {
			_, _ = fmt.Fprintf(r.out, "    %s\n", f)
		}
		_, _ = fmt.Fprintln(r.out)
	}

	_, _ = fmt.Fprintln(r.out, "  Errors:")
	for _, k := range indexer.ErrorKinds() {
		n := s.ErrorsByKind[k.String()]
		line := fmt.Sprintf("    %-14s %d", k.String()+":", n)
		if n > 0 {
			line = r.styles.Warning.Render(line)
		}
		_, _ = fmt.Fprintln(r.out, line)
	}
	if s.DroppedErrors > 0 {
		_, _ = fmt.Fprintf(r.out, "    %s\n", r.styles.Dim.Render(fmt.Sprintf("(%d not delivered)", s.DroppedErrors)))
	}

	if info.Searches != nil && info.Searches.TotalSearches > 0 {
		r.renderSearches(*info.Searches)
	}
	return nil
}

func (r *StatusRenderer) renderSearches(m telemetry.SearchMetricsSnapshot) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintf(r.out, "  Searches: %d (%.0f%% without results)\n", m.TotalSearches, m.ZeroResultPercentage())
	if len(m.TopWords) > 0 {
		words := make([]string, 0, len(m.TopWords))
		for _, w := range m.TopWords {
			words = append(words, fmt.Sprintf("%s (%d)", w.Word, w.Count))
		}
		_, _ = fmt.Fprintf(r.out, "    Top:    %s\n", strings.Join(words, ", "))
	}
	if len(m.RecentMisses) > 0 {
		_, _ = fmt.Fprintf(r.out, "    Misses: %s\n", strings.Join(m.RecentMisses, ", "))
	}
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func (r *StatusRenderer) renderState(s indexer.Stats) string {
	if s.Busy() {
		return r.styles.Warning.Render("indexing")
	}
	return r.styles.Success.Render("idle")
}

// ErrorSummary formats per-kind error counts on one line, skipping kinds
// that never occurred, e.g. "NON_UTF8_FILE: 3, WORDS_SKIPPED: 1".
// It returns "none" when there were no errors.
func ErrorSummary(byKind map[string]int64) string {
	var parts []string
	for _, k := range indexer.ErrorKinds() {
		if n := byKind[k.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", k, n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
