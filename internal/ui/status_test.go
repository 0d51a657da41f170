package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/textindexer/internal/indexer"
	"github.com/Aman-CERP/textindexer/internal/telemetry"
)

func sampleStats() indexer.Stats {
	return indexer.Stats{
		IndexedWords:    1234567,
		FilesInProgress: 1,
		BytesInFlight:   2048,
		FilesIndexed:    42,
		PendingTasks:    3,
		ErrorsByKind: map[string]int64{
			"WORDS_SKIPPED": 1,
			"FILE_TOO_BIG":  0,
			"NON_UTF8_FILE": 5,
			"UNKNOWN_ERROR": 0,
		},
		DroppedErrors: 2,
		WatchedDirs:   []string{"/data/books"},
		WatchedFiles:  []string{"/data/notes.txt"},
	}
}

func TestStatusRenderer_Render(t *testing.T) {
	// Given: status renderer
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	// When: rendering a busy indexer
	require.NoError(t, r.Render(StatusInfo{Stats: sampleStats()}))

	// Then: output contains key information
	out := buf.String()
	assert.Contains(t, out, "1,234,567")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "3 queued")
	assert.Contains(t, out, "indexing")
	assert.Contains(t, out, "/data/books/")
	assert.Contains(t, out, "/data/notes.txt")
	assert.Contains(t, out, "NON_UTF8_FILE:")
	assert.Contains(t, out, "(2 not delivered)")
	assert.NotContains(t, out, "Searches:")
}

func TestStatusRenderer_RenderIdle(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.Render(StatusInfo{Stats: indexer.Stats{}}))

	assert.Contains(t, buf.String(), "idle")
}

func TestStatusRenderer_RenderSearches(t *testing.T) {
	// Given: some recorded searches
	m := telemetry.NewSearchMetrics(telemetry.DefaultConfig())
	m.Record(telemetry.SearchEvent{Word: "hello", ResultCount: 2, Latency: time.Microsecond})
	m.Record(telemetry.SearchEvent{Word: "hello", ResultCount: 2, Latency: time.Microsecond})
	m.Record(telemetry.SearchEvent{Word: "nothing", ResultCount: 0, Latency: time.Microsecond})
	snap := m.Snapshot(5)

	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	// When: rendering with search telemetry
	require.NoError(t, r.Render(StatusInfo{Stats: indexer.Stats{}, Searches: &snap}))

	// Then: the search section is present
	out := buf.String()
	assert.Contains(t, out, "Searches: 3")
	assert.Contains(t, out, "hello (2)")
	assert.Contains(t, out, "Misses: nothing")
}

func TestStatusRenderer_NoColor(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.Render(StatusInfo{Stats: sampleStats()}))

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestStatusRenderer_RenderJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, false)

	require.NoError(t, r.RenderJSON(StatusInfo{Stats: sampleStats()}))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	stats := parsed["stats"].(map[string]any)
	assert.Equal(t, float64(1234567), stats["indexed_words"])
	assert.NotContains(t, parsed, "searches")
}

func TestErrorSummary(t *testing.T) {
	assert.Equal(t, "none", ErrorSummary(nil))
	assert.Equal(t, "WORDS_SKIPPED: 1, NON_UTF8_FILE: 5", ErrorSummary(sampleStats().ErrorsByKind))
}
