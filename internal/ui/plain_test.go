package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/textindexer/internal/indexer"
)

func newTestPrinter(buf *bytes.Buffer) *ActivityPrinter {
	p := NewActivityPrinter(buf, true)
	p.now = func() time.Time { return time.Date(2023, 11, 16, 23, 20, 8, 0, time.UTC) }
	return p
}

func TestActivityPrinter_Idle(t *testing.T) {
	// Given: an idle indexer with some errors
	buf := &bytes.Buffer{}
	p := newTestPrinter(buf)

	// When: printing the idle line
	p.Idle(indexer.Stats{
		IndexedWords: 1173391,
		ErrorsByKind: map[string]int64{"NON_UTF8_FILE": 1672, "WORDS_SKIPPED": 1},
	})

	// Then: it matches the expected format
	assert.Equal(t,
		"Thu Nov 16 23:20:08 UTC 2023 No more pending indexations. Indexed 1173391 words. Encountered errors: WORDS_SKIPPED: 1, NON_UTF8_FILE: 1672\n",
		buf.String())
}

func TestActivityPrinter_IndexError(t *testing.T) {
	tests := []struct {
		name   string
		in     indexer.IndexError
		prefix string
	}{
		{"warning", indexer.IndexError{Kind: indexer.WordsSkipped, Detail: "2", File: "/a"}, "WARN"},
		{"error", indexer.IndexError{Kind: indexer.NonUtf8File, File: "/b"}, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			newTestPrinter(buf).IndexError(tt.in)

			assert.Contains(t, buf.String(), " "+tt.prefix+": ")
			assert.Contains(t, buf.String(), tt.in.File)
		})
	}
}

func TestActivityPrinter_Infof(t *testing.T) {
	buf := &bytes.Buffer{}
	newTestPrinter(buf).Infof("watching %d paths", 2)

	assert.True(t, strings.HasSuffix(buf.String(), " watching 2 paths\n"))
}

func TestActivityPrinter_ConcurrentWritesStayWhole(t *testing.T) {
	buf := &bytes.Buffer{}
	p := newTestPrinter(buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Infof("line")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 20)
	for _, l := range lines {
		assert.True(t, strings.HasSuffix(l, " line"))
	}
}
