package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	ierrors "github.com/Aman-CERP/textindexer/internal/errors"
	"github.com/Aman-CERP/textindexer/internal/indexer"
)

// ActivityPrinter writes indexer activity as timestamped plain lines. It is
// safe for concurrent use, so the REPL prompt and background events can
// share one writer.
type ActivityPrinter struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	now    func() time.Time
}

// NewActivityPrinter creates an activity printer.
func NewActivityPrinter(out io.Writer, noColor bool) *ActivityPrinter {
	return &ActivityPrinter{
		out:    out,
		styles: GetStyles(noColor),
		now:    time.Now,
	}
}

// Idle reports that all pending work is done.
func (p *ActivityPrinter) Idle(s indexer.Stats) {
	p.printf("%s No more pending indexations. Indexed %d words. Encountered errors: %s\n",
		p.stamp(), s.IndexedWords, ErrorSummary(s.ErrorsByKind))
}

// IndexError reports one per-file error.
func (p *ActivityPrinter) IndexError(e indexer.IndexError) {
	err := e.Err()
	prefix := p.styles.Error.Render("ERROR")
	if err.Severity == ierrors.SeverityWarning {
		prefix = p.styles.Warning.Render("WARN")
	}
	p.printf("%s %s: %s\n", p.stamp(), prefix, err.Message)
}

// Infof prints an informational line.
func (p *ActivityPrinter) Infof(format string, args ...any) {
	p.printf("%s %s\n", p.stamp(), fmt.Sprintf(format, args...))
}

func (p *ActivityPrinter) stamp() string {
	return p.styles.Dim.Render(p.now().Format(time.UnixDate))
}

func (p *ActivityPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format, args...)
}
