package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/textindexer/internal/config"
	ierrors "github.com/Aman-CERP/textindexer/internal/errors"
	"github.com/Aman-CERP/textindexer/internal/indexer"
	"github.com/Aman-CERP/textindexer/internal/profiling"
	"github.com/Aman-CERP/textindexer/internal/telemetry"
	"github.com/Aman-CERP/textindexer/internal/ui"
)

const replPrompt = "textindexer> "

const replHelp = `Commands:
  index <path>    start indexing a file or directory
  remove <path>   stop indexing a file or directory
  search <word>   list files containing word
  status          show counters and errors by kind
  errors          show error counts by kind
  wait            block until pending indexations finish
  help            show this help
  exit            quit
`

// lineReader is the subset of liner.State the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl [paths...]",
		Short: "Interactive indexing session",
		Long: `Start an interactive session. Paths given on the command line are
indexed right away; more can be added with 'index <path>'. Files keep being
watched for changes until the session ends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd, args)
		},
	}
	return cmd
}

func runRepl(cmd *cobra.Command, paths []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ix, metrics, err := openIndexer(ctx, paths)
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	history := historyPath()
	if f, err := os.Open(history); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		saveHistory(line, history)
		_ = line.Close()
	}()

	s := newReplSession(ix, metrics, cmd.OutOrStdout())
	stop := s.watch()
	defer stop()

	return s.run(ctx, line)
}

// replSession executes REPL commands against one indexer.
type replSession struct {
	ix      *indexer.Indexer
	metrics *telemetry.SearchMetrics
	out     io.Writer
	noColor bool
	printer *ui.ActivityPrinter
}

func newReplSession(ix *indexer.Indexer, metrics *telemetry.SearchMetrics, out io.Writer) *replSession {
	noColor := ui.NoColorFor(out)
	return &replSession{
		ix:      ix,
		metrics: metrics,
		out:     out,
		noColor: noColor,
		printer: ui.NewActivityPrinter(out, noColor),
	}
}

// watch prints index errors and idle notices in the background until the
// returned function is called.
func (s *replSession) watch() (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case e, ok := <-s.ix.Errors():
				if !ok {
					return
				}
				s.printer.IndexError(e)
			case <-s.ix.Idle():
				s.printer.Idle(s.ix.Stats())
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// run reads commands until exit, end of input or Ctrl+C.
func (s *replSession) run(ctx context.Context, in lineReader) error {
	_, _ = fmt.Fprint(s.out, "Type 'help' for commands.\n")
	for {
		input, err := in.Prompt(replPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				_, _ = fmt.Fprintln(s.out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		in.AppendHistory(input)

		quit, err := s.execute(ctx, input)
		if err != nil {
			_, _ = fmt.Fprint(s.out, ierrors.FormatForCLI(err))
		}
		if quit {
			return nil
		}
	}
}

// execute runs one command line.
func (s *replSession) execute(ctx context.Context, input string) (quit bool, err error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "index", "add":
		if arg == "" {
			return false, usageError("index <path>")
		}
		if err := s.ix.Index(ctx, arg); err != nil {
			return false, err
		}
		s.printer.Infof("Indexing %s", arg)
	case "remove", "rm":
		if arg == "" {
			return false, usageError("remove <path>")
		}
		if err := s.ix.Unindex(ctx, arg); err != nil {
			return false, err
		}
		s.printer.Infof("Removing %s", arg)
	case "search", "find":
		if arg == "" {
			return false, ierrors.New(ierrors.ErrCodeQueryEmpty, "search word is empty", nil).
				WithSuggestion("Usage: search <word>")
		}
		res := ui.NewSearchResult(arg, s.ix.Search(arg))
		return false, ui.NewResultRenderer(s.out, s.noColor).Render(res)
	case "status":
		snap := s.metrics.Snapshot(5)
		info := ui.StatusInfo{Stats: s.ix.Stats(), Searches: &snap}
		if err := ui.NewStatusRenderer(s.out, s.noColor).Render(info); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(s.out, "\n  Memory: %s\n", profiling.MemSummary())
	case "errors":
		_, _ = fmt.Fprintf(s.out, "Encountered errors: %s\n", ui.ErrorSummary(s.ix.Stats().ErrorsByKind))
	case "wait":
		if err := s.ix.WaitIdle(ctx); err != nil {
			return false, err
		}
	case "help", "?":
		_, _ = fmt.Fprint(s.out, replHelp)
	case "exit", "quit":
		return true, nil
	default:
		return false, ierrors.ValidationError(fmt.Sprintf("unknown command %q", name), nil).
			WithSuggestion("Type 'help' for the list of commands")
	}
	return false, nil
}

func usageError(usage string) error {
	return ierrors.ValidationError("missing argument", nil).WithSuggestion("Usage: " + usage)
}

func historyPath() string {
	return filepath.Join(config.GetUserConfigDir(), "history")
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		slog.Debug("failed to save history", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = f.Close() }()
	_, _ = line.WriteHistory(f)
}
