package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	ierrors "github.com/Aman-CERP/textindexer/internal/errors"
	"github.com/Aman-CERP/textindexer/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	paths   []string
	format  string
	timeout time.Duration
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <word>",
		Short: "Index paths and print files containing a word",
		Long: `Index the given paths, wait until indexing settles, then print every
file containing the word. Matching is exact and case-sensitive unless the
configured tokenizer says otherwise.

Examples:
  textindexer search Hello --path ./docs
  textindexer search world --path a.txt --path b.txt --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.paths, "path", "p", []string{"."}, "File or directory to index (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Give up if indexing takes longer (0 = no limit)")

	return cmd
}

func runSearch(cmd *cobra.Command, word string, opts searchOptions) error {
	format, ok := ui.ParseFormat(opts.format)
	if !ok {
		return ierrors.ValidationError(fmt.Sprintf("unknown format %q", opts.format), nil).
			WithSuggestion("Use --format text or --format json")
	}
	if word == "" {
		return ierrors.New(ierrors.ErrCodeQueryEmpty, "search word is empty", nil)
	}

	ctx, cancel := withOptionalTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	ix, _, err := openIndexer(ctx, opts.paths)
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()

	if err := ix.WaitIdle(ctx); err != nil {
		return fmt.Errorf("waiting for indexing: %w", err)
	}
	reportErrors(ix, cmd.ErrOrStderr())

	matches := ix.Search(word)
	slog.Info("search_complete", slog.String("word", word), slog.Int("results", len(matches)))

	res := ui.NewSearchResult(word, matches)
	r := ui.NewResultRenderer(cmd.OutOrStdout(), ui.NoColorFor(cmd.OutOrStdout()))
	if format == ui.FormatJSON {
		return r.RenderJSON(res)
	}
	return r.Render(res)
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
