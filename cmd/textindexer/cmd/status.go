package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	ierrors "github.com/Aman-CERP/textindexer/internal/errors"
	"github.com/Aman-CERP/textindexer/internal/ui"
)

type statusOptions struct {
	paths   []string
	format  string
	timeout time.Duration
}

func newStatusCmd() *cobra.Command {
	var opts statusOptions

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Index paths and print indexer counters",
		Long: `Index the given paths, wait until indexing settles, then print the
number of indexed words and files, and errors grouped by kind.`,
		Example: `  textindexer status --path ./books
  textindexer status --path ./books --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.paths, "path", "p", []string{"."}, "File or directory to index (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Give up if indexing takes longer (0 = no limit)")

	return cmd
}

func runStatus(cmd *cobra.Command, opts statusOptions) error {
	format, ok := ui.ParseFormat(opts.format)
	if !ok {
		return ierrors.ValidationError(fmt.Sprintf("unknown format %q", opts.format), nil).
			WithSuggestion("Use --format text or --format json")
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

	info := ui.StatusInfo{Stats: ix.Stats()}
	r := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.NoColorFor(cmd.OutOrStdout()))
	if format == ui.FormatJSON {
		return r.RenderJSON(info)
	}
	return r.Render(info)
}
