package cmd

import (
	"context"
	"io"

	"github.com/Aman-CERP/textindexer/internal/config"
	"github.com/Aman-CERP/textindexer/internal/indexer"
	"github.com/Aman-CERP/textindexer/internal/logging"
	"github.com/Aman-CERP/textindexer/internal/telemetry"
	"github.com/Aman-CERP/textindexer/internal/ui"
)

// openIndexer builds an indexer from the loaded config and registers paths.
func openIndexer(ctx context.Context, paths []string) (*indexer.Indexer, *telemetry.SearchMetrics, error) {
	cfg := loadedConfig
	if cfg == nil {
		cfg = config.NewConfig()
	}
	opts, err := cfg.ToIndexerOptions()
	if err != nil {
		return nil, nil, err
	}
	metrics := telemetry.NewSearchMetrics(telemetry.DefaultConfig())
	opts.Metrics = metrics
	opts.Logger = logging.ForComponent("indexer")

	ix, err := indexer.New(opts)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range paths {
		if err := ix.Index(ctx, p); err != nil {
			_ = ix.Close()
			return nil, nil, err
		}
	}
	return ix, metrics, nil
}

// reportErrors prints every buffered index error to w.
func reportErrors(ix *indexer.Indexer, w io.Writer) {
	printer := ui.NewActivityPrinter(w, ui.NoColorFor(w))
	for {
		select {
		case e, ok := <-ix.Errors():
			if !ok {
				return
			}
			printer.IndexError(e)
		default:
			return
		}
	}
}
