package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/Aman-CERP/textindexer/internal/document"
	ierrors "github.com/Aman-CERP/textindexer/internal/errors"
	"github.com/Aman-CERP/textindexer/internal/storage"
	"github.com/Aman-CERP/textindexer/internal/telemetry"
	"github.com/Aman-CERP/textindexer/internal/watcher"
)

// ErrClosed is returned by operations on a closed Indexer.
var ErrClosed = ierrors.New(ierrors.ErrCodeClosed, "indexer is closed", nil)

// retry is a deferred admission waiting to re-enter the event loop.
type retry struct {
	file  string
	token uint64
}

// Indexer watches files, keeps their words in a ReverseIndex and answers
// searches. All methods are safe for concurrent use.
type Indexer struct {
	opts      Options
	logger    *slog.Logger
	store     storage.ReverseIndex
	processor *document.Processor
	watcher   watcher.Watcher
	pool      *pool
	metrics   *telemetry.SearchMetrics

	ctx    context.Context
	cancel context.CancelFunc
	loopWG sync.WaitGroup

	// claimed holds files with a task submitted and not yet finished.
	claimed sync.Map

	admitMu       sync.Mutex
	admitted      map[string]int64
	bytesInFlight atomic.Int64
	inProgress    atomic.Int64

	// deferred maps a file to the token of its pending retry.
	deferred      sync.Map
	deferredCount atomic.Int64
	retryToken    atomic.Uint64
	retries       chan retry

	errs        chan IndexError
	errCounts   [len(errorKinds)]atomic.Int64
	errsDropped atomic.Int64
	idle        chan struct{}

	filesIndexed atomic.Int64

	closeOnce sync.Once
	closed    chan struct{}
}

// New builds an Indexer with its own PollWatcher and starts it.
func New(opts Options) (*Indexer, error) {
	if err := opts.Validate(); err != nil {
		return nil, ierrors.ConfigError("invalid indexer options", err)
	}
	opts = opts.WithDefaults()

	if opts.Watcher.Logger == nil {
		opts.Watcher.Logger = opts.Logger.With("component", "watcher")
	}
	w, err := watcher.NewPollWatcher(opts.Watcher)
	if err != nil {
		return nil, ierrors.ConfigError("invalid watcher options", err)
	}

	ix, err := newIndexer(opts, w)
	if err != nil {
		return nil, err
	}
	w.Start(ix.ctx)
	ix.start()
	return ix, nil
}

// newIndexer wires an Indexer around an existing watcher without starting it.
func newIndexer(opts Options, w watcher.Watcher) (*Indexer, error) {
	processor, err := document.NewProcessor(opts.Document)
	if err != nil {
		return nil, ierrors.ConfigError("invalid document options", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ix := &Indexer{
		opts:      opts,
		logger:    opts.Logger,
		store:     storage.New(opts.Storage),
		processor: processor,
		watcher:   w,
		metrics:   opts.Metrics,
		ctx:       ctx,
		cancel:    cancel,
		admitted:  make(map[string]int64),
		retries:   make(chan retry, opts.Workers*4),
		errs:      make(chan IndexError, opts.ErrorBufferSize),
		idle:      make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
	ix.pool = newPool(opts.Workers, ix.signalIdle, opts.Logger)
	return ix, nil
}

func (ix *Indexer) start() {
	ix.loopWG.Add(1)
	go ix.loop()
}

// Index starts watching path, a file or a directory. Its files are indexed
// asynchronously; Idle and WaitIdle report completion.
func (ix *Indexer) Index(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return ierrors.New(ierrors.ErrCodeFilePermission, "cannot access "+path, err)
		}
		return ierrors.InvalidPath(path, err)
	}
	return ix.wrapWatcherErr(ix.watcher.Watch(ctx, path))
}

// Unindex stops watching path. Its files disappear from search results once
// the watcher reports them deleted.
func (ix *Indexer) Unindex(ctx context.Context, path string) error {
	return ix.wrapWatcherErr(ix.watcher.Unwatch(ctx, path))
}

func (ix *Indexer) wrapWatcherErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, watcher.ErrClosed):
		return ErrClosed
	case errors.Is(err, os.ErrNotExist):
		return ierrors.New(ierrors.ErrCodeInvalidPath, err.Error(), err)
	default:
		return err
	}
}

// Search returns the sorted paths of indexed files containing word exactly.
// It never waits for indexing.
func (ix *Indexer) Search(word string) []string {
	start := time.Now()
	docs := ix.store.Get(word)
	sort.Strings(docs)

	if ix.metrics != nil {
		ix.metrics.Record(telemetry.SearchEvent{
			Word:        word,
			ResultCount: len(docs),
			Latency:     time.Since(start),
		})
	}
	return docs
}

// IndexedWordsCount returns the number of distinct indexed words.
func (ix *Indexer) IndexedWordsCount() int {
	return ix.store.Size()
}

// InProgressFileCount returns the number of files being tokenized.
func (ix *Indexer) InProgressFileCount() int {
	return int(ix.inProgress.Load())
}

// BytesInFlight returns the total size of files being tokenized.
func (ix *Indexer) BytesInFlight() int64 {
	return ix.bytesInFlight.Load()
}

// Errors returns the per-file error stream. It is lossy: when the buffer
// is full the oldest error is dropped. Closed by Close.
func (ix *Indexer) Errors() <-chan IndexError {
	return ix.errs
}

// Idle receives a value whenever the indexer runs out of work. Signals are
// coalesced and may be stale; use WaitIdle for a reliable barrier.
func (ix *Indexer) Idle() <-chan struct{} {
	return ix.idle
}

// WaitIdle waits until every change made to watched paths before the call
// has been indexed or removed.
func (ix *Indexer) WaitIdle(ctx context.Context) error {
	if err := ix.wrapWatcherErr(ix.watcher.Flush(ctx)); err != nil {
		return err
	}

	ticker := time.NewTicker(ix.opts.Heartbeat / 5)
	defer ticker.Stop()

	for !ix.quiet() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ix.closed:
			return ErrClosed
		case <-ticker.C:
		}
	}
	return nil
}

// quiet reports whether no task is pending and no retry is scheduled.
func (ix *Indexer) quiet() bool {
	return ix.pool.Pending() == 0 && ix.deferredCount.Load() == 0
}

func (ix *Indexer) signalIdle() {
	if !ix.quiet() {
		return
	}
	select {
	case ix.idle <- struct{}{}:
	default:
	}
}

// Close stops the watcher and the event loop, lets running tasks finish
// and closes the Errors channel.
func (ix *Indexer) Close() error {
	ix.closeOnce.Do(func() {
		ix.cancel()
		_ = ix.watcher.Close()
		ix.loopWG.Wait()
		ix.pool.Close()
		close(ix.closed)
		close(ix.errs)
	})
	return nil
}

func (ix *Indexer) loop() {
	defer ix.loopWG.Done()

	for {
		select {
		case <-ix.ctx.Done():
			return
		case ev, ok := <-ix.watcher.Events():
			if !ok {
				return
			}
			switch ev.Kind {
			case watcher.EventNew:
				ix.handleNew(ev.Files)
			case watcher.EventDeleted:
				if err := ix.handleDeleted(ev.Files); err != nil {
					return
				}
			case watcher.EventFlush:
				close(ev.Done)
			}
		case r := <-ix.retries:
			if ix.deferred.CompareAndDelete(r.file, r.token) {
				ix.dispatch(r.file)
				ix.deferredCount.Add(-1)
			}
		}
	}
}

func (ix *Indexer) handleNew(files map[string]struct{}) {
	for file := range files {
		ix.dispatch(file)
	}
}

// dispatch submits a task for file unless one is already in flight.
func (ix *Indexer) dispatch(file string) {
	if _, loaded := ix.claimed.LoadOrStore(file, struct{}{}); loaded {
		ix.logger.Debug("file already in flight, skipping", slog.String("file", file))
		return
	}

	// Tasks outlive Close so a file is never left half indexed.
	ix.pool.Submit(context.WithoutCancel(ix.ctx), file, func(ctx context.Context) error {
		defer ix.claimed.Delete(file)
		return ix.indexFile(ctx, file)
	}, func() {
		ix.claimed.Delete(file)
	})
}

// handleDeleted waits for every in-flight task, then removes files from
// the index in one call and cancels their pending retries.
func (ix *Indexer) handleDeleted(files map[string]struct{}) error {
	if err := ix.pool.Drain(ix.ctx, ix.opts.Heartbeat); err != nil {
		return err
	}

	ix.store.Remove(files)
	for file := range files {
		if _, ok := ix.deferred.LoadAndDelete(file); ok {
			ix.deferredCount.Add(-1)
		}
	}
	ix.logger.Debug("removed files from index", slog.Int("files", len(files)))
	ix.signalIdle()
	return nil
}

// indexFile is the per-file task.
func (ix *Indexer) indexFile(ctx context.Context, file string) error {
	info, err := os.Stat(file)
	if err != nil {
		ix.report(IndexError{Kind: UnknownError, Detail: err.Error(), File: file})
		return nil
	}
	if info.IsDir() {
		ix.logger.Error("expected a file, got a directory", slog.String("path", file))
		return fmt.Errorf("%s is a directory", file)
	}

	size := info.Size()
	if admitted, others := ix.admit(file, size); !admitted {
		if others > 0 {
			ix.deferRetry(file, size)
		} else {
			ix.logger.Error("file too big for available memory, skipping",
				slog.String("file", file),
				slog.String("size", humanize.IBytes(uint64(size))))
			ix.report(IndexError{Kind: FileTooBig, Detail: strconv.FormatInt(size, 10), File: file})
		}
		return nil
	}
	defer ix.release(file, size)

	ix.logger.Debug("indexing file",
		slog.String("file", file),
		slog.String("size", humanize.IBytes(uint64(size))))

	// Batches may repeat a word, so over-length words are counted once
	// per file. Chunks too large to scan count as one skipped word each.
	var (
		skippedMu sync.Mutex
		skipped   = make(map[string]struct{})
	)
	oversized, err := ix.processor.ExtractWords(ctx, file, func(word, doc string) {
		n := utf8.RuneCountInString(word)
		if n == 0 {
			return
		}
		if n > ix.opts.MaxWordLength {
			skippedMu.Lock()
			skipped[word] = struct{}{}
			skippedMu.Unlock()
			return
		}
		ix.store.Put(word, doc)
	})

	switch {
	case err == nil:
		ix.filesIndexed.Add(1)
	case errors.Is(err, document.ErrNonUTF8):
		ix.logger.Warn("skipping non UTF-8 file", slog.String("file", file))
		ix.report(IndexError{Kind: NonUtf8File, File: file})
	default:
		ix.logger.Error("indexing failed",
			slog.String("file", file),
			slog.String("error", err.Error()))
		ix.report(IndexError{Kind: UnknownError, Detail: err.Error(), File: file})
	}

	if n := len(skipped) + oversized; n > 0 {
		ix.logger.Info("skipped words over the length limit",
			slog.String("file", file),
			slog.Int("count", n),
			slog.Int("limit", ix.opts.MaxWordLength))
		ix.report(IndexError{Kind: WordsSkipped, Detail: strconv.Itoa(n), File: file})
	}
	return nil
}

// admit registers file as in flight if its size fits the memory budget.
// When it does not, it returns the number of other files in flight.
func (ix *Indexer) admit(file string, size int64) (bool, int) {
	ix.admitMu.Lock()
	defer ix.admitMu.Unlock()

	if ix.opts.OOMAvoidance && !ix.budgetFits(size) {
		ix.reclaim()
		if !ix.budgetFits(size) {
			return false, len(ix.admitted)
		}
	}

	ix.admitted[file] = size
	ix.bytesInFlight.Add(size)
	ix.inProgress.Add(1)
	return true, 0
}

func (ix *Indexer) reclaim() {
	if r, ok := ix.opts.Memory.(Reclaimer); ok {
		r.Reclaim()
		return
	}
	runtime.GC()
}

func (ix *Indexer) budgetFits(size int64) bool {
	avail, err := ix.opts.Memory.Available()
	if err != nil {
		ix.logger.Warn("memory probe failed, admitting file", slog.String("error", err.Error()))
		return true
	}
	ok := fits(ix.bytesInFlight.Load(), size, avail, ix.opts.MemoryFactor)
	if !ok {
		ix.logger.Debug("memory budget exceeded",
			slog.String("in_flight", humanize.IBytes(uint64(ix.bytesInFlight.Load()))),
			slog.String("requested", humanize.IBytes(uint64(size))),
			slog.String("available", humanize.IBytes(avail)))
	}
	return ok
}

func (ix *Indexer) release(file string, size int64) {
	ix.admitMu.Lock()
	defer ix.admitMu.Unlock()

	delete(ix.admitted, file)
	ix.bytesInFlight.Add(-size)
	ix.inProgress.Add(-1)
}

// deferRetry re-submits file through the event loop after RetryDelay.
func (ix *Indexer) deferRetry(file string, size int64) {
	token := ix.retryToken.Add(1)
	if _, loaded := ix.deferred.Swap(file, token); !loaded {
		ix.deferredCount.Add(1)
	}
	ix.logger.Debug("postponing file, memory budget in use",
		slog.String("file", file),
		slog.String("size", humanize.IBytes(uint64(size))))

	time.AfterFunc(ix.opts.RetryDelay, func() {
		select {
		case ix.retries <- retry{file: file, token: token}:
		case <-ix.ctx.Done():
		}
	})
}

// report publishes e, dropping the oldest queued error if the buffer is full.
func (ix *Indexer) report(e IndexError) {
	ix.errCounts[e.Kind].Add(1)

	for {
		select {
		case ix.errs <- e:
			return
		default:
		}
		select {
		case <-ix.errs:
			ix.errsDropped.Add(1)
		default:
		}
	}
}

// targeter is implemented by watchers that can list their registrations.
type targeter interface {
	Targets() (files, dirs []string)
}

// Paths returns the explicitly indexed files and directories.
func (ix *Indexer) Paths() (files, dirs []string) {
	if t, ok := ix.watcher.(targeter); ok {
		return t.Targets()
	}
	return nil, nil
}
