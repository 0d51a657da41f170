package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// PollWatcher implements Watcher by periodically scanning registered paths.
type PollWatcher struct {
	opts   Options
	logger *slog.Logger

	requests chan Request
	events   chan Event
	kick     chan struct{}
	done     chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu      sync.Mutex
	files   map[string]struct{}
	dirs    map[string]struct{}
	flushes []chan struct{}

	// stamps is owned by the poll goroutine.
	stamps   map[string]fileStamp
	notifier *notifier
}

type fileStamp struct {
	modTime time.Time
	size    int64
}

func (s fileStamp) changed(other fileStamp) bool {
	return !s.modTime.Equal(other.modTime) || s.size != other.size
}

var _ Watcher = (*PollWatcher)(nil)

// NewPollWatcher creates a watcher. Call Start to begin processing.
func NewPollWatcher(opts Options) (*PollWatcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	return &PollWatcher{
		opts:     opts,
		logger:   opts.Logger,
		requests: make(chan Request, opts.RequestBufferSize),
		events:   make(chan Event, opts.EventBufferSize),
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		stamps:   make(map[string]fileStamp),
	}, nil
}

// Start launches the request and poll goroutines. They run until Close is
// called or ctx is cancelled, after which Events is closed.
func (w *PollWatcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		if w.opts.Notify {
			n, err := newNotifier(w.opts.NotifyDelay, w.Poke, w.logger)
			if err != nil {
				w.logger.Warn("fsnotify unavailable, polling only", slog.String("error", err.Error()))
			} else {
				w.notifier = n
			}
		}

		w.wg.Add(2)
		go w.requestLoop(ctx)
		go w.pollLoop(ctx)

		go func() {
			w.wg.Wait()
			if w.notifier != nil {
				_ = w.notifier.close()
			}
			close(w.events)
		}()
	})
}

// Watch registers an existing file or directory.
func (w *PollWatcher) Watch(ctx context.Context, path string) error {
	abs, err := absClean(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch %s: %w", abs, err)
	}

	kind := RequestNewFile
	if info.IsDir() {
		kind = RequestNewDir
	}
	return w.enqueue(ctx, Request{Kind: kind, Path: abs})
}

// Unwatch deregisters path. The path does not need to exist.
func (w *PollWatcher) Unwatch(ctx context.Context, path string) error {
	abs, err := absClean(path)
	if err != nil {
		return err
	}
	return w.enqueue(ctx, Request{Kind: RequestDelete, Path: abs})
}

// Events returns the change stream.
func (w *PollWatcher) Events() <-chan Event {
	return w.events
}

// Flush implements Watcher. The consumer of Events must close the Done
// channel of the EventFlush marker for Flush to return.
func (w *PollWatcher) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := w.enqueue(ctx, Request{Kind: RequestFlush, done: done}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poke asks the poll loop to run a cycle now. Pokes are coalesced.
func (w *PollWatcher) Poke() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Targets returns the explicitly watched files and directories, sorted.
func (w *PollWatcher) Targets() (files, dirs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return sortedKeys(w.files), sortedKeys(w.dirs)
}

// Close stops both goroutines and waits for them to exit.
func (w *PollWatcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
	return nil
}

func (w *PollWatcher) enqueue(ctx context.Context, r Request) error {
	select {
	case <-w.done:
		return ErrClosed
	default:
	}

	select {
	case w.requests <- r:
		return nil
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *PollWatcher) requestLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case r := <-w.requests:
			w.apply(r)
			w.Poke()
		}
	}
}

func (w *PollWatcher) apply(r Request) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch r.Kind {
	case RequestNewFile:
		w.files[r.Path] = struct{}{}
	case RequestNewDir:
		w.dirs[r.Path] = struct{}{}
	case RequestDelete:
		delete(w.files, r.Path)
		delete(w.dirs, r.Path)
	case RequestFlush:
		w.flushes = append(w.flushes, r.done)
	}
	w.logger.Debug("watch request applied",
		slog.String("kind", r.Kind.String()),
		slog.String("path", r.Path))
}

func (w *PollWatcher) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
		case <-w.kick:
		}

		if !w.poll(ctx) {
			return
		}
	}
}

// poll runs one cycle. It returns false if the watcher stopped while
// delivering events.
func (w *PollWatcher) poll(ctx context.Context) bool {
	files, dirs, flushes := w.targets()
	sc := w.scan(files, dirs)

	current := make(map[string]fileStamp, len(sc.present))
	deleted := make(map[string]struct{})
	added := make(map[string]struct{})
	modified := make(map[string]struct{})

	for path, stamp := range sc.present {
		prev, known := w.stamps[path]
		switch {
		case !known:
			added[path] = struct{}{}
		case stamp.changed(prev):
			modified[path] = struct{}{}
		}
		current[path] = stamp
	}
	// Listed but not stat-able: keep the previous stamp. A file that vanished
	// mid-scan is then reported as deleted by the next cycle.
	for path := range sc.unreadable {
		if prev, known := w.stamps[path]; known {
			current[path] = prev
		}
	}
	for path := range w.stamps {
		if _, ok := current[path]; !ok {
			deleted[path] = struct{}{}
		}
	}
	w.stamps = current

	if w.notifier != nil {
		w.notifier.sync(sc.watchable)
	}

	if len(deleted)+len(modified) > 0 {
		ev := Event{Kind: EventDeleted, Files: union(deleted, modified)}
		if !w.emit(ctx, ev) {
			return false
		}
	}
	if len(added)+len(modified) > 0 {
		ev := Event{Kind: EventNew, Files: union(added, modified)}
		if !w.emit(ctx, ev) {
			return false
		}
	}
	for _, done := range flushes {
		if !w.emit(ctx, Event{Kind: EventFlush, Done: done}) {
			return false
		}
	}
	return true
}

// emit delivers ev, blocking until the consumer takes it or the watcher stops.
func (w *PollWatcher) emit(ctx context.Context, ev Event) bool {
	if ev.Kind != EventFlush {
		w.logger.Debug("emitting event",
			slog.String("kind", ev.Kind.String()),
			slog.Int("files", len(ev.Files)))
	}

	select {
	case w.events <- ev:
		return true
	case <-w.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// targets snapshots the registrations and takes pending flush requests,
// so a flush always follows a cycle that saw every request before it.
func (w *PollWatcher) targets() (files, dirs []string, flushes []chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	flushes, w.flushes = w.flushes, nil

	files = make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	dirs = make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		dirs = append(dirs, d)
	}
	return files, dirs, flushes
}

// scanResult is the filesystem state observed by one poll cycle.
type scanResult struct {
	present    map[string]fileStamp
	unreadable map[string]struct{}
	// watchable lists directories walked and explicit files found, for fsnotify.
	watchable map[string]struct{}
}

func (w *PollWatcher) scan(files, dirs []string) scanResult {
	sc := scanResult{
		present:    make(map[string]fileStamp),
		unreadable: make(map[string]struct{}),
		watchable:  make(map[string]struct{}),
	}

	for _, root := range dirs {
		w.walk(root, &sc)
	}

	for _, path := range files {
		info, err := os.Stat(path)
		switch {
		case err == nil && info.Mode().IsRegular():
			sc.present[path] = fileStamp{modTime: info.ModTime(), size: info.Size()}
			sc.watchable[path] = struct{}{}
		case err != nil && !os.IsNotExist(err):
			sc.unreadable[path] = struct{}{}
		}
	}
	return sc
}

func (w *PollWatcher) walk(root string, sc *scanResult) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != root && d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path != root && w.excluded(root, path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			sc.watchable[path] = struct{}{}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			sc.unreadable[path] = struct{}{}
			return nil
		}
		sc.present[path] = fileStamp{modTime: info.ModTime(), size: info.Size()}
		return nil
	})
	if err != nil {
		w.logger.Warn("directory scan failed",
			slog.String("dir", root),
			slog.String("error", err.Error()))
	}
}

func union(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func absClean(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return filepath.Clean(abs), nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
