package watcher

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// notifier turns fsnotify activity into coalesced poll requests.
// It never produces events itself.
type notifier struct {
	fsw    *fsnotify.Watcher
	delay  time.Duration
	poke   func()
	logger *slog.Logger

	pending atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// watched is only touched from the poll goroutine.
	watched map[string]struct{}
}

func newNotifier(delay time.Duration, poke func(), logger *slog.Logger) (*notifier, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	n := &notifier{
		fsw:     fsw,
		delay:   delay,
		poke:    poke,
		logger:  logger,
		stopCh:  make(chan struct{}),
		watched: make(map[string]struct{}),
	}
	n.wg.Add(1)
	go n.loop()
	return n, nil
}

func (n *notifier) loop() {
	defer n.wg.Done()

	for {
		select {
		case <-n.stopCh:
			return
		case _, ok := <-n.fsw.Events:
			if !ok {
				return
			}
			n.schedule()
		case err, ok := <-n.fsw.Errors:
			if !ok {
				return
			}
			n.logger.Warn("fsnotify error", slog.String("error", err.Error()))
			// Events may have been lost, poll to be safe.
			n.schedule()
		}
	}
}

// schedule pokes the poll loop after the delay, at most once per window.
func (n *notifier) schedule() {
	if !n.pending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(n.delay, func() {
		n.pending.Store(false)
		n.poke()
	})
}

// sync makes the fsnotify watch list match paths.
func (n *notifier) sync(paths map[string]struct{}) {
	for p := range n.watched {
		if _, ok := paths[p]; !ok {
			// Removal fails for paths fsnotify already dropped; that is fine.
			_ = n.fsw.Remove(p)
			delete(n.watched, p)
		}
	}
	for p := range paths {
		if _, ok := n.watched[p]; ok {
			continue
		}
		if err := n.fsw.Add(p); err != nil {
			n.logger.Debug("fsnotify add failed",
				slog.String("path", p),
				slog.String("error", err.Error()))
			continue
		}
		n.watched[p] = struct{}{}
	}
}

func (n *notifier) close() error {
	close(n.stopCh)
	err := n.fsw.Close()
	n.wg.Wait()
	return err
}
