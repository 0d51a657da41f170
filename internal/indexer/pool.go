package indexer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type job struct {
	ctx     context.Context
	name    string
	task    func(context.Context) error
	skipped func()
}

// pool runs queued tasks on a fixed set of worker goroutines. The queue is
// unbounded, so Submit never blocks the caller.
type pool struct {
	g       errgroup.Group
	mu      sync.Mutex
	queue   []job
	closed  bool
	wake    chan struct{}
	stopCh  chan struct{}
	pending atomic.Int64
	onIdle  func()
	logger  *slog.Logger
}

func newPool(workers int, onIdle func(), logger *slog.Logger) *pool {
	p := &pool{
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		onIdle: onIdle,
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		p.g.Go(p.work)
	}
	return p
}

// Submit queues task. Tasks still queued when the pool is closed, or
// submitted after it, are skipped, and skipped is called instead.
func (p *pool) Submit(ctx context.Context, name string, task func(context.Context) error, skipped func()) {
	p.pending.Add(1)
	j := job{ctx: ctx, name: name, task: task, skipped: skipped}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.skip(j)
		return
	}
	p.queue = append(p.queue, j)
	p.mu.Unlock()

	p.signal()
}

func (p *pool) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *pool) work() error {
	for {
		j, ok := p.next()
		if !ok {
			return nil
		}
		if err := j.task(j.ctx); err != nil {
			p.logger.Error("task failed",
				slog.String("task", j.name),
				slog.String("error", err.Error()))
		}
		p.done()
	}
}

// next pops the oldest queued job, waiting for one if the queue is empty.
// It returns false once the pool is closed.
func (p *pool) next() (job, bool) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return job{}, false
		}
		if len(p.queue) > 0 {
			j := p.queue[0]
			p.queue[0] = job{}
			p.queue = p.queue[1:]
			more := len(p.queue) > 0
			p.mu.Unlock()
			// One wake-up token may stand for several jobs; pass it on.
			if more {
				p.signal()
			}
			return j, true
		}
		p.mu.Unlock()

		select {
		case <-p.wake:
		case <-p.stopCh:
			return job{}, false
		}
	}
}

func (p *pool) skip(j job) {
	if j.skipped != nil {
		j.skipped()
	}
	p.done()
}

func (p *pool) done() {
	if p.pending.Add(-1) == 0 && p.onIdle != nil {
		p.onIdle()
	}
}

// Pending returns the number of submitted tasks not yet finished.
func (p *pool) Pending() int64 {
	return p.pending.Load()
}

// Drain blocks until no task is pending, checking every heartbeat.
func (p *pool) Drain(ctx context.Context, heartbeat time.Duration) error {
	if p.pending.Load() == 0 {
		return nil
	}

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.pending.Load() == 0 {
				return nil
			}
		}
	}
}

// Close skips queued tasks and waits for running ones to finish.
func (p *pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	queued := p.queue
	p.queue = nil
	p.mu.Unlock()

	close(p.stopCh)
	for _, j := range queued {
		p.skip(j)
	}
	_ = p.g.Wait()
}
