package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrClosed is returned by requests made after Close.
var ErrClosed = errors.New("watcher closed")

// EventKind is the kind of change carried by an Event.
type EventKind int

const (
	// EventNew carries files that appeared or changed.
	EventNew EventKind = iota
	// EventDeleted carries files that vanished, stopped being watched, or changed.
	EventDeleted
	// EventFlush marks the end of a flushed poll cycle. It carries no files;
	// the consumer closes Done once it has handled every earlier event.
	EventFlush
)

// String returns a human-readable representation of the kind.
func (k EventKind) String() string {
	switch k {
	case EventNew:
		return "NEW"
	case EventDeleted:
		return "DELETED"
	case EventFlush:
		return "FLUSH"
	default:
		return "UNKNOWN"
	}
}

// Event is a batch of files sharing one kind of change.
// Files holds absolute, cleaned paths of regular files.
type Event struct {
	Kind  EventKind
	Files map[string]struct{}

	// Done is set on EventFlush only.
	Done chan struct{}
}

// RequestKind is the kind of a registration request.
type RequestKind int

const (
	// RequestNewFile registers a single file.
	RequestNewFile RequestKind = iota
	// RequestNewDir registers a directory, recursively.
	RequestNewDir
	// RequestDelete deregisters a file or directory.
	RequestDelete
	// RequestFlush asks for a poll cycle followed by an EventFlush marker.
	RequestFlush
)

// String returns a human-readable representation of the kind.
func (k RequestKind) String() string {
	switch k {
	case RequestNewFile:
		return "NEW_FILE"
	case RequestNewDir:
		return "NEW_DIR"
	case RequestDelete:
		return "DELETE"
	case RequestFlush:
		return "FLUSH"
	default:
		return "UNKNOWN"
	}
}

// Request asks the watcher to start or stop watching Path.
type Request struct {
	Kind RequestKind
	Path string

	done chan struct{}
}

// Watcher is the change source consumed by the indexer.
type Watcher interface {
	// Watch registers an existing file or directory.
	Watch(ctx context.Context, path string) error

	// Unwatch deregisters path. Files no longer covered by any registration
	// are reported in the next Deleted event.
	Unwatch(ctx context.Context, path string) error

	// Events returns the change stream. It is closed once the watcher stops.
	Events() <-chan Event

	// Flush waits until a poll cycle that reflects every earlier request has
	// run and its events have been handled by the consumer.
	Flush(ctx context.Context) error

	// Close stops the watcher. Safe to call multiple times.
	Close() error
}

// Options configures the watcher behavior.
type Options struct {
	// PollInterval is the time between poll cycles.
	// Default: 1s
	PollInterval time.Duration

	// RequestBufferSize is the size of the registration request queue.
	// Default: 64
	RequestBufferSize int

	// EventBufferSize is the size of the event channel buffer.
	// Default: 16
	EventBufferSize int

	// Exclude holds doublestar patterns matched against paths relative to a
	// watched directory, and against base names. Explicitly watched files
	// are never excluded.
	Exclude []string

	// Notify enables fsnotify to trigger polls early.
	Notify bool

	// NotifyDelay coalesces bursts of fsnotify events into one poll.
	// Default: 100ms
	NotifyDelay time.Duration

	// Logger receives watcher logs. Default: slog.Default() tagged "watcher".
	Logger *slog.Logger
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		PollInterval:      time.Second,
		RequestBufferSize: 64,
		EventBufferSize:   16,
		NotifyDelay:       100 * time.Millisecond,
	}
}

// Validate reports malformed exclude patterns.
func (o Options) Validate() error {
	for _, p := range o.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.RequestBufferSize <= 0 {
		o.RequestBufferSize = defaults.RequestBufferSize
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if o.NotifyDelay <= 0 {
		o.NotifyDelay = defaults.NotifyDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default().With("component", "watcher")
	}
	return o
}
