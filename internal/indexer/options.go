package indexer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/textindexer/internal/document"
	"github.com/Aman-CERP/textindexer/internal/storage"
	"github.com/Aman-CERP/textindexer/internal/telemetry"
	"github.com/Aman-CERP/textindexer/internal/watcher"
)

const (
	// DefaultWorkers is the size of the tokenization pool.
	DefaultWorkers = 2

	// DefaultMemoryFactor is the assumed ratio of indexing memory to file size.
	DefaultMemoryFactor = 1.5

	// DefaultMaxWordLength is the longest word, in runes, that is indexed.
	DefaultMaxWordLength = 16384

	// DefaultHeartbeat is how often the deletion barrier checks the pool.
	DefaultHeartbeat = 250 * time.Millisecond

	// DefaultErrorBufferSize is the capacity of the Errors channel.
	DefaultErrorBufferSize = 64
)

// Options configures an Indexer. Start from DefaultOptions.
type Options struct {
	// Workers bounds concurrent file tokenization.
	Workers int

	// OOMAvoidance enables memory admission control.
	OOMAvoidance bool

	// MemoryFactor divides available memory to get the in-flight byte budget.
	// Must be greater than 1.
	MemoryFactor float64

	// MaxWordLength is the longest word, in runes, that is stored.
	MaxWordLength int

	// Heartbeat is the deletion barrier's polling interval.
	Heartbeat time.Duration

	// RetryDelay is how long a deferred file waits before re-admission.
	// Default: twice Heartbeat.
	RetryDelay time.Duration

	// ErrorBufferSize is the capacity of the Errors channel.
	ErrorBufferSize int

	// Storage selects the index backend.
	Storage storage.Kind

	// Document configures chunking and tokenization.
	Document document.Options

	// Watcher configures change detection.
	Watcher watcher.Options

	// Memory reports available memory. Default: SystemMemory.
	Memory MemoryProbe

	// Metrics records search telemetry when set.
	Metrics *telemetry.SearchMetrics

	// Logger receives indexer logs. Default: slog.Default() tagged "indexer".
	Logger *slog.Logger
}

// DefaultOptions returns the default indexer options.
func DefaultOptions() Options {
	return Options{
		Workers:         DefaultWorkers,
		OOMAvoidance:    true,
		MemoryFactor:    DefaultMemoryFactor,
		MaxWordLength:   DefaultMaxWordLength,
		Heartbeat:       DefaultHeartbeat,
		ErrorBufferSize: DefaultErrorBufferSize,
		Storage:         storage.KindMap,
		Document:        document.DefaultOptions(),
		Watcher:         watcher.DefaultOptions(),
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", o.Workers)
	}
	if o.MemoryFactor != 0 && o.MemoryFactor <= 1 {
		return fmt.Errorf("memory factor must be greater than 1, got %v", o.MemoryFactor)
	}
	if o.MaxWordLength < 0 {
		return fmt.Errorf("max word length must be positive, got %d", o.MaxWordLength)
	}
	return o.Watcher.Validate()
}

// WithDefaults returns options with defaults applied for zero values.
// OOMAvoidance is left as is.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.MemoryFactor == 0 {
		o.MemoryFactor = d.MemoryFactor
	}
	if o.MaxWordLength <= 0 {
		o.MaxWordLength = d.MaxWordLength
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = d.Heartbeat
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * o.Heartbeat
	}
	if o.ErrorBufferSize <= 0 {
		o.ErrorBufferSize = d.ErrorBufferSize
	}
	if o.Storage == "" {
		o.Storage = d.Storage
	}
	if o.Memory == nil {
		o.Memory = SystemMemory{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default().With("component", "indexer")
	}
	return o
}
