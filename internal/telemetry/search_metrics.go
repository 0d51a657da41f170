// Package telemetry keeps in-memory statistics about search queries.
// Nothing is persisted or reported anywhere.
package telemetry

import (
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LatencyBucket is a search latency histogram bucket.
// Lookups are in-memory, so buckets are fine-grained.
type LatencyBucket string

const (
	BucketUnder100us LatencyBucket = "<100us"
	BucketUnder1ms   LatencyBucket = "<1ms"
	BucketUnder10ms  LatencyBucket = "<10ms"
	BucketUnder100ms LatencyBucket = "<100ms"
	BucketSlow       LatencyBucket = ">=100ms"
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < 100*time.Microsecond:
		return BucketUnder100us
	case d < time.Millisecond:
		return BucketUnder1ms
	case d < 10*time.Millisecond:
		return BucketUnder10ms
	case d < 100*time.Millisecond:
		return BucketUnder100ms
	default:
		return BucketSlow
	}
}

// SearchEvent describes one completed search.
type SearchEvent struct {
	Word        string
	ResultCount int
	Latency     time.Duration
}

// WordCount is a searched word and how often it was searched.
type WordCount struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

// SearchMetricsSnapshot is an immutable copy of the collected metrics.
type SearchMetricsSnapshot struct {
	TotalSearches       int64                   `json:"total_searches"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	TopWords            []WordCount             `json:"top_words"`
	RecentMisses        []string                `json:"recent_misses"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of searches that matched nothing.
func (s SearchMetricsSnapshot) ZeroResultPercentage() float64 {
	if s.TotalSearches == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalSearches) * 100
}

// Config sizes the metric collections.
type Config struct {
	// TopWordsCapacity bounds the number of distinct words tracked.
	TopWordsCapacity int
	// RecentMissesCapacity bounds the zero-result word history.
	RecentMissesCapacity int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TopWordsCapacity:     100,
		RecentMissesCapacity: 20,
	}
}

// SearchMetrics collects search telemetry. Safe for concurrent use.
type SearchMetrics struct {
	mu        sync.Mutex
	words     *lru.Cache[string, int64]
	misses    *RingBuffer[string]
	latencies map[LatencyBucket]int64
	total     int64
	zero      int64
	since     time.Time
}

// NewSearchMetrics creates a collector. Non-positive capacities take defaults.
func NewSearchMetrics(cfg Config) *SearchMetrics {
	def := DefaultConfig()
	if cfg.TopWordsCapacity <= 0 {
		cfg.TopWordsCapacity = def.TopWordsCapacity
	}
	if cfg.RecentMissesCapacity <= 0 {
		cfg.RecentMissesCapacity = def.RecentMissesCapacity
	}

	// lru.New only fails for non-positive sizes.
	words, _ := lru.New[string, int64](cfg.TopWordsCapacity)

	return &SearchMetrics{
		words:     words,
		misses:    NewRingBuffer[string](cfg.RecentMissesCapacity),
		latencies: make(map[LatencyBucket]int64),
		since:     time.Now(),
	}
}

// Record captures one search.
func (m *SearchMetrics) Record(ev SearchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.latencies[LatencyToBucket(ev.Latency)]++

	count, _ := m.words.Get(ev.Word)
	m.words.Add(ev.Word, count+1)

	if ev.ResultCount == 0 {
		m.zero++
		m.misses.Add(ev.Word)
	}
}

// Snapshot returns the current metrics. TopWords is ordered by count,
// highest first, and holds at most limit entries (all if limit <= 0).
func (m *SearchMetrics) Snapshot(limit int) SearchMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	top := make([]WordCount, 0, m.words.Len())
	for _, w := range m.words.Keys() {
		if c, ok := m.words.Peek(w); ok {
			top = append(top, WordCount{Word: w, Count: c})
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Word < top[j].Word
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}

	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	return SearchMetricsSnapshot{
		TotalSearches:       m.total,
		ZeroResultCount:     m.zero,
		TopWords:            top,
		RecentMisses:        m.misses.Items(),
		LatencyDistribution: latencies,
		Since:               m.since,
	}
}
