package telemetry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want LatencyBucket
	}{
		{10 * time.Microsecond, BucketUnder100us},
		{500 * time.Microsecond, BucketUnder1ms},
		{5 * time.Millisecond, BucketUnder10ms},
		{50 * time.Millisecond, BucketUnder100ms},
		{time.Second, BucketSlow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LatencyToBucket(tt.d), tt.d.String())
	}
}

func TestSearchMetrics_RecordAndSnapshot(t *testing.T) {
	// Given: a collector
	m := NewSearchMetrics(DefaultConfig())

	// When: recording hits and misses
	m.Record(SearchEvent{Word: "go", ResultCount: 3, Latency: time.Microsecond})
	m.Record(SearchEvent{Word: "go", ResultCount: 3, Latency: time.Microsecond})
	m.Record(SearchEvent{Word: "rust", ResultCount: 0, Latency: 2 * time.Millisecond})

	// Then: totals, top words and misses reflect the searches
	snap := m.Snapshot(10)
	assert.Equal(t, int64(3), snap.TotalSearches)
	assert.Equal(t, int64(1), snap.ZeroResultCount)
	assert.InDelta(t, 33.3, snap.ZeroResultPercentage(), 0.1)
	require.Len(t, snap.TopWords, 2)
	assert.Equal(t, WordCount{Word: "go", Count: 2}, snap.TopWords[0])
	assert.Equal(t, []string{"rust"}, snap.RecentMisses)
	assert.Equal(t, int64(2), snap.LatencyDistribution[BucketUnder100us])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketUnder10ms])
}

func TestSearchMetrics_SnapshotLimit(t *testing.T) {
	m := NewSearchMetrics(Config{})
	for i := 0; i < 5; i++ {
		m.Record(SearchEvent{Word: fmt.Sprintf("w%d", i), ResultCount: 1})
	}

	assert.Len(t, m.Snapshot(2).TopWords, 2)
	assert.Len(t, m.Snapshot(0).TopWords, 5)
}

func TestSearchMetrics_TopWordsBoundedByCapacity(t *testing.T) {
	m := NewSearchMetrics(Config{TopWordsCapacity: 3})
	for i := 0; i < 10; i++ {
		m.Record(SearchEvent{Word: fmt.Sprintf("w%d", i), ResultCount: 1})
	}

	snap := m.Snapshot(0)
	assert.Len(t, snap.TopWords, 3)
	assert.Equal(t, int64(10), snap.TotalSearches)
}

func TestSearchMetrics_EmptySnapshot(t *testing.T) {
	snap := NewSearchMetrics(DefaultConfig()).Snapshot(5)

	assert.Zero(t, snap.TotalSearches)
	assert.Zero(t, snap.ZeroResultPercentage())
	assert.Empty(t, snap.TopWords)
	assert.Empty(t, snap.RecentMisses)
}

func TestSearchMetrics_ConcurrentRecord(t *testing.T) {
	m := NewSearchMetrics(DefaultConfig())
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.Record(SearchEvent{Word: "x", ResultCount: i % 2})
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot(1)
	assert.Equal(t, int64(800), snap.TotalSearches)
	assert.Equal(t, int64(400), snap.ZeroResultCount)
	assert.Equal(t, int64(800), snap.TopWords[0].Count)
}

func TestRingBuffer_EvictsOldest(t *testing.T) {
	b := NewRingBuffer[int](3)
	assert.Empty(t, b.Items())

	for i := 1; i <= 5; i++ {
		b.Add(i)
	}

	assert.Equal(t, []int{3, 4, 5}, b.Items())
	assert.Equal(t, 3, b.Len())
}

func TestRingBuffer_PartiallyFilled(t *testing.T) {
	b := NewRingBuffer[string](0)
	b.Add("a")
	b.Add("b")

	assert.Equal(t, []string{"a", "b"}, b.Items())
}
