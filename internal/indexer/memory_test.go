package indexer

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFits(t *testing.T) {
	tests := []struct {
		name     string
		inFlight int64
		size     int64
		avail    uint64
		factor   float64
		want     bool
	}{
		{"empty budget, small file", 0, 100, 300, 1.5, true},
		{"exact fit", 0, 200, 300, 1.5, true},
		{"just over", 0, 201, 300, 1.5, false},
		{"in flight counts", 150, 100, 300, 1.5, false},
		{"nothing available", 0, 1, 0, 1.5, false},
		{"empty file always fits", 0, 0, 0, 1.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fits(tt.inFlight, tt.size, tt.avail, tt.factor))
		})
	}
}

func TestHeadroom(t *testing.T) {
	tests := []struct {
		name  string
		limit uint64
		ms    runtime.MemStats
		want  uint64
	}{
		{"live heap only", 1000, runtime.MemStats{HeapAlloc: 400}, 600},
		{"runtime overhead counts", 1000, runtime.MemStats{HeapAlloc: 400, StackInuse: 100, GCSys: 50}, 450},
		{"idle and released spans ignored", 1000, runtime.MemStats{HeapAlloc: 400, HeapIdle: 500, HeapReleased: 300, Sys: 2000}, 600},
		{"over the limit", 1000, runtime.MemStats{HeapAlloc: 1200}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, headroom(tt.limit, &tt.ms))
		})
	}
}

var garbageSink []byte

func TestSystemMemory_ReclaimFreesGarbageUnderLimit(t *testing.T) {
	// Given: a soft memory limit 256 MiB above current use, and no
	// allocation-triggered GC
	const mib = 1 << 20
	runtime.GC()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	used := ms.HeapAlloc + ms.StackInuse + ms.MSpanInuse + ms.MCacheInuse + ms.GCSys + ms.OtherSys + ms.BuckHashSys

	oldLimit := debug.SetMemoryLimit(int64(used + 256*mib))
	oldPercent := debug.SetGCPercent(-1)
	t.Cleanup(func() {
		debug.SetGCPercent(oldPercent)
		debug.SetMemoryLimit(oldLimit)
	})

	// When: 128 MiB becomes garbage
	garbageSink = make([]byte, 128*mib)
	garbageSink = nil
	before, ok := limitHeadroom()
	require.True(t, ok)
	SystemMemory{}.Reclaim()
	after, _ := limitHeadroom()

	// Then: a 192 MiB request only fits once the garbage is reclaimed
	assert.False(t, fits(0, 192*mib, before, 1))
	assert.True(t, fits(0, 192*mib, after, 1))
}

func TestSystemMemory_Available(t *testing.T) {
	avail, err := SystemMemory{}.Available()

	require.NoError(t, err)
	assert.Positive(t, avail)
}
