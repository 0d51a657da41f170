package indexer

import (
	"math"
	"runtime"
	"runtime/debug"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryProbe reports how many bytes can still be allocated.
type MemoryProbe interface {
	Available() (uint64, error)
}

// Reclaimer is implemented by probes that can free memory before admission
// is re-checked. Probes without it get a plain runtime.GC.
type Reclaimer interface {
	Reclaim()
}

// SystemMemory reports available system memory, capped by the headroom
// left under the Go runtime's soft memory limit when one is set.
type SystemMemory struct{}

// Available implements MemoryProbe.
func (SystemMemory) Available() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	avail := vm.Available
	if h, ok := limitHeadroom(); ok {
		avail = min(avail, h)
	}
	return avail, nil
}

// Reclaim forces a collection and returns freed pages to the OS, so both
// the live heap and the system's available memory reflect the garbage.
func (SystemMemory) Reclaim() {
	debug.FreeOSMemory()
}

// limitHeadroom returns the bytes left under the soft memory limit, or
// false when no limit is set.
func limitHeadroom() (uint64, bool) {
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == math.MaxInt64 {
		return 0, false
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return headroom(uint64(limit), &ms), true
}

// headroom counts allocated heap objects plus runtime overhead against
// limit. Idle and released heap spans are not counted.
func headroom(limit uint64, ms *runtime.MemStats) uint64 {
	used := ms.HeapAlloc + ms.StackInuse + ms.MSpanInuse + ms.MCacheInuse +
		ms.GCSys + ms.OtherSys + ms.BuckHashSys
	if used >= limit {
		return 0
	}
	return limit - used
}

// fits reports whether size more bytes stay within avail/factor.
func fits(inFlight, size int64, avail uint64, factor float64) bool {
	return float64(inFlight+size) <= float64(avail)/factor
}
