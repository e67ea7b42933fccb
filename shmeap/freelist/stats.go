package freelist

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Stats is a snapshot of the engine's counters and occupancy.
type Stats struct {
	Capacity uintptr // Usable bytes in the span
	Used     uintptr // Bytes allocated (padded sizes)
	Free     uintptr // Bytes free, possibly fragmented
	Largest  uintptr // Largest single free block
	Blocks   int     // Number of free blocks

	AllocCalls       uint64 // Total Allocate() calls
	AllocFailures    uint64 // Allocate() calls that returned an error
	FreeCalls        uint64 // Total Deallocate() calls
	BytesAllocated   uint64 // Cumulative padded bytes allocated
	BytesFreed       uint64 // Cumulative padded bytes released
	Splits           uint64 // Allocations that left a front gap or tail on the free list
	Absorbed         uint64 // Allocations that reserved a tail too short to stay free
	CoalesceForward  uint64 // Releases merged with the following free block
	CoalesceBackward uint64 // Releases merged with the preceding free block
}

// Stats returns a snapshot of the engine. Largest is computed by a scan.
func (h *Heap) Stats() Stats {
	return Stats{
		Capacity:         h.capacity,
		Used:             h.used,
		Free:             h.free,
		Largest:          h.Largest(),
		Blocks:           len(h.blocks),
		AllocCalls:       h.stats.allocCalls,
		AllocFailures:    h.stats.allocFailures,
		FreeCalls:        h.stats.freeCalls,
		BytesAllocated:   h.stats.bytesAllocated,
		BytesFreed:       h.stats.bytesFreed,
		Splits:           h.stats.splits,
		Absorbed:         h.stats.absorbed,
		CoalesceForward:  h.stats.coalesceForward,
		CoalesceBackward: h.stats.coalesceBackward,
	}
}

// Fragmentation returns 1 - Largest/Free, or 0 when nothing is free.
// A value near 1 means free space exists but mostly in small pieces.
func (s Stats) Fragmentation() float64 {
	if s.Free == 0 {
		return 0
	}
	return 1 - float64(s.Largest)/float64(s.Free)
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "capacity=%s used=%s free=%s largest=%s blocks=%d",
		humanize.IBytes(uint64(s.Capacity)),
		humanize.IBytes(uint64(s.Used)),
		humanize.IBytes(uint64(s.Free)),
		humanize.IBytes(uint64(s.Largest)),
		s.Blocks,
	)
	fmt.Fprintf(&b, " allocs=%d failures=%d frees=%d splits=%d coalesce=%d/%d",
		s.AllocCalls, s.AllocFailures, s.FreeCalls, s.Splits,
		s.CoalesceBackward, s.CoalesceForward,
	)
	return b.String()
}
