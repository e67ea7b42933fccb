package freelist

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/joshuapare/shmalloc/internal/format"
)

const (
	// Unit is the granularity of every offset and length handed out.
	Unit = format.WordAlignment

	// MinBlock is the smallest block the engine allocates or keeps free.
	MinBlock = format.MinBlockSize
)

// Block is a run of free bytes, relative to the start of the span.
type Block struct {
	Off uintptr
	Len uintptr
}

// End returns the offset one past the last byte of the block.
func (b Block) End() uintptr { return b.Off + b.Len }

// Heap is a first-fit free-list allocator over a span of offsets.
type Heap struct {
	// Address of offset 0. Alignment is computed on origin+offset.
	origin   uintptr
	capacity uintptr
	used     uintptr
	free     uintptr

	// Free blocks sorted by Off. Never contains two touching blocks.
	blocks []Block

	// Tail bytes absorbed into an allocation because they were too short to
	// stay free, keyed by allocation offset. Returned with the allocation.
	slack map[uintptr]uintptr

	stats counters
}

// counters holds the running statistics; see Stats for the exported view.
type counters struct {
	allocCalls       uint64
	allocFailures    uint64
	freeCalls        uint64
	bytesAllocated   uint64
	bytesFreed       uint64
	splits           uint64
	absorbed         uint64
	coalesceForward  uint64
	coalesceBackward uint64
}

// New creates an engine managing capacity bytes starting at offset 0, with
// alignment computed on the offsets themselves.
//
// The usable capacity is capacity rounded down to Unit. A span smaller than
// MinBlock has no usable capacity at all and every Allocate fails.
func New(capacity uintptr) *Heap {
	return NewAt(0, capacity)
}

// NewAt is New for a span whose offset 0 lives at address origin. Offsets
// stay relative to the span, but Allocate aligns origin+offset, so the
// returned offsets are aligned in absolute address terms.
//
// origin must be a multiple of Unit and origin+capacity must not overflow.
func NewAt(origin, capacity uintptr) *Heap {
	if !format.IsAligned(origin, Unit) || capacity > format.MaxAddr-origin {
		panic(fmt.Sprintf("freelist: bad origin %#x for capacity %d", origin, capacity))
	}
	usable := format.AlignDown(capacity, Unit)
	if usable < MinBlock {
		usable = 0
	}
	h := &Heap{
		origin:   origin,
		capacity: usable,
		free:     usable,
		blocks:   make([]Block, 0, 16),
		slack:    make(map[uintptr]uintptr),
	}
	if usable > 0 {
		h.blocks = append(h.blocks, Block{Off: 0, Len: usable})
	}
	return h
}

// PaddedSize returns the number of bytes the engine reserves for a request of
// size bytes. It reports false when rounding would overflow.
func PaddedSize(size uintptr) (uintptr, bool) {
	n := max(size, MinBlock)
	if n > format.MaxAddr-format.WordAlignmentMask {
		return 0, false
	}
	return format.Align8(n), true
}

// Allocate reserves size bytes aligned to align and returns their offset.
//
// The first free block in address order that can hold the request is split:
// the aligned middle becomes allocated, any front gap and tail remainder stay
// free. A tail shorter than MinBlock is reserved along with the request and
// given back by Deallocate. ErrNoSpace is returned when no single block fits,
// even if the free bytes in total would.
func (h *Heap) Allocate(size, align uintptr) (uintptr, error) {
	h.stats.allocCalls++

	if !format.IsPow2(align) {
		h.stats.allocFailures++
		return 0, ErrBadAlign
	}
	align = max(align, Unit)

	need, ok := PaddedSize(size)
	if !ok || need > h.free {
		h.stats.allocFailures++
		return 0, ErrNoSpace
	}

	for i, b := range h.blocks {
		off, grant, fits := fit(h.origin, b, need, align)
		if !fits {
			continue
		}
		if grant != need {
			h.slack[off] = grant - need
			h.stats.absorbed++
		}
		h.carve(i, off, grant)
		h.used += grant
		h.free -= grant
		h.stats.bytesAllocated += uint64(grant)
		return off, nil
	}

	h.stats.allocFailures++
	return 0, ErrNoSpace
}

// fit returns the offset at which a request of need bytes, aligned to align
// at address origin+offset, would start inside b and the number of bytes to
// reserve there, or false if it does not fit. The reservation exceeds need
// only when the tail left over would be shorter than MinBlock.
func fit(origin uintptr, b Block, need, align uintptr) (start, grant uintptr, ok bool) {
	addr, ok := format.AlignUpChecked(origin+b.Off, align)
	if !ok {
		return 0, 0, false
	}
	start = addr - origin
	// A front gap must be able to stand as its own free block.
	if start != b.Off && start-b.Off < MinBlock {
		addr, ok = format.AlignUpChecked(origin+b.Off+MinBlock, align)
		if !ok {
			return 0, 0, false
		}
		start = addr - origin
	}

	end := b.End()
	if start > end || end-start < need {
		return 0, 0, false
	}
	grant = need
	if rem := end - start - need; rem < MinBlock {
		grant += rem
	}
	return start, grant, true
}

// carve removes [off, off+n) from block i, keeping the front gap and the
// tail remainder on the free list.
func (h *Heap) carve(i int, off, n uintptr) {
	b := h.blocks[i]
	front := Block{Off: b.Off, Len: off - b.Off}
	back := Block{Off: off + n, Len: b.End() - off - n}

	parts := make([]Block, 0, 2)
	if front.Len > 0 {
		parts = append(parts, front)
	}
	if back.Len > 0 {
		parts = append(parts, back)
	}
	if len(parts) > 0 {
		h.stats.splits++
	}
	h.blocks = slices.Replace(h.blocks, i, i+1, parts...)
}

// Deallocate returns the block at off, allocated with size bytes, to the free
// list and merges it with touching neighbours.
//
// off and size must match a live allocation from this engine. That is not
// checked: a double release or mismatched size corrupts the free list.
func (h *Heap) Deallocate(off, size uintptr) {
	h.stats.freeCalls++

	need, _ := PaddedSize(size)
	if extra, ok := h.slack[off]; ok {
		need += extra
		delete(h.slack, off)
	}
	h.used -= need
	h.free += need
	h.stats.bytesFreed += uint64(need)

	i, _ := slices.BinarySearchFunc(h.blocks, off, func(b Block, target uintptr) int {
		return cmp.Compare(b.Off, target)
	})

	released := Block{Off: off, Len: need}
	mergePrev := i > 0 && h.blocks[i-1].End() == off
	mergeNext := i < len(h.blocks) && released.End() == h.blocks[i].Off

	switch {
	case mergePrev && mergeNext:
		h.stats.coalesceBackward++
		h.stats.coalesceForward++
		h.blocks[i-1].Len += need + h.blocks[i].Len
		h.blocks = slices.Delete(h.blocks, i, i+1)
	case mergePrev:
		h.stats.coalesceBackward++
		h.blocks[i-1].Len += need
	case mergeNext:
		h.stats.coalesceForward++
		h.blocks[i].Off = off
		h.blocks[i].Len += need
	default:
		h.blocks = slices.Insert(h.blocks, i, released)
	}
}

// Used returns the bytes currently allocated.
func (h *Heap) Used() uintptr { return h.used }

// Free returns the bytes currently free. They may be fragmented.
func (h *Heap) Free() uintptr { return h.free }

// Capacity returns the usable size of the span.
func (h *Heap) Capacity() uintptr { return h.capacity }

// Largest returns the length of the largest free block. It scans the list.
func (h *Heap) Largest() uintptr {
	var largest uintptr
	for _, b := range h.blocks {
		largest = max(largest, b.Len)
	}
	return largest
}

// Blocks returns a copy of the free list in address order.
func (h *Heap) Blocks() []Block {
	return slices.Clone(h.blocks)
}
