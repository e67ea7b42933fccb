package freelist

import (
	"fmt"

	"github.com/joshuapare/shmalloc/internal/format"
)

// Check walks the free list and verifies every invariant listed in the
// package documentation. It returns an error wrapping ErrCorrupt describing
// the first violation found.
//
// Check is O(n) in the number of free blocks and is meant for tests and
// debugging, not for the allocation path.
func (h *Heap) Check() error {
	if h.used+h.free != h.capacity {
		return fmt.Errorf("%w: used %d + free %d != capacity %d",
			ErrCorrupt, h.used, h.free, h.capacity)
	}

	var sum uintptr
	for i, b := range h.blocks {
		if b.Len < MinBlock {
			return fmt.Errorf("%w: block %d at %#x has length %d < %d",
				ErrCorrupt, i, b.Off, b.Len, MinBlock)
		}
		if !format.IsAligned(b.Off, Unit) || !format.IsAligned(b.Len, Unit) {
			return fmt.Errorf("%w: block %d at %#x len %d not %d-aligned",
				ErrCorrupt, i, b.Off, b.Len, Unit)
		}
		if b.End() > h.capacity || b.End() < b.Off {
			return fmt.Errorf("%w: block %d [%#x, %#x) outside capacity %#x",
				ErrCorrupt, i, b.Off, b.End(), h.capacity)
		}
		if i > 0 {
			prev := h.blocks[i-1]
			switch {
			case prev.End() > b.Off:
				return fmt.Errorf("%w: blocks %d and %d overlap or are unordered ([%#x, %#x) vs [%#x, %#x))",
					ErrCorrupt, i-1, i, prev.Off, prev.End(), b.Off, b.End())
			case prev.End() == b.Off:
				return fmt.Errorf("%w: blocks %d and %d touch at %#x but were not merged",
					ErrCorrupt, i-1, i, b.Off)
			}
		}
		sum += b.Len
	}

	if sum != h.free {
		return fmt.Errorf("%w: free blocks sum to %d but free is %d", ErrCorrupt, sum, h.free)
	}
	return nil
}
