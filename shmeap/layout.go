package shmeap

import "unsafe"

// Layout is the size and alignment of an allocation.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// LayoutOf returns the layout of a T.
func LayoutOf[T any]() Layout {
	var zero T
	return Layout{Size: unsafe.Sizeof(zero), Align: unsafe.Alignof(zero)}
}

// ArrayLayout returns the layout of n consecutive Ts, and false if the size
// overflows.
func ArrayLayout[T any](n int) (Layout, bool) {
	l := LayoutOf[T]()
	if n < 0 {
		return Layout{}, false
	}
	if l.Size != 0 && uintptr(n) > ^uintptr(0)/l.Size {
		return Layout{}, false
	}
	l.Size *= uintptr(n)
	return l, true
}

// AllocLayout allocates memory for l, or returns nil.
func (h *Heap) AllocLayout(l Layout) unsafe.Pointer {
	return h.Alloc(l.Size, l.Align)
}

// DeallocLayout releases memory obtained from AllocLayout with the same l.
func (h *Heap) DeallocLayout(ptr unsafe.Pointer, l Layout) {
	h.Dealloc(ptr, l.Size, l.Align)
}

// Bytes returns a zeroed n-byte slice backed by the heap, or nil if it
// cannot be satisfied. Release it with FreeBytes. Bytes(0) returns an empty
// slice that owns no heap memory.
func (h *Heap) Bytes(n int) []byte {
	return MakeSlice[byte](h, n)
}

// FreeBytes releases a slice returned by Bytes. b must be the slice as
// returned (its capacity is used as the size), not a re-sliced view.
func (h *Heap) FreeBytes(b []byte) {
	FreeSlice(h, b)
}

// NewValue allocates a zeroed T on h and returns a pointer to it, or nil.
//
// T must not contain Go pointers: the garbage collector does not scan heap
// memory, so anything referenced only from there can be collected.
func NewValue[T any](h *Heap) *T {
	l := LayoutOf[T]()
	return (*T)(h.AllocZeroed(l.Size, l.Align))
}

// FreeValue releases a value obtained from NewValue.
func FreeValue[T any](h *Heap, p *T) {
	h.DeallocLayout(unsafe.Pointer(p), LayoutOf[T]())
}

// MakeSlice allocates a zeroed []T of length and capacity n on h, or
// returns nil. The same pointer restrictions as NewValue apply.
func MakeSlice[T any](h *Heap, n int) []T {
	l, ok := ArrayLayout[T](n)
	if !ok {
		return nil
	}
	if l.Size == 0 {
		return make([]T, n) // zero bytes: nothing to place on the heap
	}
	p := h.AllocZeroed(l.Size, l.Align)
	if p == nil {
		return nil
	}
	return unsafe.Slice((*T)(p), n)
}

// FreeSlice releases a slice obtained from MakeSlice.
func FreeSlice[T any](h *Heap, s []T) {
	l, _ := ArrayLayout[T](cap(s))
	if l.Size == 0 {
		return
	}
	h.DeallocLayout(unsafe.Pointer(unsafe.SliceData(s)), l)
}
