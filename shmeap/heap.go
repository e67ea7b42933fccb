package shmeap

import (
	"sync"
	"unsafe"

	"github.com/joshuapare/shmalloc/internal/logger"
	"github.com/joshuapare/shmalloc/internal/region"
	"github.com/joshuapare/shmalloc/shmeap/freelist"
)

// Stats is a snapshot of a heap's occupancy and counters.
type Stats = freelist.Stats

// Heap is a general-purpose allocator over one mmap'd region.
//
// The region is mapped on first use, not by New. Every Alloc and Dealloc
// holds the heap's mutex for exactly one free-list operation, so a Heap is
// safe for concurrent use.
type Heap struct {
	mu     sync.Mutex
	cfg    Config
	lazy   *lazyState
	closed bool
}

// New returns a heap over the region described by cfg. Nothing is mapped
// until the first call that needs the region.
func New(cfg Config) *Heap {
	return newHeap(cfg, region.Provision)
}

func newHeap(cfg Config, provision provisionFunc) *Heap {
	return &Heap{
		cfg:  cfg,
		lazy: newLazyState(cfg, provision),
	}
}

// Config returns the configuration the heap was built with.
func (h *Heap) Config() Config { return h.cfg }

// Init maps the region now instead of on first use and reports a
// provisioning failure as an error rather than a panic. It is safe to call
// any number of times; only the first call does any work.
func (h *Heap) Init() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	_, err := h.lazy.get()
	return err
}

// mustState returns the initialised state. Call with mu held.
//
// Panics with *ProvisionError if the region cannot be mapped: there is no
// fallback allocator to degrade to.
func (h *Heap) mustState() *state {
	if h.closed {
		panic(ErrClosed)
	}
	st, err := h.lazy.get()
	if err != nil {
		panic(err)
	}
	return st
}

// Alloc returns size bytes aligned to align, or nil when no free block is
// large enough. align must be a power of two; any other value yields nil.
//
// The memory is not zeroed and is invisible to the garbage collector: it
// must not hold the only reference to a Go-allocated object.
func (h *Heap) Alloc(size, align uintptr) unsafe.Pointer {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.mustState()
	off, err := st.engine.Allocate(size, align)
	if err != nil {
		return nil
	}
	return unsafe.Add(st.region.Base(), off)
}

// AllocZeroed is Alloc followed by clearing the returned memory.
func (h *Heap) AllocZeroed(size, align uintptr) unsafe.Pointer {
	p := h.Alloc(size, align)
	if p != nil && size > 0 {
		clear(unsafe.Slice((*byte)(p), size))
	}
	return p
}

// Dealloc releases memory returned by Alloc. size and align must be the
// values passed to Alloc; ptr must not have been released already. Neither
// is checked. A nil ptr is ignored.
func (h *Heap) Dealloc(ptr unsafe.Pointer, size, align uintptr) {
	if ptr == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.mustState()
	st.engine.Deallocate(uintptr(ptr)-st.region.Addr(), size)
}

// Realloc moves an allocation of oldSize bytes to a new one of newSize
// bytes with the same alignment, copying the common prefix. On failure it
// returns nil and the original allocation is left untouched.
func (h *Heap) Realloc(ptr unsafe.Pointer, oldSize, align, newSize uintptr) unsafe.Pointer {
	if ptr == nil {
		return h.Alloc(newSize, align)
	}
	p := h.Alloc(newSize, align)
	if p == nil {
		return nil
	}
	if n := min(oldSize, newSize); n > 0 {
		copy(unsafe.Slice((*byte)(p), n), unsafe.Slice((*byte)(ptr), n))
	}
	h.Dealloc(ptr, oldSize, align)
	return p
}

// Used returns the bytes currently allocated, including rounding.
func (h *Heap) Used() uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mustState().engine.Used()
}

// Free returns the bytes currently free. They may be fragmented, so an
// allocation of Free() bytes can still fail.
func (h *Heap) Free() uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mustState().engine.Free()
}

// Capacity returns the usable size of the region.
func (h *Heap) Capacity() uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mustState().engine.Capacity()
}

// Stats returns a snapshot of the heap. It never maps the region: an
// uninitialised heap reports zero values and false.
func (h *Heap) Stats() (Stats, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || !h.lazy.initialized() {
		return Stats{}, false
	}
	return h.mustState().engine.Stats(), true
}

// Check verifies the free-list invariants. Meant for tests and debugging.
func (h *Heap) Check() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mustState().engine.Check()
}

// Region returns the start address and length of the mapped region.
func (h *Heap) Region() (addr, size uintptr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.mustState().region
	return r.Addr(), r.Len()
}

// Contains reports whether ptr points into the heap's region.
func (h *Heap) Contains(ptr unsafe.Pointer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || !h.lazy.initialized() {
		return false
	}
	return h.mustState().region.Contains(ptr)
}

// Sync flushes a file-backed region to disk.
func (h *Heap) Sync() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mustState().region.Sync()
}

// Close unmaps the region. Every pointer handed out becomes invalid and any
// later use of the heap panics with ErrClosed.
//
// The process-wide heap returned by Default is never closed; Close exists
// for heaps whose lifetime is shorter than the process.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if !h.lazy.initialized() {
		return nil
	}
	st, _ := h.lazy.get()
	logger.L().WithField("addr", st.region.Addr()).Debug("shmeap: closing heap")
	return st.region.Close()
}
