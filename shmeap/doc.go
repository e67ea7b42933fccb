// Package shmeap is a general-purpose allocator backed by a single mmap'd
// region instead of the Go heap.
//
// # Overview
//
// A Heap owns one contiguous span of address space obtained from the OS. The
// caller decides where it lives (Base, MapFixed), how it is backed (anonymous
// memory or a file via Path) and whether it is shared with other processes
// (MapShared). Memory handed out by the heap is never scanned or freed by the
// garbage collector; it is released only through Dealloc.
//
// # Lifecycle
//
//	h := shmeap.New(shmeap.Config{
//	    Size:  64 << 20,
//	    Prot:  shmeap.ProtRead | shmeap.ProtWrite,
//	    Flags: shmeap.MapShared,
//	    Path:  "/dev/shm/myheap",
//	    Create: true, Truncate: true,
//	})
//
//	p := h.Alloc(256, 16) // maps the region on first use
//	if p == nil {
//	    // out of memory
//	}
//	h.Dealloc(p, 256, 16)
//
// New only records the configuration. The region is mapped exactly once, by
// whichever goroutine first needs it; concurrent first callers wait for it.
// If mapping fails the heap is unusable: Alloc, Dealloc, Used and Free panic
// with a *ProvisionError. Programs that prefer an error call Init at start-up.
//
// Default returns a process-wide heap configured from DefaultConfig and the
// SHMEAP_* environment variables (see ConfigFromEnv).
//
// # Allocation
//
// Allocation is first-fit over an address-ordered free list (package
// freelist). Requests are rounded up to 8 bytes with a 16-byte minimum;
// released blocks are merged with free neighbours. Alloc returns nil when no
// single free block is large enough; there is no growth and no retry.
//
// Dealloc trusts its caller: the pointer, size and alignment must match a live
// allocation. Double frees and mismatched sizes are not detected.
//
// # Thread Safety
//
// All Heap methods are safe for concurrent use. Each Alloc or Dealloc holds
// the heap mutex for one free-list operation.
//
// # Observability
//
// Stats, Used and Free report occupancy; NewCollector exposes the same
// numbers to Prometheus. Logging goes through internal/logger and is off
// unless SHMEAP_LOG is set.
package shmeap
