//go:build !unix

package region

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/shmalloc/internal/format"
)

// Provision backs anonymous regions with a pinned Go byte slice on platforms
// without mmap. File backing and fixed placement are not available.
func Provision(cfg Config) (*Region, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Anonymous() {
		return nil, fmt.Errorf("%w: file-backed region %q", ErrUnsupported, cfg.Path)
	}
	if cfg.Flags&(MapFixed|MapFixedNoReplace) != 0 {
		return nil, fmt.Errorf("%w: fixed placement", ErrUnsupported)
	}

	// Over-allocate by a page so the start can be page aligned like a mapping.
	page := uintptr(PageSize())
	mem := make([]byte, cfg.Size+page)
	start := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	pad := format.AlignUp(start, page) - start

	return &Region{
		cfg:  cfg,
		base: unsafe.Pointer(&mem[pad]),
		size: cfg.Size,
		mem:  mem,
	}, nil
}

// Close releases the backing slice. Calling it again is a no-op.
func (r *Region) Close() error {
	r.base = nil
	r.mem = nil
	return nil
}

// Sync is a no-op: there is no file to flush.
func (r *Region) Sync() error { return nil }
