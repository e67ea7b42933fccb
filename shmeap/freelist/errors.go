package freelist

import "errors"

var (
	// ErrNoSpace indicates that no single free block can hold the request.
	ErrNoSpace = errors.New("freelist: no free block large enough")

	// ErrBadAlign indicates an alignment that is not a power of two.
	ErrBadAlign = errors.New("freelist: alignment must be a power of two")

	// ErrCorrupt is returned by Check when a free-list invariant is broken.
	ErrCorrupt = errors.New("freelist: corrupt free list")
)
