// Package format holds the low-level layout constants and alignment
// arithmetic shared by the heap engine and the region provisioner. It keeps
// the arithmetic free of any OS dependency so both sides agree on sizes.
package format

const (
	// WordAlignment is the granularity of every block offset and length.
	// It matches the alignment of a two-word free-list entry on 64-bit hosts.
	WordAlignment = 8

	// WordAlignmentMask is the bitmask used for aligning to 8-byte boundaries (WordAlignment - 1).
	WordAlignmentMask = WordAlignment - 1

	// MinBlockSize is the smallest block the heap will hand out or keep on
	// the free list: two machine words.
	MinBlockSize = 2 * WordAlignment

	// DefaultPageSize is used where the OS page size cannot be queried.
	DefaultPageSize = 0x1000

	// MaxAddr is the largest representable address.
	MaxAddr = ^uintptr(0)
)
