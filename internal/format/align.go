package format

// Alignment utilities for heap blocks and mapped regions.
// All helpers assume the alignment is a power of two; callers validate that
// with IsPow2 before doing any arithmetic.

// IsPow2 reports whether a is a non-zero power of two.
func IsPow2(a uintptr) bool {
	return a != 0 && a&(a-1) == 0
}

// AlignUp returns n aligned up to the next multiple of a.
//
// Example:
//
//	AlignUp(1, 8)  = 8
//	AlignUp(8, 8)  = 8
//	AlignUp(9, 16) = 16
func AlignUp(n, a uintptr) uintptr {
	return (n + a - 1) &^ (a - 1)
}

// AlignDown returns n aligned down to the previous multiple of a.
//
// Example:
//
//	AlignDown(1023, 8) = 1016
//	AlignDown(1024, 8) = 1024
func AlignDown(n, a uintptr) uintptr {
	return n &^ (a - 1)
}

// AlignUpChecked is AlignUp that reports overflow instead of wrapping.
// Used on caller-supplied sizes, which may be arbitrarily large.
func AlignUpChecked(n, a uintptr) (uintptr, bool) {
	r := AlignUp(n, a)
	if r < n {
		return 0, false
	}
	return r, true
}

// Align8 returns n aligned up to the next 8-byte boundary.
// Heap blocks are always multiples of WordAlignment.
func Align8(n uintptr) uintptr {
	return (n + WordAlignmentMask) &^ WordAlignmentMask
}

// IsAligned reports whether n is a multiple of a.
func IsAligned(n, a uintptr) bool {
	return n&(a-1) == 0
}
