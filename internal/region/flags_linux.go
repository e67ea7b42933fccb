//go:build linux

package region

import "golang.org/x/sys/unix"

// mapFlags translates f into mmap(2) flags. MapAnonymous is added by the
// caller when Path is empty.
func mapFlags(f MapFlag) (int, error) {
	var bits int
	if f&MapShared != 0 {
		bits |= unix.MAP_SHARED
	}
	if f&MapPrivate != 0 {
		bits |= unix.MAP_PRIVATE
	}
	if f&MapAnonymous != 0 {
		bits |= unix.MAP_ANONYMOUS
	}
	if f&MapFixed != 0 {
		bits |= unix.MAP_FIXED
	}
	if f&MapFixedNoReplace != 0 {
		bits |= unix.MAP_FIXED_NOREPLACE
	}
	if f&MapNoReserve != 0 {
		bits |= unix.MAP_NORESERVE
	}
	if f&MapPopulate != 0 {
		bits |= unix.MAP_POPULATE
	}
	return bits, nil
}
