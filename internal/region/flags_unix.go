//go:build unix && !linux

package region

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// linuxOnly are the flags with no portable equivalent.
const linuxOnly = MapFixedNoReplace | MapNoReserve | MapPopulate

// mapFlags translates f into mmap(2) flags. MapAnonymous is added by the
// caller when Path is empty.
func mapFlags(f MapFlag) (int, error) {
	if f&linuxOnly != 0 {
		return 0, fmt.Errorf("%w: flags %s", ErrUnsupported, f&linuxOnly)
	}
	var bits int
	if f&MapShared != 0 {
		bits |= unix.MAP_SHARED
	}
	if f&MapPrivate != 0 {
		bits |= unix.MAP_PRIVATE
	}
	if f&MapAnonymous != 0 {
		bits |= unix.MAP_ANON
	}
	if f&MapFixed != 0 {
		bits |= unix.MAP_FIXED
	}
	return bits, nil
}
