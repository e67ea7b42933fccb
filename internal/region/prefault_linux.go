//go:build linux

package region

import (
	"errors"

	"golang.org/x/sys/unix"
)

// populate pre-faults b with MADV_POPULATE_{READ,WRITE} (Linux 5.14+).
func populate(b []byte, write bool) error {
	advice := unix.MADV_POPULATE_READ
	if write {
		advice = unix.MADV_POPULATE_WRITE
	}
	err := unix.Madvise(b, advice)
	if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOSYS) {
		return errNoPopulate
	}
	return err
}
