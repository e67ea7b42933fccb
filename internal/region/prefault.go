package region

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// errNoPopulate means the kernel cannot populate a range on request.
var errNoPopulate = errors.New("region: populate not supported")

// Prefault faults in every page of the region and reports the first page
// that cannot be accessed. It prefers a populate madvise, which returns an
// error where a plain access would raise SIGBUS, and falls back to reading
// one byte per page with faults turned into panics.
func (r *Region) Prefault() error {
	b := r.Bytes()
	if len(b) == 0 {
		return nil
	}

	err := populate(b, r.cfg.Prot&ProtWrite != 0)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errNoPopulate) {
		return fmt.Errorf("%w: populate %d bytes at %#x: %w", ErrProvision, len(b), r.Addr(), err)
	}
	return touchPages(b, PageSize())
}

// touchPages reads one byte per page. A fault is recovered and returned as
// an error naming the page.
func touchPages(b []byte, page int) (err error) {
	old := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(old)

	i := 0
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: fault at offset %#x: %v", ErrProvision, i, r)
		}
	}()

	var sink byte
	for ; i < len(b); i += page {
		sink ^= b[i]
	}
	i = len(b) - 1
	sink ^= b[i]
	_ = sink
	return nil
}
