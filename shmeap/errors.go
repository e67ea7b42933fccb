package shmeap

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// ErrClosed is the panic value when a closed heap is used.
var ErrClosed = errors.New("shmeap: heap is closed")

// ProvisionError reports that the region backing a heap could not be mapped.
//
// A heap without a region cannot serve anything, so Alloc, Dealloc, Used and
// Free panic with a *ProvisionError. Call Init to get it as an error instead.
type ProvisionError struct {
	Config Config
	Err    error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("shmeap: cannot provision %s region (path=%q): %v",
		humanize.IBytes(uint64(e.Config.Size)), e.Config.Path, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }
