// Package region provisions the single contiguous span of memory that backs a
// heap. It is the only place that talks to the OS memory-mapping interface;
// everything above it works on offsets.
package region

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unsafe"

	"github.com/joshuapare/shmalloc/internal/format"
)

var (
	// ErrInvalidConfig indicates a Config that cannot describe a mapping.
	ErrInvalidConfig = errors.New("region: invalid config")

	// ErrProvision indicates that the OS refused to open or map the region.
	ErrProvision = errors.New("region: provisioning failed")

	// ErrUnsupported indicates a feature the current platform cannot provide.
	ErrUnsupported = errors.New("region: unsupported on this platform")
)

// Prot is the access protection of the mapped pages.
type Prot uint8

const (
	ProtNone  Prot = 0
	ProtRead  Prot = 1 << 0
	ProtWrite Prot = 1 << 1
	ProtExec  Prot = 1 << 2
)

func (p Prot) String() string {
	if p == ProtNone {
		return "none"
	}
	var parts []string
	if p&ProtRead != 0 {
		parts = append(parts, "read")
	}
	if p&ProtWrite != 0 {
		parts = append(parts, "write")
	}
	if p&ProtExec != 0 {
		parts = append(parts, "exec")
	}
	return strings.Join(parts, "|")
}

// MapFlag describes the sharing and placement semantics of the mapping.
type MapFlag uint16

const (
	MapShared         MapFlag = 1 << 0 // writes are visible to other mappings of the same object
	MapPrivate        MapFlag = 1 << 1 // copy-on-write
	MapAnonymous      MapFlag = 1 << 2 // not backed by a file; implied when Path is empty
	MapFixed          MapFlag = 1 << 3 // place exactly at Base, replacing existing mappings
	MapFixedNoReplace MapFlag = 1 << 4 // place exactly at Base, fail if occupied (linux)
	MapNoReserve      MapFlag = 1 << 5 // do not reserve swap (linux)
	MapPopulate       MapFlag = 1 << 6 // prefault pages (linux)
)

var mapFlagNames = []struct {
	f    MapFlag
	name string
}{
	{MapShared, "shared"},
	{MapPrivate, "private"},
	{MapAnonymous, "anonymous"},
	{MapFixed, "fixed"},
	{MapFixedNoReplace, "fixed-noreplace"},
	{MapNoReserve, "noreserve"},
	{MapPopulate, "populate"},
}

func (f MapFlag) String() string {
	var parts []string
	for _, n := range mapFlagNames {
		if f&n.f != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Access is the open mode of the backing file. It is configured separately
// from Prot: protection bits are not file access modes.
type Access uint8

const (
	// AccessDefault derives the mode from Prot: read-write when ProtWrite is
	// set, read-only otherwise.
	AccessDefault Access = iota
	AccessReadOnly
	AccessReadWrite
)

func (a Access) String() string {
	switch a {
	case AccessReadOnly:
		return "read-only"
	case AccessReadWrite:
		return "read-write"
	default:
		return "default"
	}
}

// Config describes the region to provision. It is read-only once a heap has
// been constructed from it.
type Config struct {
	Base   uintptr // Requested start address, 0 lets the OS choose
	Size   uintptr // Length in bytes, must be > 0
	Prot   Prot
	Flags  MapFlag
	Path   string // Optional backing file; empty means anonymous memory
	Access Access // Open mode for Path

	Create   bool        // Create Path if missing
	Perm     os.FileMode // Mode for a created file. Default: 0o600
	Offset   int64       // File offset of the mapping, page aligned
	Truncate bool        // Extend Path to Offset+Size when it is shorter

	// Prefault touches every page right after mapping so a short or
	// inaccessible backing file fails provisioning instead of raising
	// SIGBUS on first use. Needs ProtRead.
	Prefault bool
}

// Anonymous reports whether the region is not backed by a file.
func (c Config) Anonymous() bool { return c.Path == "" }

// FileAccess returns the effective open mode for the backing file.
func (c Config) FileAccess() Access {
	if c.Access != AccessDefault {
		return c.Access
	}
	if c.Prot&ProtWrite != 0 {
		return AccessReadWrite
	}
	return AccessReadOnly
}

// FilePerm returns the mode used when Create makes a new file.
func (c Config) FilePerm() os.FileMode {
	if c.Perm == 0 {
		return 0o600
	}
	return c.Perm
}

// Validate checks the config for combinations no OS mapping call can honour.
func (c Config) Validate() error {
	page := uintptr(PageSize())

	if c.Size == 0 {
		return fmt.Errorf("%w: size must be > 0", ErrInvalidConfig)
	}
	if c.Base != 0 && c.Size > format.MaxAddr-c.Base {
		return fmt.Errorf("%w: base %#x + size %d overflows the address space", ErrInvalidConfig, c.Base, c.Size)
	}
	if (c.Flags&MapShared != 0) == (c.Flags&MapPrivate != 0) {
		return fmt.Errorf("%w: exactly one of shared or private is required (flags=%s)", ErrInvalidConfig, c.Flags)
	}

	if c.Flags&(MapFixed|MapFixedNoReplace) != 0 {
		if c.Base == 0 {
			return fmt.Errorf("%w: fixed placement needs a base address", ErrInvalidConfig)
		}
		if !format.IsAligned(c.Base, page) {
			return fmt.Errorf("%w: fixed base %#x is not page aligned", ErrInvalidConfig, c.Base)
		}
	}

	if c.Prefault && c.Prot&ProtRead == 0 {
		return fmt.Errorf("%w: prefault needs read access (prot=%s)", ErrInvalidConfig, c.Prot)
	}

	if c.Anonymous() {
		if c.Create || c.Truncate || c.Offset != 0 {
			return fmt.Errorf("%w: create, truncate and offset need a backing path", ErrInvalidConfig)
		}
		return nil
	}

	if c.Flags&MapAnonymous != 0 {
		return fmt.Errorf("%w: anonymous flag set with backing path %q", ErrInvalidConfig, c.Path)
	}
	if c.Offset < 0 || !format.IsAligned(uintptr(c.Offset), page) {
		return fmt.Errorf("%w: offset %d is not a non-negative multiple of the page size", ErrInvalidConfig, c.Offset)
	}
	if c.Flags&MapShared != 0 && c.Prot&ProtWrite != 0 && c.FileAccess() != AccessReadWrite {
		return fmt.Errorf("%w: shared writable mapping of %q needs read-write access", ErrInvalidConfig, c.Path)
	}
	return nil
}

// PageSize returns the OS page size.
func PageSize() int {
	if ps := os.Getpagesize(); ps > 0 {
		return ps
	}
	return format.DefaultPageSize
}

// Region is a provisioned span of memory. The heap owns it for its whole
// lifetime; a process-wide heap never closes it.
type Region struct {
	cfg  Config
	base unsafe.Pointer
	size uintptr

	// mem keeps Go-allocated backing alive on platforms without mmap.
	mem []byte
}

// Config returns the configuration the region was provisioned from.
func (r *Region) Config() Config { return r.cfg }

// Base returns the start of the region.
func (r *Region) Base() unsafe.Pointer { return r.base }

// Addr returns the start of the region as an integer.
func (r *Region) Addr() uintptr { return uintptr(r.base) }

// Len returns the size of the region in bytes.
func (r *Region) Len() uintptr { return r.size }

// Bytes returns the region as a byte slice. The slice aliases the mapping
// and must not be used after Close.
func (r *Region) Bytes() []byte {
	if r.base == nil {
		return nil
	}
	return unsafe.Slice((*byte)(r.base), r.size)
}

// Contains reports whether p points inside the region.
func (r *Region) Contains(p unsafe.Pointer) bool {
	a := uintptr(p)
	return r.base != nil && a >= r.Addr() && a-r.Addr() < r.size
}
