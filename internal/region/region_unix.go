//go:build unix

package region

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Provision maps the region described by cfg.
//
// An empty Path yields an anonymous mapping. Otherwise Path is opened with
// cfg.FileAccess() and the mapping is made over it; the descriptor is closed
// before returning, the mapping keeps the pages alive.
//
// Provision only maps memory. It never panics; deciding that a failure is
// fatal is left to the caller.
func Provision(cfg Config) (*Region, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	flags, err := mapFlags(cfg.Flags)
	if err != nil {
		return nil, err
	}

	fd := -1
	if cfg.Anonymous() {
		flags |= unix.MAP_ANON
	} else {
		fd, err = openBacking(cfg)
		if err != nil {
			return nil, err
		}
		defer unix.Close(fd) // safe before return; mapping keeps pages alive
	}

	// Base is only a hint unless a fixed flag is set.
	hint := unsafe.Pointer(cfg.Base)
	p, err := unix.MmapPtr(fd, cfg.Offset, hint, cfg.Size, protBits(cfg.Prot), flags)
	if err != nil {
		return nil, errors.WithStack(fmt.Errorf("%w: mmap %d bytes at %#x (prot=%s flags=%s): %w",
			ErrProvision, cfg.Size, cfg.Base, cfg.Prot, cfg.Flags, err))
	}

	if cfg.Flags&(MapFixed|MapFixedNoReplace) != 0 && uintptr(p) != cfg.Base {
		// Kernels that predate MAP_FIXED_NOREPLACE treat it as a hint.
		_ = unix.MunmapPtr(p, cfg.Size)
		return nil, errors.WithStack(fmt.Errorf("%w: fixed mapping landed at %#x, want %#x",
			ErrProvision, uintptr(p), cfg.Base))
	}

	r := &Region{cfg: cfg, base: p, size: cfg.Size}
	if cfg.Prefault {
		if err := r.Prefault(); err != nil {
			_ = unix.MunmapPtr(p, cfg.Size)
			return nil, errors.WithStack(err)
		}
	}
	return r, nil
}

// openBacking opens (and optionally creates and extends) the backing file.
func openBacking(cfg Config) (int, error) {
	mode := unix.O_CLOEXEC
	switch cfg.FileAccess() {
	case AccessReadWrite:
		mode |= unix.O_RDWR
	default:
		mode |= unix.O_RDONLY
	}
	if cfg.Create {
		mode |= unix.O_CREAT
	}

	fd, err := unix.Open(cfg.Path, mode, uint32(cfg.FilePerm().Perm()))
	if err != nil {
		return -1, errors.WithStack(fmt.Errorf("%w: open %s (%s): %w",
			ErrProvision, cfg.Path, cfg.FileAccess(), err))
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return -1, errors.WithStack(fmt.Errorf("%w: stat %s: %w", ErrProvision, cfg.Path, err))
	}

	want := cfg.Offset + int64(cfg.Size)
	if st.Size < want {
		if !cfg.Truncate {
			_ = unix.Close(fd)
			return -1, errors.WithStack(fmt.Errorf("%w: %s is %d bytes, mapping needs %d",
				ErrProvision, cfg.Path, st.Size, want))
		}
		if err := unix.Ftruncate(fd, want); err != nil {
			_ = unix.Close(fd)
			return -1, errors.WithStack(fmt.Errorf("%w: extend %s to %d bytes: %w",
				ErrProvision, cfg.Path, want, err))
		}
	}
	return fd, nil
}

func protBits(p Prot) int {
	bits := unix.PROT_NONE
	if p&ProtRead != 0 {
		bits |= unix.PROT_READ
	}
	if p&ProtWrite != 0 {
		bits |= unix.PROT_WRITE
	}
	if p&ProtExec != 0 {
		bits |= unix.PROT_EXEC
	}
	return bits
}

// Close unmaps the region. Calling it again is a no-op.
func (r *Region) Close() error {
	if r.base == nil {
		return nil
	}
	if err := unix.MunmapPtr(r.base, r.size); err != nil {
		return errors.Wrapf(err, "region: munmap %#x", r.Addr())
	}
	r.base = nil
	return nil
}

// Sync flushes a file-backed region to its file. Anonymous regions have
// nothing to flush.
func (r *Region) Sync() error {
	if r.base == nil || r.cfg.Anonymous() {
		return nil
	}
	if err := unix.Msync(r.Bytes(), unix.MS_SYNC); err != nil {
		return errors.Wrapf(err, "region: msync %s", r.cfg.Path)
	}
	return nil
}
