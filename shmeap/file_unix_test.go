//go:build unix

package shmeap

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// Test_Heap_FileBacked verifies allocations in a shared file-backed heap
// land in the file at their region offset.
func Test_Heap_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap")
	h := New(Config{
		Size:     1 << 16,
		Prot:     ProtRead | ProtWrite,
		Flags:    MapShared,
		Path:     path,
		Create:   true,
		Truncate: true,
	})
	t.Cleanup(func() { _ = h.Close() })

	require.NotNil(t, h.Alloc(256, 8))
	p := h.Alloc(11, 8)
	require.NotNil(t, p)
	copy(unsafe.Slice((*byte)(p), 11), "hello, heap")
	require.NoError(t, h.Sync())

	addr, _ := h.Region()
	off := uintptr(p) - addr

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 1<<16)
	require.Equal(t, "hello, heap", string(data[off:off+11]))
}

// Test_Heap_FileBackedMissing verifies a missing file without Create is a
// provisioning failure.
func Test_Heap_FileBackedMissing(t *testing.T) {
	h := New(Config{
		Size:  4096,
		Prot:  ProtRead | ProtWrite,
		Flags: MapShared,
		Path:  filepath.Join(t.TempDir(), "absent"),
	})
	var pe *ProvisionError
	require.ErrorAs(t, h.Init(), &pe)
	require.ErrorIs(t, pe, os.ErrNotExist)
}
