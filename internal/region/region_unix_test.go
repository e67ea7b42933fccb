//go:build unix

package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func anonConfig(size uintptr) Config {
	return Config{
		Size:  size,
		Prot:  ProtRead | ProtWrite,
		Flags: MapShared,
	}
}

func TestProvisionAnonymous(t *testing.T) {
	r, err := Provision(anonConfig(1 << 16))
	require.NoError(t, err)
	defer r.Close()

	require.NotNil(t, r.Base())
	require.Equal(t, uintptr(1<<16), r.Len())
	require.Zero(t, r.Addr()%uintptr(PageSize()), "mapping must be page aligned")

	buf := r.Bytes()
	require.Len(t, buf, 1<<16)
	for i := range buf {
		require.Zero(t, buf[i], "anonymous memory starts zeroed")
		buf[i] = byte(i)
	}
	require.Equal(t, byte(0xFF), buf[0xFF])
	require.True(t, r.Contains(r.Base()))
	require.NoError(t, r.Sync(), "sync of an anonymous region is a no-op")
}

func TestProvisionPrivate(t *testing.T) {
	cfg := anonConfig(4096)
	cfg.Flags = MapPrivate
	r, err := Provision(cfg)
	require.NoError(t, err)
	defer r.Close()

	r.Bytes()[0] = 1
	require.Equal(t, byte(1), r.Bytes()[0])
}

func TestCloseTwice(t *testing.T) {
	r, err := Provision(anonConfig(4096))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	require.Nil(t, r.Bytes())
}

func TestProvisionFileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")
	cfg := Config{
		Size:     8192,
		Prot:     ProtRead | ProtWrite,
		Flags:    MapShared,
		Path:     path,
		Create:   true,
		Truncate: true,
	}
	r, err := Provision(cfg)
	require.NoError(t, err)

	copy(r.Bytes()[100:], "shmalloc")
	require.NoError(t, r.Sync())
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 8192, "file extended to the mapping size")
	require.Equal(t, "shmalloc", string(data[100:108]))
}

func TestProvisionFileBackedReuse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")
	want := make([]byte, 4096)
	copy(want, "persisted")
	require.NoError(t, os.WriteFile(path, want, 0o600))

	r, err := Provision(Config{
		Size:  4096,
		Prot:  ProtRead,
		Flags: MapPrivate,
		Path:  path,
	})
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, "persisted", string(r.Bytes()[:9]))
	require.Equal(t, AccessReadOnly, r.Config().FileAccess())
}

func TestProvisionFileTooShort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, []byte("tiny"), 0o600))

	_, err := Provision(Config{
		Size:  4096,
		Prot:  ProtRead | ProtWrite,
		Flags: MapShared,
		Path:  path,
	})
	require.ErrorIs(t, err, ErrProvision)
}

func TestProvisionMissingFile(t *testing.T) {
	_, err := Provision(Config{
		Size:  4096,
		Prot:  ProtRead | ProtWrite,
		Flags: MapShared,
		Path:  filepath.Join(t.TempDir(), "missing.bin"),
	})
	require.ErrorIs(t, err, ErrProvision)
	require.ErrorIs(t, err, os.ErrNotExist, "errno is preserved")
}

func TestProvisionFixedBase(t *testing.T) {
	// Find a free address by mapping and unmapping a probe region.
	probe, err := Provision(anonConfig(1 << 16))
	require.NoError(t, err)
	addr := probe.Addr()
	require.NoError(t, probe.Close())

	cfg := anonConfig(1 << 16)
	cfg.Base = addr
	cfg.Flags |= MapFixed
	r, err := Provision(cfg)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, addr, r.Addr())
}

func TestProvisionTooLarge(t *testing.T) {
	cfg := anonConfig(^uintptr(0) &^ uintptr(PageSize()-1))
	_, err := Provision(cfg)
	require.ErrorIs(t, err, ErrProvision)
}

func TestValidate(t *testing.T) {
	page := uintptr(PageSize())
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero size", Config{Prot: ProtRead, Flags: MapShared}},
		{"shared and private", Config{Size: 1, Flags: MapShared | MapPrivate}},
		{"neither shared nor private", Config{Size: 1}},
		{"fixed without base", Config{Size: 1, Flags: MapShared | MapFixed}},
		{"fixed unaligned base", Config{Base: page + 1, Size: 1, Flags: MapPrivate | MapFixed}},
		{"overflow", Config{Base: ^uintptr(0) - 10, Size: 100, Flags: MapShared}},
		{"create without path", Config{Size: 1, Flags: MapShared, Create: true}},
		{"anonymous with path", Config{Size: 1, Flags: MapShared | MapAnonymous, Path: "x"}},
		{"unaligned offset", Config{Size: 1, Flags: MapShared, Path: "x", Offset: 7}},
		{"shared write read-only", Config{Size: 1, Prot: ProtWrite, Flags: MapShared, Path: "x", Access: AccessReadOnly}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.cfg.Validate(), ErrInvalidConfig)
		})
	}

	require.NoError(t, anonConfig(1).Validate())
}

func TestStrings(t *testing.T) {
	require.Equal(t, "read|write", (ProtRead | ProtWrite).String())
	require.Equal(t, "none", ProtNone.String())
	require.Equal(t, "shared|fixed", (MapShared | MapFixed).String())
	require.Equal(t, "read-write", AccessReadWrite.String())
}
