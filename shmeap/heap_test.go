package shmeap

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/shmalloc/internal/region"
)

func newTestHeap(t testing.TB, size uintptr) *Heap {
	t.Helper()
	h := New(Config{
		Size:  size,
		Prot:  ProtRead | ProtWrite,
		Flags: MapPrivate,
	})
	require.NoError(t, h.Init())
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// Test_Heap_InitialState verifies an untouched heap is entirely free.
func Test_Heap_InitialState(t *testing.T) {
	h := newTestHeap(t, 1<<16)
	require.Equal(t, uintptr(0), h.Used())
	require.Equal(t, uintptr(1<<16), h.Free())
	require.Equal(t, uintptr(1<<16), h.Capacity())
	require.NoError(t, h.Check())

	addr, size := h.Region()
	require.NotZero(t, addr)
	require.Equal(t, uintptr(1<<16), size)
}

// Test_Heap_Exhaustion walks the capacity-1024 scenario through the
// pointer-based API.
func Test_Heap_Exhaustion(t *testing.T) {
	h := newTestHeap(t, 1024)

	p := h.Alloc(100, 8)
	require.NotNil(t, p)
	require.True(t, h.Contains(p))
	require.Equal(t, uintptr(104), h.Used())

	require.Nil(t, h.Alloc(2000, 8))
	require.Equal(t, uintptr(104), h.Used(), "failed allocation must not change used")

	h.Dealloc(p, 100, 8)
	require.Equal(t, uintptr(1024), h.Free())
	require.Equal(t, uintptr(0), h.Used())
}

// Test_Heap_CoalescedPairServesLargerRequest verifies two adjacent 64-byte
// blocks merge on release into one that fits 120 bytes.
func Test_Heap_CoalescedPairServesLargerRequest(t *testing.T) {
	h := newTestHeap(t, 192)

	a := h.Alloc(64, 8)
	b := h.Alloc(64, 8)
	c := h.Alloc(64, 8)
	require.NotNil(t, a)
	require.NotNil(t, c)
	require.Equal(t, unsafe.Add(a, 64), b, "B must be adjacent to A")

	h.Dealloc(a, 64, 8)
	require.Nil(t, h.Alloc(120, 8), "A alone cannot hold 120 bytes")

	h.Dealloc(b, 64, 8)
	p := h.Alloc(120, 8)
	require.Equal(t, a, p)

	h.Dealloc(p, 120, 8)
	h.Dealloc(c, 64, 8)
	require.Equal(t, uintptr(192), h.Free())
	require.NoError(t, h.Check())
}

// Test_Heap_Alignment verifies returned pointers honour the requested
// alignment in absolute address terms.
func Test_Heap_Alignment(t *testing.T) {
	h := newTestHeap(t, 1<<16)
	require.NotNil(t, h.Alloc(24, 8))

	for _, align := range []uintptr{8, 16, 64, 512, 4096} {
		p := h.Alloc(40, align)
		require.NotNil(t, p, "align=%d", align)
		require.Zero(t, uintptr(p)%align, "align=%d", align)
	}
	require.Nil(t, h.Alloc(8, 3), "non power-of-two alignment")
	require.NoError(t, h.Check())
}

// Test_Heap_AlignmentAbovePageSize verifies alignments larger than a page
// hold for the absolute address, whatever base the kernel picked.
func Test_Heap_AlignmentAbovePageSize(t *testing.T) {
	const heaps = 16
	page := uintptr(region.PageSize())

	misaligned := 0
	for _i := 0; _i < heaps; _i++ {
		h := newTestHeap(t, 1<<17)
		addr, _ := h.Region()
		for _, align := range []uintptr{2 * page, 8 << 10, 64 << 10} {
			if addr%align != 0 {
				misaligned++
			}
			p := h.Alloc(64, align)
			require.NotNil(t, p, "base=%#x align=%d", addr, align)
			require.Zero(t, uintptr(p)%align, "base=%#x align=%d p=%p", addr, align, p)
			require.True(t, h.Contains(p))
		}
		require.NoError(t, h.Check())
	}
	t.Logf("%d of %d requests started from a base not aligned to them", misaligned, heaps*3)
}

// Test_Heap_AlignmentLargerThanRegion verifies a boundary that does not fall
// inside the region yields nil rather than a misaligned pointer.
func Test_Heap_AlignmentLargerThanRegion(t *testing.T) {
	h := newTestHeap(t, 4096)
	addr, _ := h.Region()

	const align = 1 << 20
	p := h.Alloc(64, align)
	if addr%align != 0 {
		require.Nil(t, p, "base=%#x", addr)
		return
	}
	require.NotNil(t, p)
	require.Zero(t, uintptr(p)%align)
}

// Test_Heap_MemoryIsUsable writes through every allocation and checks
// neighbours are untouched.
func Test_Heap_MemoryIsUsable(t *testing.T) {
	h := newTestHeap(t, 1<<16)

	bufs := make([][]byte, 8)
	for i := range bufs {
		bufs[i] = h.Bytes(1000)
		require.Len(t, bufs[i], 1000)
		for j := range bufs[i] {
			require.Zero(t, bufs[i][j], "Bytes must return zeroed memory")
			bufs[i][j] = byte(i)
		}
	}
	for i, b := range bufs {
		for j := range b {
			require.Equal(t, byte(i), b[j], "buffer %d corrupted at %d", i, j)
		}
	}
	for _, b := range bufs {
		h.FreeBytes(b)
	}
	require.Equal(t, uintptr(0), h.Used())
	require.Empty(t, h.Bytes(0))
	require.Nil(t, h.Bytes(1<<20), "larger than the region")
}

// Test_Heap_Realloc verifies the common prefix survives a move.
func Test_Heap_Realloc(t *testing.T) {
	h := newTestHeap(t, 1<<16)

	p := h.Alloc(32, 8)
	src := unsafe.Slice((*byte)(p), 32)
	copy(src, "0123456789abcdefghijklmnopqrstuv")

	q := h.Realloc(p, 32, 8, 4096)
	require.NotNil(t, q)
	require.Equal(t, "0123456789abcdefghijklmnopqrstuv", string(unsafe.Slice((*byte)(q), 32)))
	require.Equal(t, uintptr(4096), h.Used(), "old block released")

	require.Nil(t, h.Realloc(q, 4096, 8, 1<<20), "too large")
	require.Equal(t, uintptr(4096), h.Used(), "original kept on failure")

	h.Dealloc(q, 4096, 8)
	require.Equal(t, uintptr(0), h.Used())
}

type point struct {
	X, Y int64
	Tag  [3]byte
}

// Test_Heap_TypedHelpers verifies NewValue and MakeSlice round-trip.
func Test_Heap_TypedHelpers(t *testing.T) {
	h := newTestHeap(t, 1<<16)

	p := NewValue[point](h)
	require.NotNil(t, p)
	require.Equal(t, point{}, *p)
	p.X, p.Y = 3, 4
	require.Zero(t, uintptr(unsafe.Pointer(p))%unsafe.Alignof(*p))

	s := MakeSlice[uint32](h, 100)
	require.Len(t, s, 100)
	for i := range s {
		s[i] = uint32(i * i)
	}
	require.Equal(t, uint32(99*99), s[99])
	require.Equal(t, int64(3), p.X, "slice must not overlap value")

	FreeSlice(h, s)
	FreeValue(h, p)
	require.Equal(t, uintptr(0), h.Used())

	l, ok := ArrayLayout[uint64](math.MaxInt)
	require.False(t, ok, "overflowing layout: %+v", l)
	require.Nil(t, MakeSlice[uint64](h, math.MaxInt))
}

// Test_Heap_LayoutAPI verifies AllocLayout/DeallocLayout mirror Alloc/Dealloc.
func Test_Heap_LayoutAPI(t *testing.T) {
	h := newTestHeap(t, 4096)
	l := LayoutOf[[5]uint64]()
	require.Equal(t, Layout{Size: 40, Align: 8}, l)

	p := h.AllocLayout(l)
	require.NotNil(t, p)
	require.Equal(t, uintptr(40), h.Used())
	h.DeallocLayout(p, l)
	require.Equal(t, uintptr(0), h.Used())
}

// Test_Heap_Close verifies a closed heap refuses further use.
func Test_Heap_Close(t *testing.T) {
	h := New(Config{Size: 4096, Prot: ProtRead | ProtWrite, Flags: MapPrivate})
	require.NotNil(t, h.Alloc(8, 8))

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	require.ErrorIs(t, h.Init(), ErrClosed)
	require.PanicsWithValue(t, ErrClosed, func() { h.Alloc(8, 8) })

	_, ok := h.Stats()
	require.False(t, ok)
}

// Test_Heap_DeallocNil verifies releasing nil is a no-op, even before init.
func Test_Heap_DeallocNil(t *testing.T) {
	h := New(Config{})
	h.Dealloc(nil, 8, 8)
}
