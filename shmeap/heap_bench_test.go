package shmeap

import "testing"

// BenchmarkHeap_AllocDealloc measures the locked adapter path.
func BenchmarkHeap_AllocDealloc(b *testing.B) {
	h := newTestHeap(b, 1<<20)
	b.ReportAllocs()
	b.ResetTimer()

	for _i := 0; _i < b.N; _i++ {
		p := h.Alloc(64, 8)
		if p == nil {
			b.Fatal("allocation failed")
		}
		h.Dealloc(p, 64, 8)
	}
}

// BenchmarkHeap_AllocDeallocParallel measures the same path under contention.
func BenchmarkHeap_AllocDeallocParallel(b *testing.B) {
	h := newTestHeap(b, 1<<24)
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p := h.Alloc(64, 8)
			if p == nil {
				b.Error("allocation failed")
				return
			}
			h.Dealloc(p, 64, 8)
		}
	})
}
