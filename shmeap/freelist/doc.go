// Package freelist implements the first-fit free-list engine behind shmeap.
//
// # Overview
//
// The engine manages a span of Capacity bytes purely in terms of integer
// offsets. It never touches the memory it manages: the free list lives in Go
// memory, so the engine can be exercised (and tested) without mapping anything.
// Translating offsets to addresses is the caller's job.
//
// # Blocks
//
// The span is partitioned into blocks. Only free blocks are recorded; the
// allocated blocks are the gaps between them. The free list is kept sorted by
// offset and obeys:
//
//   - blocks never overlap and never leave [0, Capacity)
//   - no two free blocks touch (they are merged on release)
//   - every offset and length is a multiple of Unit
//   - every free block is at least MinBlock bytes
//   - Used() + Free() == Capacity()
//
// # Allocation
//
// Allocate walks the free list in address order and takes the first block the
// request fits in (first-fit). The request is rounded up to Unit and never
// below MinBlock; the same rounding is applied on release, so callers pass the
// size they asked for, not the rounded one.
//
// Alignment applies to origin+offset, where origin is the address of offset 0
// given to NewAt (0 for New). When the aligned start leaves a front gap,
// that gap stays on the free list; a gap smaller than MinBlock is avoided by
// moving one alignment step further. A tail remainder smaller than MinBlock
// cannot stay on the free list, so it is reserved together with the request
// and handed back when that allocation is released.
//
//	before:  [ free 0..256 )
//	Allocate(100, 8)
//	after:   [ used 0..104 )[ free 104..256 )
//
// # Release
//
// Deallocate re-inserts the block by binary search and merges it with the
// preceding and following free blocks when they touch. Because free blocks
// never touch each other, at most one merge per side is ever needed.
//
// # Thread Safety
//
// Heap instances are not thread-safe. shmeap.Heap serialises access with a
// mutex; other callers must synchronise externally.
package freelist
