// Package arena provides reserve/commit bump allocators.
//
// # Memory Model
//
// New reserves a large range of address space (the theoretical worst case,
// often gigabytes) without backing it with physical memory. Pages are
// committed lazily, one granule (DefaultCommitSize) at a time, as cursors
// move forward. Moving a cursor backward (Pop, ShrinkTo, Clear) never
// decommits, so reused memory may hold stale bytes; use AllocZeroed when that
// matters.
//
// # Splitting
//
// Split carves an independent child arena off the front of the parent's free
// space. The child commits its own pages as it grows; the parent continues
// allocating after the child. A Buffer is a typed child region with a length
// and a capacity:
//
//	root, err := arena.New(1 << 30)
//	if err != nil { ... }
//	defer root.Release()
//
//	ids, err := arena.SplitOff[uint32](root, 1024)
//	if err != nil { ... }
//	_ = ids.Push(7)
//	_ = ids.Finish(root) // parent cursor now sits right after the last id
//
// # Concurrency
//
// An Arena or Buffer is not safe for concurrent use. Distinct arenas split
// from the same root may be used on different goroutines; commits are
// serialized per reservation.
//
// # Offsets
//
// Positions are Offsets relative to the page-aligned reservation base.
// Values placed in arena memory are invisible to the garbage collector and
// must not contain Go pointers.
package arena
