// Package conv provides checked integer conversion and arithmetic helpers.
//
// Arena sizes arrive as int (Go's natural length type) but are tracked as
// uint64 offsets, and BVH node links are uint32. These helpers reject the
// values that would silently wrap at those boundaries.
//
// For conversions that are provably safe by domain constraints (loop
// indices, bounded counters), use direct type casts instead.
package conv
