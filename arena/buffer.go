package arena

import (
	"unsafe"
)

// Buffer is a typed, growable array that lives in a region split from a
// parent arena. Its length is the distance between the region start and the
// region cursor, so it never drifts from the memory actually in use.
//
// A Buffer grows in place up to the capacity it was split with. Growing past
// it is ErrCapacityExceeded; the buffer never relocates.
type Buffer[T any] struct {
	region   *Arena
	data     []T
	elemSize uint64
}

// SplitOff carves room for capacity values of T from parent.
func SplitOff[T any](parent *Arena, capacity int) (*Buffer[T], error) {
	size, _, err := layout[T]()
	if err != nil {
		return nil, err
	}
	region, err := SplitType[T](parent, capacity)
	if err != nil {
		return nil, err
	}

	b := &Buffer[T]{region: region, elemSize: uint64(size)}
	if capacity > 0 {
		b.data = unsafe.Slice((*T)(region.pointer(region.start)), capacity)
	}
	return b, nil
}

// Push appends v, committing pages as needed.
func (b *Buffer[T]) Push(v T) error {
	n := b.Len()
	if n == len(b.data) {
		return &CapacityError{Op: "push", Requested: b.elemSize, Available: b.region.Remaining()}
	}
	if _, err := b.region.alloc("push", int(b.elemSize), 1); err != nil { //nolint:gosec // element size fits in int
		return err
	}
	b.data[n] = v
	return nil
}

// Pop removes and returns the last value.
func (b *Buffer[T]) Pop() (T, error) {
	var zero T
	n := b.Len()
	if n == 0 {
		return zero, &ReleaseError{Op: "pop", Target: b.region.start, Start: b.region.start, Next: b.region.next}
	}
	v := b.data[n-1]
	b.region.next -= Offset(b.elemSize)
	return v, nil
}

// Len returns the number of values in the buffer.
func (b *Buffer[T]) Len() int {
	return int(uint64(b.region.next-b.region.start) / b.elemSize) //nolint:gosec // bounded by capacity
}

// Cap returns the maximum number of values.
func (b *Buffer[T]) Cap() int {
	return len(b.data)
}

// At returns the value at index i. It panics if i is out of range.
func (b *Buffer[T]) At(i int) T {
	return b.data[:b.Len()][i]
}

// Set overwrites the value at index i. It panics if i is out of range.
func (b *Buffer[T]) Set(i int, v T) {
	b.data[:b.Len()][i] = v
}

// Ptr returns a pointer to the value at index i. It panics if i is out of range.
func (b *Buffer[T]) Ptr(i int) *T {
	return &b.data[:b.Len()][i]
}

// Items returns the values as a slice aliasing arena memory. The slice is
// capped at Len so appends copy to the heap instead of running into
// uncommitted pages.
func (b *Buffer[T]) Items() []T {
	n := b.Len()
	return b.data[:n:n]
}

// Reset empties the buffer. Capacity and committed pages are kept.
func (b *Buffer[T]) Reset() {
	b.region.Clear()
}

// Base returns the offset of the first value.
func (b *Buffer[T]) Base() Offset {
	return b.region.start
}

// End returns the offset one past the last value.
func (b *Buffer[T]) End() Offset {
	return b.region.next
}

// Finish hands the unused tail of the buffer back to parent: the parent
// cursor moves to End and the buffer capacity shrinks to its length.
// The buffer must lie inside the live range of parent.
func (b *Buffer[T]) Finish(parent *Arena) error {
	if parent.space != b.region.space || b.region.start < parent.start || b.region.next > parent.next {
		return &ReleaseError{Op: "finish", Target: b.region.next, Start: parent.start, Next: parent.next}
	}
	if err := parent.ShrinkTo(b.region.next); err != nil {
		return err
	}

	n := b.Len()
	b.region.end = b.region.next
	b.data = b.data[:n:n]
	return nil
}
