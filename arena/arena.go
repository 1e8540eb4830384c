package arena

import (
	"fmt"
	"math/bits"
	"unsafe"
)

// DefaultAlignment is the alignment used when callers pass 0.
const DefaultAlignment = 8

// Offset is a byte position inside the reservation backing an arena.
// The reservation base is page aligned, so an offset aligned to n is an
// address aligned to n.
type Offset uint64

// Stats describes an arena and the reservation it lives in.
type Stats struct {
	ReservedBytes  uint64 // size of the shared reservation
	CommittedBytes uint64 // bytes committed in the shared reservation
	CommitCalls    uint64 // commit calls issued for the shared reservation
	Used           uint64 // bytes between start and the cursor of this arena
	Capacity       uint64 // bytes between start and end of this arena
}

// Arena is a bump allocator over a region [start, end) of reserved address
// space. Pages are committed lazily as the cursor moves forward; moving it
// backward never decommits.
//
// An Arena is not safe for concurrent use. Arenas split from the same parent
// may be used on different goroutines.
type Arena struct {
	space *space
	start Offset
	next  Offset
	end   Offset
	root  bool

	// warm is one past the index of a granule this arena has seen
	// committed, or 0. Granules are never decommitted before release.
	warm uint32
}

// New reserves reserveSize bytes of address space and returns a root arena
// spanning all of it. Only the granule containing the start is committed.
func New(reserveSize int, opts ...Option) (*Arena, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s, err := newSpace(reserveSize, o)
	if err != nil {
		return nil, err
	}

	a := &Arena{space: s, end: Offset(s.size), root: true}
	if err := s.ensure(0, 1); err != nil {
		_ = s.release()
		return nil, err
	}
	a.warm = 1
	return a, nil
}

func checkAlignment(alignment int) (uint64, error) {
	if alignment == 0 {
		return DefaultAlignment, nil
	}
	if alignment < 0 || bits.OnesCount(uint(alignment)) != 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAlignment, alignment)
	}
	return uint64(alignment), nil
}

func alignForward(off Offset, alignment uint64) Offset {
	return Offset((uint64(off) + alignment - 1) &^ (alignment - 1))
}

// Begin returns the aligned offset the next allocation would start at.
func (a *Arena) Begin(alignment int) (Offset, error) {
	al, err := checkAlignment(alignment)
	if err != nil {
		return 0, err
	}
	return alignForward(a.next, al), nil
}

// Alloc reserves size bytes aligned to alignment and advances the cursor.
// The returned memory may hold bytes from earlier allocations that were popped.
func (a *Arena) Alloc(size, alignment int) (Offset, error) {
	return a.alloc("alloc", size, alignment)
}

func (a *Arena) alloc(op string, size, alignment int) (Offset, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	al, err := checkAlignment(alignment)
	if err != nil {
		return 0, err
	}
	if a.space.released.Load() {
		return 0, ErrReleased
	}

	astart := alignForward(a.next, al)
	n := uint64(size)
	if astart > a.end || n > uint64(a.end-astart) {
		return 0, &CapacityError{Op: op, Requested: n, Available: a.Remaining()}
	}

	newNext := astart + Offset(n)
	if n > 0 {
		last := a.space.granule(newNext - 1)
		if a.warm != last+1 || a.space.granule(astart) != last {
			if err := a.space.ensure(astart, newNext); err != nil {
				return 0, err
			}
			a.warm = last + 1
		}
	}
	a.next = newNext
	return astart, nil
}

// AllocZeroed is Alloc followed by zeroing the returned bytes.
func (a *Arena) AllocZeroed(size, alignment int) (Offset, error) {
	off, err := a.Alloc(size, alignment)
	if err != nil {
		return 0, err
	}
	clear(a.space.bytes(off, uint64(size)))
	return off, nil
}

// Split carves size bytes aligned to alignment off the front of the free
// space and returns them as an independent arena. The parent cursor moves
// past the child.
func (a *Arena) Split(size, alignment int) (*Arena, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	al, err := checkAlignment(alignment)
	if err != nil {
		return nil, err
	}
	if a.space.released.Load() {
		return nil, ErrReleased
	}

	astart := alignForward(a.next, al)
	n := uint64(size)
	if astart > a.end || n > uint64(a.end-astart) {
		return nil, &CapacityError{Op: "split", Requested: n, Available: a.Remaining()}
	}
	newNext := astart + Offset(n)

	// The child commits its own pages as it grows; the parent needs the
	// granule its cursor now points into.
	if a.space.granule(newNext) != a.space.granule(a.next) && uint64(newNext) < a.space.size {
		if err := a.space.ensure(newNext, newNext+1); err != nil {
			return nil, err
		}
		a.warm = a.space.granule(newNext) + 1
	}

	child := &Arena{space: a.space, start: astart, next: astart, end: newNext}
	a.next = newNext
	return child, nil
}

// PopSize moves the cursor back by n bytes and returns the new cursor.
func (a *Arena) PopSize(n int) (Offset, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	if uint64(n) > uint64(a.next-a.start) {
		var target Offset
		if uint64(n) <= uint64(a.next) {
			target = a.next - Offset(n)
		}
		return 0, &ReleaseError{Op: "pop", Target: target, Start: a.start, Next: a.next}
	}
	a.next -= Offset(n)
	return a.next, nil
}

// ShrinkTo moves the cursor back to off, which must lie in [Start, Next].
func (a *Arena) ShrinkTo(off Offset) error {
	return a.shrink("shrink", off)
}

// Free releases everything allocated at or after off.
func (a *Arena) Free(off Offset) error {
	return a.shrink("free", off)
}

func (a *Arena) shrink(op string, off Offset) error {
	if off < a.start || off > a.next {
		return &ReleaseError{Op: op, Target: off, Start: a.start, Next: a.next}
	}
	a.next = off
	return nil
}

// Clear resets the cursor to the start. Committed pages stay committed.
func (a *Arena) Clear() {
	a.next = a.start
}

// Bytes returns the n bytes at off. The range must lie inside [Start, Next);
// violations panic like an out-of-range slice index.
func (a *Arena) Bytes(off Offset, n int) []byte {
	if n < 0 {
		panic(fmt.Sprintf("arena: negative length %d", n))
	}
	a.checkLive(off, uint64(n))
	return a.space.bytes(off, uint64(n))
}

func (a *Arena) checkLive(off Offset, n uint64) {
	if n > uint64(^Offset(0)-off) || off < a.start || off+Offset(n) > a.next {
		panic(fmt.Sprintf("arena: range [%d, %d+%d) outside live range [%d, %d)", off, off, n, a.start, a.next))
	}
	if a.space.released.Load() {
		panic("arena: access after release")
	}
}

func (a *Arena) pointer(off Offset) unsafe.Pointer {
	return unsafe.Pointer(&a.space.data[off]) //nolint:gosec // arena memory is off-heap
}

// Start returns the first offset of the arena.
func (a *Arena) Start() Offset { return a.start }

// Next returns the cursor.
func (a *Arena) Next() Offset { return a.next }

// End returns the offset one past the last byte of the arena.
func (a *Arena) End() Offset { return a.end }

// Len returns the number of bytes in use.
func (a *Arena) Len() int { return int(a.next - a.start) } //nolint:gosec // bounded by reservation size

// Cap returns the size of the arena in bytes.
func (a *Arena) Cap() int { return int(a.end - a.start) } //nolint:gosec // bounded by reservation size

// Remaining returns the bytes between the cursor and the end.
func (a *Arena) Remaining() uint64 { return uint64(a.end - a.next) }

// IsRoot reports whether the arena owns its reservation.
func (a *Arena) IsRoot() bool { return a.root }

// Stats returns usage statistics.
func (a *Arena) Stats() Stats {
	return Stats{
		ReservedBytes:  a.space.size,
		CommittedBytes: a.space.committedBytes.Load(),
		CommitCalls:    a.space.commitCalls.Load(),
		Used:           uint64(a.next - a.start),
		Capacity:       uint64(a.end - a.start),
	}
}

func (a *Arena) String() string {
	st := a.Stats()
	return fmt.Sprintf(
		"Arena{range: [%d, %d), used: %.2f KB, reserved: %.2f MB, committed: %.2f MB, commits: %d}",
		a.start, a.end,
		float64(st.Used)/1024,
		float64(st.ReservedBytes)/(1024*1024),
		float64(st.CommittedBytes)/(1024*1024),
		st.CommitCalls,
	)
}

// Release unmaps the reservation. Every arena split from the root becomes
// unusable. Release is idempotent and only valid on the root arena.
func (a *Arena) Release() error {
	if !a.IsRoot() {
		return ErrNotRoot
	}
	return a.space.release()
}
