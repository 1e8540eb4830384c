package arena

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned when an allocation, split or push does not
	// fit between the cursor and the end of the arena.
	ErrCapacityExceeded = errors.New("arena: capacity exceeded")
	// ErrInvalidRelease is returned when a pop, shrink or finish would move the
	// cursor outside the live range of the arena.
	ErrInvalidRelease = errors.New("arena: invalid release")
	// ErrReservationFailure is returned when address space cannot be reserved
	// or pages cannot be committed.
	ErrReservationFailure = errors.New("arena: reservation failure")
	// ErrInvalidAlignment is returned for alignments that are not a power of two.
	ErrInvalidAlignment = errors.New("arena: alignment must be a power of two")
	// ErrInvalidSize is returned for negative sizes and zero-sized element types.
	ErrInvalidSize = errors.New("arena: invalid size")
	// ErrNotRoot is returned when Release is called on a split arena.
	ErrNotRoot = errors.New("arena: not a root arena")
	// ErrReleased is returned when the reservation backing an arena is gone.
	ErrReleased = errors.New("arena: released")
)

// CapacityError reports an allocation that did not fit.
type CapacityError struct {
	Op        string
	Requested uint64
	Available uint64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("arena: %s of %d bytes exceeds remaining capacity of %d bytes", e.Op, e.Requested, e.Available)
}

// Unwrap returns ErrCapacityExceeded.
func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// ReleaseError reports a cursor move outside [start, next].
type ReleaseError struct {
	Op     string
	Target Offset
	Start  Offset
	Next   Offset
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("arena: %s to %d outside live range [%d, %d]", e.Op, e.Target, e.Start, e.Next)
}

// Unwrap returns ErrInvalidRelease.
func (e *ReleaseError) Unwrap() error {
	return ErrInvalidRelease
}
