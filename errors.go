package broadphase

import (
	"errors"
	"fmt"

	"github.com/hupe1980/broadphase/arena"
	"github.com/hupe1980/broadphase/bvh"
	"github.com/hupe1980/broadphase/persistence"
)

var (
	// ErrUnknownEntity is returned for an id that was never added.
	ErrUnknownEntity = errors.New("broadphase: unknown entity")

	// ErrClosed is returned when a closed World is used.
	ErrClosed = errors.New("broadphase: world is closed")
)

// Re-exported so callers can match failures without importing the lower
// layers.
var (
	ErrCapacityExceeded   = arena.ErrCapacityExceeded
	ErrInvalidRelease     = arena.ErrInvalidRelease
	ErrReservationFailure = arena.ErrReservationFailure
	ErrInvalidAlignment   = arena.ErrInvalidAlignment
	ErrInvalidAABB        = bvh.ErrInvalidAABB
	ErrCorrupt            = bvh.ErrCorrupt
	ErrCorruptSnapshot    = persistence.ErrCorruptSnapshot
)

// UnknownEntityError reports an id outside [0, Len).
type UnknownEntityError struct {
	ID  uint32
	Len int
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("broadphase: unknown entity %d (world has %d)", e.ID, e.Len)
}

func (e *UnknownEntityError) Unwrap() error { return ErrUnknownEntity }
