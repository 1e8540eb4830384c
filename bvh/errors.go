package bvh

import "errors"

var (
	// ErrInvalidAABB is returned when a box has Min > Max on some axis.
	ErrInvalidAABB = errors.New("bvh: invalid aabb")
	// ErrCorrupt is returned when the tree structure violates an invariant.
	ErrCorrupt = errors.New("bvh: corrupt tree")
)
