package broadphase

import (
	"bufio"
	"fmt"
	"io"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// Report is the result of a collision pass. It holds Go memory only and
// stays valid after the world is closed.
type Report struct {
	// Entities is a copy of the world's entities, indexed by id.
	Entities []Entity
	// Collisions lists, per entity, the ids it collides with in traversal
	// order.
	Collisions [][]uint32
	// Pairs is the number of unordered colliding pairs.
	Pairs int
	// Colliding holds the ids that collide with at least one other entity.
	Colliding *roaring.Bitmap
}

func newReport(entities []Entity, collisions [][]uint32) *Report {
	r := &Report{
		Entities:   slices.Clone(entities),
		Collisions: collisions,
		Colliding:  roaring.New(),
	}
	for id, ids := range collisions {
		if len(ids) > 0 {
			r.Colliding.Add(uint32(id)) //nolint:gosec // ids are uint32 by construction
		}
		for _, other := range ids {
			if uint32(id) < other { //nolint:gosec // same as above
				r.Pairs++
			}
		}
	}
	return r
}

// CollisionsOf returns the collisions of id, nil if id is out of range.
func (r *Report) CollisionsOf(id uint32) []uint32 {
	if int64(id) >= int64(len(r.Collisions)) {
		return nil
	}
	return r.Collisions[id]
}

// WriteTo prints one block per entity:
//
//	Entity 3 at (0.100000 -0.200000 0.300000) with radius 0.150000 collides with:
//		7, 12,
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64

	write := func(format string, args ...any) error {
		n, err := fmt.Fprintf(bw, format, args...)
		total += int64(n)
		return err
	}

	for i, e := range r.Entities {
		if err := write("Entity %d at (%f %f %f) with radius %f collides with:\n\t",
			i, e.Position.X, e.Position.Y, e.Position.Z, e.Radius); err != nil {
			return total, err
		}
		for _, id := range r.CollisionsOf(uint32(i)) { //nolint:gosec // i < len(Entities)
			if err := write("%d, ", id); err != nil {
				return total, err
			}
		}
		if err := write("\n"); err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}
