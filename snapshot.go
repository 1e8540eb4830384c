package broadphase

import (
	"context"
	"fmt"

	"github.com/hupe1980/broadphase/arena"
	"github.com/hupe1980/broadphase/bvh"
	"github.com/hupe1980/broadphase/persistence"
)

// Snapshot captures the tree and the entities. The node slice aliases arena
// memory and is valid until the world changes or closes.
func (w *World) Snapshot() *persistence.Snapshot {
	entities := w.entities.Items()
	spheres := make([]bvh.Sphere, len(entities))
	for i, e := range entities {
		spheres[i] = e.Sphere()
	}

	return &persistence.Snapshot{
		Nodes:     w.tree.Nodes(),
		Root:      w.tree.Root(),
		LeafCount: uint32(w.tree.LeafCount()), //nolint:gosec // bounded by MaxLeaves
		MaxLeaves: uint32(w.tree.MaxLeaves()), //nolint:gosec // checked in New
		Spheres:   spheres,
	}
}

// Save stores a snapshot of the world through m and returns its name.
func (w *World) Save(ctx context.Context, m *persistence.Manager) (string, error) {
	if w.isClosed() {
		return "", ErrClosed
	}

	name, err := m.Save(ctx, w.Snapshot())
	w.logger.LogSnapshot(ctx, name, w.Len(), err)
	return name, err
}

// Load rebuilds a world from the snapshot stored under name. The tree is
// restored node for node, so queries return results in the same order as
// in the saved world. An empty name loads the latest snapshot.
func Load(ctx context.Context, m *persistence.Manager, name string, optFns ...Option) (*World, error) {
	o := applyOptions(optFns)

	if name == "" {
		latest, err := m.Latest(ctx)
		if err != nil {
			return nil, err
		}
		name = latest
	}

	w, err := load(ctx, m, name, o)
	o.logger.LogLoad(ctx, name, worldLen(w), err)
	return w, err
}

func load(ctx context.Context, m *persistence.Manager, name string, o options) (*World, error) {
	snap, err := m.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := checkSnapshot(snap); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	w, err := newWorld(int(snap.MaxLeaves), o, func(root *arena.Arena) (*bvh.Tree, error) {
		return bvh.Restore(root, snap.Nodes, snap.Root, int(snap.LeafCount), int(snap.MaxLeaves))
	})
	if err != nil {
		return nil, err
	}

	for _, s := range snap.Spheres {
		if err := w.entities.Push(NewEntity(s.Center, s.Radius)); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return w, nil
}

// checkSnapshot verifies what bvh.Restore cannot: that every leaf refers to
// a stored entity, that each entity has exactly one leaf, and that each leaf
// holds the bounds of its entity's sphere.
func checkSnapshot(snap *persistence.Snapshot) error {
	if len(snap.Spheres) != int(snap.LeafCount) {
		return fmt.Errorf("%w: %d spheres for %d leaves", persistence.ErrCorruptSnapshot, len(snap.Spheres), snap.LeafCount)
	}
	if snap.LeafCount > snap.MaxLeaves {
		return fmt.Errorf("%w: %d leaves exceed capacity %d", persistence.ErrCorruptSnapshot, snap.LeafCount, snap.MaxLeaves)
	}

	seen := make([]bool, len(snap.Spheres))
	for i, n := range snap.Nodes {
		if i == 0 || !n.IsLeaf() {
			continue
		}
		if int64(n.ID) >= int64(len(seen)) || seen[n.ID] {
			return fmt.Errorf("%w: node %d: bad entity id %d", persistence.ErrCorruptSnapshot, i, n.ID)
		}
		seen[n.ID] = true

		if s := snap.Spheres[n.ID]; n.Bounds != bvh.AroundSphere(s.Center, s.Radius) {
			return fmt.Errorf("%w: node %d: bounds do not enclose entity %d", persistence.ErrCorruptSnapshot, i, n.ID)
		}
	}
	return nil
}

func worldLen(w *World) int {
	if w == nil {
		return 0
	}
	return w.Len()
}
