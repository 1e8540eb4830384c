package bvh

import (
	"fmt"

	"github.com/hupe1980/broadphase/arena"
)

// Validate checks the structural invariants of the tree:
//   - the sentinel is zeroed
//   - every node is reachable from the root exactly once
//   - parent and child links agree
//   - every internal node's bounds equal the merge of its children's bounds
//   - every leaf lies within the root bounds
func (t *Tree) Validate() error {
	nodes := t.nodes.Items()

	if nodes[0] != (Node{}) {
		return fmt.Errorf("%w: sentinel is not zero", ErrCorrupt)
	}
	if t.root == 0 {
		if len(nodes) != 1 || t.leafCount != 0 {
			return fmt.Errorf("%w: empty tree with %d nodes and %d leaves", ErrCorrupt, len(nodes)-1, t.leafCount)
		}
		return nil
	}
	if int(t.root) >= len(nodes) {
		return fmt.Errorf("%w: root %d out of range", ErrCorrupt, t.root)
	}
	if nodes[t.root].Parent != 0 {
		return fmt.Errorf("%w: node %d: root has parent %d", ErrCorrupt, t.root, nodes[t.root].Parent)
	}

	rootBounds := nodes[t.root].Bounds
	seen := make([]bool, len(nodes))
	leaves := 0

	pending := []uint32{t.root}
	for len(pending) > 0 {
		idx := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if seen[idx] {
			return fmt.Errorf("%w: node %d: reached twice", ErrCorrupt, idx)
		}
		seen[idx] = true

		n := nodes[idx]
		if n.IsLeaf() {
			if n.Left != 0 || n.Right != 0 {
				return fmt.Errorf("%w: node %d: one child only", ErrCorrupt, idx)
			}
			if !rootBounds.Contains(n.Bounds) {
				return fmt.Errorf("%w: node %d: leaf outside root bounds", ErrCorrupt, idx)
			}
			leaves++
			continue
		}

		for _, c := range [2]uint32{n.Left, n.Right} {
			if int(c) >= len(nodes) {
				return fmt.Errorf("%w: node %d: child %d out of range", ErrCorrupt, idx, c)
			}
			if nodes[c].Parent != idx {
				return fmt.Errorf("%w: node %d: child %d points to parent %d", ErrCorrupt, idx, c, nodes[c].Parent)
			}
		}
		if want := nodes[n.Left].Bounds.Merge(nodes[n.Right].Bounds); n.Bounds != want {
			return fmt.Errorf("%w: node %d: bounds %v, children merge to %v", ErrCorrupt, idx, n.Bounds, want)
		}
		pending = append(pending, n.Left, n.Right)
	}

	for i := 1; i < len(nodes); i++ {
		if !seen[i] {
			return fmt.Errorf("%w: node %d: unreachable", ErrCorrupt, i)
		}
	}
	if leaves != t.leafCount {
		return fmt.Errorf("%w: %d reachable leaves, expected %d", ErrCorrupt, leaves, t.leafCount)
	}
	return nil
}

// Restore rebuilds a tree from a node array (sentinel included) captured with
// Nodes. The nodes are copied into a fresh node buffer split from parent and
// the result is validated.
func Restore(parent *arena.Arena, nodes []Node, root uint32, leafCount, maxLeaves int) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: missing sentinel", ErrCorrupt)
	}

	t, err := New(parent, maxLeaves)
	if err != nil {
		return nil, err
	}
	if len(nodes) > t.nodes.Cap() {
		return nil, &arena.CapacityError{
			Op:        "restore",
			Requested: uint64(len(nodes)) * nodeSize,
			Available: uint64(t.nodes.Cap()) * nodeSize,
		}
	}

	t.nodes.Set(0, nodes[0])
	for _, n := range nodes[1:] {
		if err := t.nodes.Push(n); err != nil {
			return nil, err
		}
	}
	t.root = root
	t.leafCount = leafCount

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
