package bvh

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/broadphase/arena"
	"github.com/hupe1980/broadphase/internal/conv"
)

// Tree is a dynamic bounding volume hierarchy built by incremental insertion.
//
// Nodes live in an arena buffer sized for maxLeaves leaves at creation time;
// the tree never relocates them. Index 0 holds a zeroed sentinel.
//
// Insert and Query mutate tree-owned state and must not run concurrently.
// Concurrent read-only traversals are possible through QueryWith with one
// stack per goroutine.
type Tree struct {
	nodes     *arena.Buffer[Node]
	stack     *arena.Buffer[uint32]
	root      uint32
	leafCount int
	maxLeaves int
}

const nodeSize = uint64(unsafe.Sizeof(Node{}))

func nodeCapacity(maxLeaves int) int {
	// n leaves need 2n-1 nodes plus the sentinel.
	return max(2*maxLeaves, 1)
}

// New creates an empty tree for up to maxLeaves leaves. The node array and
// the traversal stack are split from parent.
func New(parent *arena.Arena, maxLeaves int) (*Tree, error) {
	if maxLeaves < 0 {
		return nil, fmt.Errorf("%w: max leaves %d", arena.ErrInvalidSize, maxLeaves)
	}

	capacity := nodeCapacity(maxLeaves)
	if _, err := conv.IntToUint32(capacity); err != nil {
		return nil, fmt.Errorf("%w: max leaves %d: %w", arena.ErrInvalidSize, maxLeaves, err)
	}
	nodes, err := arena.SplitOff[Node](parent, capacity)
	if err != nil {
		return nil, fmt.Errorf("bvh: node array: %w", err)
	}
	stack, err := arena.SplitOff[uint32](parent, capacity)
	if err != nil {
		return nil, fmt.Errorf("bvh: traversal stack: %w", err)
	}

	if err := nodes.Push(Node{}); err != nil {
		return nil, err
	}

	return &Tree{nodes: nodes, stack: stack, maxLeaves: maxLeaves}, nil
}

// NewStack splits a traversal stack large enough for any query on t.
func (t *Tree) NewStack(parent *arena.Arena) (*arena.Buffer[uint32], error) {
	return arena.SplitOff[uint32](parent, t.nodes.Cap())
}

// Insert adds a leaf for id with the given bounds and returns its node index.
func (t *Tree) Insert(id uint32, box AABB) (uint32, error) {
	if !box.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAABB, box)
	}

	need := 2
	if t.root == 0 {
		need = 1
	}
	if free := t.nodes.Cap() - t.nodes.Len(); free < need {
		return 0, &arena.CapacityError{
			Op:        "insert",
			Requested: uint64(need) * nodeSize,
			Available: uint64(free) * nodeSize,
		}
	}

	leaf := t.index()
	_ = t.nodes.Push(Node{Bounds: box, ID: id})
	t.leafCount++

	if t.root == 0 {
		t.root = leaf
		return leaf, nil
	}

	sibling := t.findSibling(box)
	oldParent := t.nodes.At(int(sibling)).Parent

	parent := t.index()
	_ = t.nodes.Push(Node{
		Bounds: box.Merge(t.nodes.At(int(sibling)).Bounds),
		Parent: oldParent,
		Left:   sibling,
		Right:  leaf,
	})

	t.nodes.Ptr(int(leaf)).Parent = parent
	t.nodes.Ptr(int(sibling)).Parent = parent

	switch p := t.nodes.Ptr(int(oldParent)); {
	case oldParent == 0:
		t.root = parent
	case p.Left == sibling:
		p.Left = parent
	default:
		p.Right = parent
	}

	t.fixUpwards(parent)
	return leaf, nil
}

func (t *Tree) index() uint32 {
	return uint32(t.nodes.Len()) //nolint:gosec // bounded by node capacity
}

// findSibling descends from the root choosing the child with the lower
// surface-area cost until creating a new parent at the current node is
// cheaper than pushing the box further down.
func (t *Tree) findSibling(box AABB) uint32 {
	nodes := t.nodes.Items()
	current := t.root

	for {
		n := &nodes[current]
		if n.IsLeaf() {
			return current
		}
		left, right := &nodes[n.Left], &nodes[n.Right]

		newParentCost := box.Merge(n.Bounds).SurfaceArea()
		pushdownCost := 2 * (newParentCost - n.Bounds.SurfaceArea())

		costLeft := pushdownCost + box.Merge(left.Bounds).SurfaceArea()
		costRight := pushdownCost + box.Merge(right.Bounds).SurfaceArea()

		if !left.IsLeaf() {
			costLeft -= left.Bounds.SurfaceArea()
		}
		if !right.IsLeaf() {
			costRight -= right.Bounds.SurfaceArea()
		}

		if newParentCost < costLeft && newParentCost < costRight {
			return current
		}

		if costLeft <= costRight {
			current = n.Left
		} else {
			current = n.Right
		}
	}
}

// fixUpwards recomputes bounds from idx up to the root.
func (t *Tree) fixUpwards(idx uint32) {
	nodes := t.nodes.Items()
	for idx != 0 {
		n := &nodes[idx]
		n.Bounds = nodes[n.Left].Bounds.Merge(nodes[n.Right].Bounds)
		idx = n.Parent
	}
}

// Root returns the index of the root node, 0 if the tree is empty.
func (t *Tree) Root() uint32 { return t.root }

// LeafCount returns the number of inserted leaves.
func (t *Tree) LeafCount() int { return t.leafCount }

// MaxLeaves returns the leaf capacity the tree was created with.
func (t *Tree) MaxLeaves() int { return t.maxLeaves }

// NodeCount returns the number of nodes, not counting the sentinel.
func (t *Tree) NodeCount() int { return t.nodes.Len() - 1 }

// Node returns the node at index i. It panics if i is out of range.
func (t *Tree) Node(i uint32) Node { return t.nodes.At(int(i)) }

// Nodes returns the node array including the sentinel at index 0.
// The slice aliases arena memory.
func (t *Tree) Nodes() []Node { return t.nodes.Items() }

// Bounds returns the bounds of the whole tree, the zero box if it is empty.
func (t *Tree) Bounds() AABB {
	if t.root == 0 {
		return AABB{}
	}
	return t.nodes.At(int(t.root)).Bounds
}

// Cost returns the sum of the surface areas of all internal nodes.
func (t *Tree) Cost() float64 {
	var cost float64
	for i, n := range t.nodes.Items() {
		if i != 0 && !n.IsLeaf() {
			cost += float64(n.Bounds.SurfaceArea())
		}
	}
	return cost
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if t.root == 0 {
		return 0
	}

	type entry struct {
		idx   uint32
		depth int
	}

	nodes := t.nodes.Items()
	deepest := 0
	pending := []entry{{t.root, 1}}
	for len(pending) > 0 {
		e := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		n := &nodes[e.idx]
		if n.IsLeaf() {
			deepest = max(deepest, e.depth)
			continue
		}
		pending = append(pending, entry{n.Left, e.depth + 1}, entry{n.Right, e.depth + 1})
	}
	return deepest
}
