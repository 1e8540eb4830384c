package bvh

import (
	"github.com/hupe1980/broadphase/arena"
)

// Query returns the identifiers of all leaves whose bounds intersect box.
//
// The result buffer is split from out with room for every leaf and finished
// into out before returning, so out's cursor sits right after the last
// identifier. The traversal stack is owned by the tree.
func (t *Tree) Query(out *arena.Arena, box AABB) (*arena.Buffer[uint32], error) {
	return t.QueryWith(t.stack, out, box)
}

// QueryWith is Query with a caller-owned traversal stack. Goroutines that each
// own a stack and an out arena may query the same tree concurrently as long
// as nothing inserts meanwhile.
func (t *Tree) QueryWith(stack *arena.Buffer[uint32], out *arena.Arena, box AABB) (*arena.Buffer[uint32], error) {
	result, err := arena.SplitOff[uint32](out, t.leafCount)
	if err != nil {
		return nil, err
	}

	var pushErr error
	err = t.walk(stack, box, func(id uint32) bool {
		pushErr = result.Push(id)
		return pushErr == nil
	})
	if err != nil {
		return nil, err
	}
	if pushErr != nil {
		return nil, pushErr
	}

	if err := result.Finish(out); err != nil {
		return nil, err
	}
	return result, nil
}

// Visit calls fn for every leaf whose bounds intersect box, stopping early
// when fn returns false.
func (t *Tree) Visit(box AABB, fn func(id uint32) bool) error {
	return t.walk(t.stack, box, fn)
}

// walk is a depth-first traversal with an explicit stack. Children are pushed
// right then left so the left subtree is visited first.
func (t *Tree) walk(stack *arena.Buffer[uint32], box AABB, fn func(id uint32) bool) error {
	if t.root == 0 {
		return nil
	}

	stack.Reset()
	defer stack.Reset()

	if err := stack.Push(t.root); err != nil {
		return err
	}

	nodes := t.nodes.Items()
	for stack.Len() > 0 {
		idx, err := stack.Pop()
		if err != nil {
			return err
		}

		n := &nodes[idx]
		if !n.Bounds.Intersects(box) {
			continue
		}

		if n.IsLeaf() {
			if !fn(n.ID) {
				return nil
			}
			continue
		}

		if err := stack.Push(n.Right); err != nil {
			return err
		}
		if err := stack.Push(n.Left); err != nil {
			return err
		}
	}
	return nil
}
