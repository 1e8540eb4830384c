// Package bvh implements a dynamic bounding volume hierarchy over AABBs.
//
// Leaves are grafted into the tree one at a time. The insertion point is
// chosen with a surface-area heuristic: descending from the root, the box is
// pushed into the child whose enlargement costs least, until placing a new
// parent at the current node is cheaper than descending further. After each
// insertion every ancestor's bounds are recomputed, so an internal node always
// bounds exactly the merge of its two children.
//
// Nodes are stored in an arena.Buffer and linked by index; index 0 is a
// zeroed sentinel meaning "none". The tree only grows: there is no removal
// and no rebalancing.
//
//	root, _ := arena.New(1 << 30)
//	tree, _ := bvh.New(root, 1024)
//	_, _ = tree.Insert(0, bvh.AroundSphere(bvh.Vector{}, 1))
//
//	scratch, _ := root.Split(1<<20, 8)
//	hits, _ := tree.Query(scratch, bvh.NewAABB(bvh.Vector{}, bvh.Vector{X: 2, Y: 2, Z: 2}))
//	for _, id := range hits.Items() { ... }
package bvh
