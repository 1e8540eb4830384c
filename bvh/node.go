package bvh

// Node is a tree node. Parent, Left and Right are indices into the node
// array; 0 is the sentinel and means "none".
type Node struct {
	Bounds AABB
	Parent uint32
	Left   uint32
	Right  uint32
	ID     uint32 // entity identifier, meaningful for leaves only
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == 0 || n.Right == 0
}
