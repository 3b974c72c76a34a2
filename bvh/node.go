package bvh

import "github.com/achilleasa/meshbvh/types"

// Node is either an *Internal or a *Leaf.
type Node interface {
	BBox() types.BBox
	isNode()
}

// Internal is a node with exactly two children.
type Internal struct {
	Box       types.BBox
	SplitAxis types.Axis
	Left      Node
	Right     Node
}

// Leaf references a contiguous run of triangles in the reordered index
// buffer. Offset and Count are measured in triangles.
type Leaf struct {
	Box    types.BBox
	Offset uint32
	Count  uint32
}

func (n *Internal) BBox() types.BBox { return n.Box }
func (n *Leaf) BBox() types.BBox     { return n.Box }

func (*Internal) isNode() {}
func (*Leaf) isNode()     {}
