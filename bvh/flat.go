package bvh

import (
	"errors"
	"fmt"

	"github.com/achilleasa/meshbvh/types"
)

var (
	ErrInvalidTree = errors.New("bvh: invalid flattened tree")
)

// FlatNode is the array encoding of a tree node. Bvh nodes are comprised of
// two Vec3 and two multipurpose int32 parameters whose value depends on the
// node type:
//
// - For internal nodes they are both >0 and point to the L/R child nodes
// - For leaves, LData is <= 0 and holds the negated offset of the first
// triangle and RData holds the triangle count
//
// Axis holds the split axis of internal nodes and NoAxis for leaves.
type FlatNode struct {
	Min   types.Vec3
	LData int32

	Max   types.Vec3
	RData int32

	Axis types.Axis
}

// Check whether the node is a leaf.
func (n *FlatNode) IsLeaf() bool {
	return n.Axis == types.NoAxis
}

// Set left and right child node indices.
func (n *FlatNode) SetChildNodes(left, right uint32) {
	n.LData = int32(left)
	n.RData = int32(right)
}

// Set triangle offset and count.
func (n *FlatNode) SetTriangles(offset, count uint32) {
	n.LData = -int32(offset)
	n.RData = int32(count)
}

// Encode a tree as a pre-order node list. The root is stored at index 0.
func Flatten(root Node) []FlatNode {
	if root == nil {
		return nil
	}

	nodes := make([]FlatNode, 0)
	var flatten func(n Node) uint32
	flatten = func(n Node) uint32 {
		index := uint32(len(nodes))
		box := n.BBox()
		nodes = append(nodes, FlatNode{Min: box[0], Max: box[1]})

		switch node := n.(type) {
		case *Leaf:
			nodes[index].Axis = types.NoAxis
			nodes[index].SetTriangles(node.Offset, node.Count)
		case *Internal:
			nodes[index].Axis = node.SplitAxis
			left := flatten(node.Left)
			right := flatten(node.Right)
			nodes[index].SetChildNodes(left, right)
		}
		return index
	}
	flatten(root)

	return nodes
}

// Decode a node list produced by Flatten. Child references must point
// forward and leaf ranges must fit in triCount triangles.
func Unflatten(nodes []FlatNode, triCount int) (Node, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: empty node list", ErrInvalidTree)
	}

	var unflatten func(index int) (Node, error)
	unflatten = func(index int) (Node, error) {
		fn := &nodes[index]
		box := types.BBox{fn.Min, fn.Max}

		if fn.IsLeaf() {
			offset, count := -int64(fn.LData), int64(fn.RData)
			if offset < 0 || count < 0 || offset+count > int64(triCount) {
				return nil, fmt.Errorf("%w: leaf %d range [%d, %d) exceeds %d triangles", ErrInvalidTree, index, offset, offset+count, triCount)
			}
			return &Leaf{Box: box, Offset: uint32(offset), Count: uint32(count)}, nil
		}

		if fn.Axis < types.XAxis || fn.Axis > types.ZAxis {
			return nil, fmt.Errorf("%w: node %d has invalid split axis %d", ErrInvalidTree, index, fn.Axis)
		}
		left, right := int(fn.LData), int(fn.RData)
		if left <= index || right <= index || left >= len(nodes) || right >= len(nodes) {
			return nil, fmt.Errorf("%w: node %d has invalid children (%d, %d)", ErrInvalidTree, index, left, right)
		}

		leftNode, err := unflatten(left)
		if err != nil {
			return nil, err
		}
		rightNode, err := unflatten(right)
		if err != nil {
			return nil, err
		}
		return &Internal{Box: box, SplitAxis: fn.Axis, Left: leftNode, Right: rightNode}, nil
	}

	return unflatten(0)
}
