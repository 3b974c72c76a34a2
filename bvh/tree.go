package bvh

import (
	"github.com/achilleasa/meshbvh/types"
	"github.com/go-gl/mathgl/mgl32"
)

// Raycaster is implemented by objects that answer ray queries in mesh local
// space.
type Raycaster interface {
	RaycastAll(ray Ray, near, far float32, side Side) []Hit
	RaycastFirst(ray Ray, near, far float32, side Side) (Hit, bool)
}

// Tree is an immutable BVH over a triangle mesh. It owns the node graph and
// the reordered index buffer and references the caller's position and uv
// buffers. A tree may be queried concurrently once SetMatrixWorld (if
// needed) has been called.
type Tree struct {
	root    Node
	geo     Geometry
	indices IndexBuffer

	hasMatrix   bool
	matrixWorld mgl32.Mat4
	inverse     mgl32.Mat4

	stats Stats
}

// Create a tree from a previously built node graph and its reordered index
// buffer. The geometry Indices field is ignored.
func NewTree(geo Geometry, root Node, indices IndexBuffer) *Tree {
	geo.Indices = nil
	t := &Tree{
		root:        root,
		geo:         geo,
		indices:     indices,
		matrixWorld: mgl32.Ident4(),
		inverse:     mgl32.Ident4(),
	}
	t.stats = collectStats(root, indices.Len()/3, indices.Width())
	return t
}

// Get the tree root.
func (t *Tree) Root() Node {
	return t.root
}

// Get the reordered index buffer.
func (t *Tree) Indices() IndexBuffer {
	return t.indices
}

// Get the geometry with its indices replaced by the reordered buffer.
func (t *Tree) Geometry() Geometry {
	geo := t.geo
	geo.Indices = t.indices.Uint32()
	return geo
}

// Get the mesh bounding box.
func (t *Tree) BBox() types.BBox {
	return t.root.BBox()
}

// Get the tree stats.
func (t *Tree) Stats() Stats {
	return t.stats
}

// Set the mesh to world transform. Once set, hit points are reported in
// world space and hit distances as well as the near/far clip are measured
// in world space.
func (t *Tree) SetMatrixWorld(m mgl32.Mat4) {
	t.matrixWorld = m
	t.inverse = m.Inv()
	t.hasMatrix = m != mgl32.Ident4()
}

// Get the mesh to world transform.
func (t *Tree) MatrixWorld() mgl32.Mat4 {
	return t.matrixWorld
}

// Convert a world space ray into mesh local space.
func (t *Tree) LocalRay(worldRay Ray) Ray {
	if !t.hasMatrix {
		return worldRay
	}
	return worldRay.Transform(t.inverse)
}
