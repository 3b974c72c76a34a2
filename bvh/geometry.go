package bvh

import (
	"errors"
	"fmt"

	"github.com/achilleasa/meshbvh/types"
)

var (
	ErrInvalidInput = errors.New("bvh: invalid geometry")
)

// Geometry describes a triangle mesh. Positions hold 3 floats per vertex
// and the optional UVs 2 floats per vertex. When Indices is empty, triangle
// i uses vertices 3i, 3i+1 and 3i+2.
type Geometry struct {
	Positions []float32
	UVs       []float32
	Indices   []uint32
}

// Get the number of vertices.
func (g Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// Get the number of triangles.
func (g Geometry) TriangleCount() int {
	if len(g.Indices) != 0 {
		return len(g.Indices) / 3
	}
	return g.VertexCount() / 3
}

// Check whether the geometry is indexed.
func (g Geometry) Indexed() bool {
	return len(g.Indices) != 0
}

// Get the vertex indices for triangle tri.
func (g Geometry) Face(tri int) (a, b, c uint32) {
	if len(g.Indices) != 0 {
		return g.Indices[3*tri], g.Indices[3*tri+1], g.Indices[3*tri+2]
	}
	base := uint32(3 * tri)
	return base, base + 1, base + 2
}

// Get the position of a vertex.
func (g Geometry) Vertex(index uint32) types.Vec3 {
	o := 3 * index
	return types.Vec3{g.Positions[o], g.Positions[o+1], g.Positions[o+2]}
}

// Get the uv coordinates of a vertex.
func (g Geometry) UV(index uint32) types.Vec2 {
	o := 2 * index
	return types.Vec2{g.UVs[o], g.UVs[o+1]}
}

// Validate the geometry buffers.
func (g Geometry) Validate() error {
	if len(g.Positions)%3 != 0 {
		return fmt.Errorf("%w: position count %d is not a multiple of 3", ErrInvalidInput, len(g.Positions))
	}

	vertexCount := g.VertexCount()
	if len(g.UVs) != 0 && len(g.UVs) != 2*vertexCount {
		return fmt.Errorf("%w: expected %d uv coordinates for %d vertices; got %d", ErrInvalidInput, 2*vertexCount, vertexCount, len(g.UVs))
	}

	if len(g.Indices) == 0 {
		if vertexCount%3 != 0 {
			return fmt.Errorf("%w: non-indexed vertex count %d is not a multiple of 3", ErrInvalidInput, vertexCount)
		}
		return nil
	}

	if len(g.Indices)%3 != 0 {
		return fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidInput, len(g.Indices))
	}
	for i, index := range g.Indices {
		if int(index) >= vertexCount {
			return fmt.Errorf("%w: index %d at position %d is out of range [0, %d)", ErrInvalidInput, index, i, vertexCount)
		}
	}

	return nil
}

// Calculate the interleaved per-axis bounds ([xmin, xmax, ymin, ymax, zmin,
// zmax]) and the centroid of every triangle.
func computeTriangleData(geo *Geometry) (bounds, centroids []float32) {
	triCount := geo.TriangleCount()
	bounds = make([]float32, 6*triCount)
	centroids = make([]float32, 3*triCount)

	pos := geo.Positions
	for tri := 0; tri < triCount; tri++ {
		ia, ib, ic := geo.Face(tri)
		a, b, c := 3*ia, 3*ib, 3*ic
		for axis := uint32(0); axis < 3; axis++ {
			va, vb, vc := pos[a+axis], pos[b+axis], pos[c+axis]

			min, max := va, va
			if vb < min {
				min = vb
			}
			if vc < min {
				min = vc
			}
			if vb > max {
				max = vb
			}
			if vc > max {
				max = vc
			}

			bounds[6*tri+2*int(axis)] = min
			bounds[6*tri+2*int(axis)+1] = max
			centroids[3*tri+int(axis)] = (va + vb + vc) / 3
		}
	}

	return bounds, centroids
}
