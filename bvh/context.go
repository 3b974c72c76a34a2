package bvh

import (
	"math"

	"github.com/achilleasa/meshbvh/types"
)

// A split plane candidate used by the surface area heuristic.
type splitPlane struct {
	pos float32
	tri uint32
}

// buildContext owns the state shared by every step of a single build: the
// triangle permutation, the precomputed triangle bounds and centroids and,
// for SAH builds, the split plane scratch buffers.
type buildContext struct {
	geo       *Geometry
	bounds    []float32
	centroids []float32
	tris      []uint32

	// Per-axis SAH candidates; nil unless the SAH strategy is selected.
	planes [3][]splitPlane
}

func newBuildContext(geo *Geometry, strategy Strategy) *buildContext {
	ctx := &buildContext{geo: geo}
	ctx.bounds, ctx.centroids = computeTriangleData(geo)

	triCount := geo.TriangleCount()
	ctx.tris = make([]uint32, triCount)
	for i := range ctx.tris {
		ctx.tris[i] = uint32(i)
	}

	if strategy == SAH {
		for axis := range ctx.planes {
			ctx.planes[axis] = make([]splitPlane, triCount)
		}
	}

	return ctx
}

// Calculate the union of the bounds of the triangles in [offset, offset+count).
func (ctx *buildContext) boundsOf(offset, count int) types.BBox {
	minX, minY, minZ := float32(math.MaxFloat32), float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY, maxZ := float32(-math.MaxFloat32), float32(-math.MaxFloat32), float32(-math.MaxFloat32)

	for _, tri := range ctx.tris[offset : offset+count] {
		b := ctx.bounds[6*tri : 6*tri+6]
		minX = min32(minX, b[0])
		maxX = max32(maxX, b[1])
		minY = min32(minY, b[2])
		maxY = max32(maxY, b[3])
		minZ = min32(minZ, b[4])
		maxZ = max32(maxZ, b[5])
	}

	return types.BBox{
		{minX, minY, minZ},
		{maxX, maxY, maxZ},
	}
}

// Calculate the mean centroid coordinate along axis of the triangles in
// [offset, offset+count).
func (ctx *buildContext) averageOf(offset, count int, axis types.Axis) float32 {
	if count == 0 {
		return 0
	}

	var sum float32
	for _, tri := range ctx.tris[offset : offset+count] {
		sum += ctx.centroids[3*tri+uint32(axis)]
	}
	return sum / float32(count)
}

// Reorder the triangles in [offset, offset+count) so that those whose
// centroid lies below pos on axis come first. Returns the index of the first
// triangle on the right side; offset or offset+count mean that all triangles
// ended up on the same side.
func (ctx *buildContext) partition(offset, count int, axis types.Axis, pos float32) int {
	tris := ctx.tris
	centroids := ctx.centroids
	a := uint32(axis)

	left := offset
	right := offset + count - 1
	for {
		for left <= right && centroids[3*tris[left]+a] < pos {
			left++
		}
		for left <= right && centroids[3*tris[right]+a] >= pos {
			right--
		}

		if left >= right {
			return left
		}

		tris[left], tris[right] = tris[right], tris[left]
		left++
		right--
	}
}

// Copy the vertex triples of the permuted triangles in [offset,
// offset+count) into the matching slots of target.
func (ctx *buildContext) writeIndices(offset, count int, target IndexBuffer) {
	for i := offset; i < offset+count; i++ {
		a, b, c := ctx.geo.Face(int(ctx.tris[i]))
		target.set(3*i, a)
		target.set(3*i+1, b)
		target.set(3*i+2, c)
	}
}

func min32(a, b float32) float32 {
	if b < a {
		return b
	}
	return a
}

func max32(a, b float32) float32 {
	if b > a {
		return b
	}
	return a
}
