package bvh

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/achilleasa/meshbvh/types"
)

var allStrategies = []Strategy{Center, Average, SAH}

// An axis aligned cube spanning [-1, 1] on every axis with outward facing
// counter clockwise triangles.
func cubeGeometry() Geometry {
	positions := make([]float32, 0, 24)
	for corner := 0; corner < 8; corner++ {
		x, y, z := float32(-1), float32(-1), float32(-1)
		if corner&1 != 0 {
			x = 1
		}
		if corner&2 != 0 {
			y = 1
		}
		if corner&4 != 0 {
			z = 1
		}
		positions = append(positions, x, y, z)
	}

	return Geometry{
		Positions: positions,
		Indices: []uint32{
			4, 5, 7, 4, 7, 6, // +z
			0, 2, 3, 0, 3, 1, // -z
			1, 3, 7, 1, 7, 5, // +x
			0, 4, 6, 0, 6, 2, // -x
			2, 6, 7, 2, 7, 3, // +y
			0, 1, 5, 0, 5, 4, // -y
		},
	}
}

// A soup of random non-indexed triangles inside [-10, 10]^3.
func randomGeometry(seed int64, triCount int) Geometry {
	rng := rand.New(rand.NewSource(seed))
	positions := make([]float32, 0, 9*triCount)
	for tri := 0; tri < triCount; tri++ {
		center := types.XYZ(
			rng.Float32()*20-10,
			rng.Float32()*20-10,
			rng.Float32()*20-10,
		)
		for v := 0; v < 3; v++ {
			positions = append(positions,
				center[0]+rng.Float32()*2-1,
				center[1]+rng.Float32()*2-1,
				center[2]+rng.Float32()*2-1,
			)
		}
	}
	return Geometry{Positions: positions}
}

func randomRay(rng *rand.Rand) Ray {
	origin := types.XYZ(rng.Float32()*30-15, rng.Float32()*30-15, rng.Float32()*30-15)
	target := types.XYZ(rng.Float32()*16-8, rng.Float32()*16-8, rng.Float32()*16-8)
	return Ray{Origin: origin, Direction: target.Sub(origin).Normalize()}
}

func mustBuild(t *testing.T, geo Geometry, opts Options) *Tree {
	t.Helper()
	opts.Verbose = false
	tree, err := Build(geo, opts)
	if err != nil {
		t.Fatalf("expected build to succeed; got %v", err)
	}
	return tree
}

// Intersect every triangle of the tree without using the hierarchy.
func bruteForce(tree *Tree, ray Ray, near, far float32, side Side) []Hit {
	q := tree.newQuery(ray, near, far, side)
	var hits []Hit
	for tri := 0; tri < tree.indices.Len()/3; tri++ {
		if hit, ok := q.intersect(uint32(tri)); ok {
			hits = append(hits, hit)
		}
	}
	return hits
}

// Calculate the tight bounds of the triangles in [offset, offset+count) of
// the reordered index buffer.
func tightBounds(tree *Tree, offset, count uint32) types.BBox {
	box := types.EmptyBBox()
	for i := 3 * offset; i < 3*(offset+count); i++ {
		box = box.Extend(tree.geo.Vertex(tree.indices.At(int(i))))
	}
	return box
}

// Get the triangle range [offset, offset+count) covered by a sub-tree.
func nodeRange(n Node) (offset, count uint32, ok bool) {
	switch node := n.(type) {
	case *Leaf:
		return node.Offset, node.Count, true
	case *Internal:
		lo, lc, lok := nodeRange(node.Left)
		ro, rc, rok := nodeRange(node.Right)
		if !lok || !rok || lo+lc != ro {
			return 0, 0, false
		}
		return lo, lc + rc, true
	}
	return 0, 0, false
}

func sortedFaces(indices []uint32) [][3]uint32 {
	faces := make([][3]uint32, 0, len(indices)/3)
	for i := 0; i < len(indices); i += 3 {
		faces = append(faces, [3]uint32{indices[i], indices[i+1], indices[i+2]})
	}
	sort.Slice(faces, func(i, j int) bool {
		for k := 0; k < 3; k++ {
			if faces[i][k] != faces[j][k] {
				return faces[i][k] < faces[j][k]
			}
		}
		return false
	})
	return faces
}

func approxEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func approxVec3(a, b types.Vec3) bool {
	return approxEqual(a[0], b[0]) && approxEqual(a[1], b[1]) && approxEqual(a[2], b[2])
}
