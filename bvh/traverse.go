package bvh

import (
	"github.com/achilleasa/meshbvh/types"
)

// Per-call query state. Traversal keeps all temporaries in this value so
// that concurrent queries against the same tree never share scratch data.
type query struct {
	tree        *Tree
	ray         Ray
	worldOrigin types.Vec3
	near, far   float32
	side        Side
}

func (t *Tree) newQuery(ray Ray, near, far float32, side Side) *query {
	q := &query{tree: t, ray: ray, worldOrigin: ray.Origin, near: near, far: far, side: side}
	if t.hasMatrix {
		q.worldOrigin = ray.Origin.TransformPoint(t.matrixWorld)
	}
	return q
}

// Collect every hit with a distance in [near, far]. The ray is given in mesh
// local space. Hits are returned in no particular order.
func (t *Tree) RaycastAll(ray Ray, near, far float32, side Side) []Hit {
	if t.root == nil {
		return nil
	}

	q := t.newQuery(ray, near, far, side)
	var hits []Hit
	if box := t.root.BBox(); intersectBox(&q.ray, &box) {
		hits = q.collectAll(t.root, hits)
	}
	return hits
}

// Find the nearest hit with a distance in [near, far]. The ray is given in
// mesh local space.
func (t *Tree) RaycastFirst(ray Ray, near, far float32, side Side) (Hit, bool) {
	if t.root == nil {
		return Hit{}, false
	}

	q := t.newQuery(ray, near, far, side)
	if box := t.root.BBox(); !intersectBox(&q.ray, &box) {
		return Hit{}, false
	}
	return q.nearest(t.root)
}

func (q *query) collectAll(n Node, hits []Hit) []Hit {
	switch node := n.(type) {
	case *Leaf:
		for tri := node.Offset; tri < node.Offset+node.Count; tri++ {
			if hit, ok := q.intersect(tri); ok {
				hits = append(hits, hit)
			}
		}
	case *Internal:
		if box := node.Left.BBox(); intersectBox(&q.ray, &box) {
			hits = q.collectAll(node.Left, hits)
		}
		if box := node.Right.BBox(); intersectBox(&q.ray, &box) {
			hits = q.collectAll(node.Right, hits)
		}
	}
	return hits
}

func (q *query) nearest(n Node) (Hit, bool) {
	switch node := n.(type) {
	case *Leaf:
		var (
			best  Hit
			found bool
		)
		for tri := node.Offset; tri < node.Offset+node.Count; tri++ {
			if hit, ok := q.intersect(tri); ok && (!found || hit.Distance < best.Distance) {
				best, found = hit, true
			}
		}
		return best, found
	case *Internal:
		return q.nearestInternal(node)
	}
	return Hit{}, false
}

func (q *query) nearestInternal(node *Internal) (Hit, bool) {
	axis := node.SplitAxis
	nearChild, farChild := node.Left, node.Right
	if q.ray.Direction[axis] < 0 {
		nearChild, farChild = node.Right, node.Left
	}

	var (
		nearHit Hit
		nearOk  bool
	)
	if box := nearChild.BBox(); intersectBox(&q.ray, &box) {
		nearHit, nearOk = q.nearest(nearChild)
	}

	farBox := farChild.BBox()
	if nearOk && q.canSkip(axis, nearHit, farBox) {
		return nearHit, true
	}

	var (
		farHit Hit
		farOk  bool
	)
	if intersectBox(&q.ray, &farBox) {
		farHit, farOk = q.nearest(farChild)
	}

	switch {
	case nearOk && farOk:
		if nearHit.Distance <= farHit.Distance {
			return nearHit, true
		}
		return farHit, true
	case nearOk:
		return nearHit, true
	default:
		return farHit, farOk
	}
}

// Decide whether the far child can be skipped given a hit in the near
// child. Only the split axis is considered: the far box must lie entirely
// on one side of the ray origin along that axis and the hit must be no
// further along it than either face of the far box.
func (q *query) canSkip(axis types.Axis, hit Hit, farBox types.BBox) bool {
	origin := q.ray.Origin[axis]
	farMin, farMax := farBox[0][axis], farBox[1][axis]
	if origin >= farMin && origin <= farMax {
		return false
	}

	toPoint := origin - hit.LocalPoint[axis]
	toMin := origin - farMin
	toMax := origin - farMax
	toPointSq := toPoint * toPoint
	return toPointSq <= toMin*toMin && toPointSq <= toMax*toMax
}

// Intersect the ray with the triangle at position tri of the reordered
// index buffer.
func (q *query) intersect(tri uint32) (Hit, bool) {
	geo := &q.tree.geo
	indices := q.tree.indices
	ia := indices.At(int(3 * tri))
	ib := indices.At(int(3*tri + 1))
	ic := indices.At(int(3*tri + 2))
	a, b, c := geo.Vertex(ia), geo.Vertex(ib), geo.Vertex(ic)

	var (
		t  float32
		ok bool
	)
	switch q.side {
	case BackSide:
		t, ok = intersectTriangle(&q.ray, c, b, a, true)
	case DoubleSide:
		t, ok = intersectTriangle(&q.ray, a, b, c, false)
	default:
		t, ok = intersectTriangle(&q.ray, a, b, c, true)
	}
	if !ok {
		return Hit{}, false
	}

	local := q.ray.At(t)
	world := local
	if q.tree.hasMatrix {
		world = local.TransformPoint(q.tree.matrixWorld)
	}
	distance := q.worldOrigin.DistanceTo(world)
	if distance < q.near || distance > q.far {
		return Hit{}, false
	}

	hit := Hit{
		Distance:   distance,
		Point:      world,
		LocalPoint: local,
		Triangle:   tri,
		Face:       [3]uint32{ia, ib, ic},
		Normal:     faceNormal(a, b, c),
	}
	if len(geo.UVs) != 0 {
		if bary, ok := barycentric(local, a, b, c); ok {
			uvA, uvB, uvC := geo.UV(ia), geo.UV(ib), geo.UV(ic)
			hit.UV = uvA.Mul(bary[0]).Add(uvB.Mul(bary[1])).Add(uvC.Mul(bary[2]))
			hit.HasUV = true
		}
	}

	return hit, true
}
