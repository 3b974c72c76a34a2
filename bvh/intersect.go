package bvh

import (
	"math"

	"github.com/achilleasa/meshbvh/types"
)

// Check whether the ray hits the box anywhere along its positive half.
func intersectBox(ray *Ray, box *types.BBox) bool {
	if box.IsEmpty() {
		return false
	}

	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		o, d := ray.Origin[axis], ray.Direction[axis]
		lo, hi := box[0][axis], box[1][axis]

		if d == 0 {
			if o < lo || o > hi {
				return false
			}
			continue
		}

		inv := 1 / d
		t0 := (lo - o) * inv
		t1 := (hi - o) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return false
		}
	}

	return tmax >= 0
}

// Intersect the ray with triangle (a, b, c). When cull is set, triangles
// whose counter clockwise winding faces away from the ray are ignored.
// Returns the parametric distance of the hit.
func intersectTriangle(ray *Ray, a, b, c types.Vec3, cull bool) (float32, bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	normal := edge1.Cross(edge2)

	var sign float32
	ddn := ray.Direction.Dot(normal)
	switch {
	case ddn > 0:
		if cull {
			return 0, false
		}
		sign = 1
	case ddn < 0:
		sign = -1
		ddn = -ddn
	default:
		return 0, false
	}

	diff := ray.Origin.Sub(a)
	ddqxe2 := sign * ray.Direction.Dot(diff.Cross(edge2))
	if ddqxe2 < 0 {
		return 0, false
	}
	dde1xq := sign * ray.Direction.Dot(edge1.Cross(diff))
	if dde1xq < 0 {
		return 0, false
	}
	if ddqxe2+dde1xq > ddn {
		return 0, false
	}

	qdn := -sign * diff.Dot(normal)
	if qdn < 0 {
		return 0, false
	}

	return qdn / ddn, true
}

// Calculate the barycentric coordinates of p with respect to triangle
// (a, b, c).
func barycentric(p, a, b, c types.Vec3) (types.Vec3, bool) {
	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	dot00 := v0.Dot(v0)
	dot01 := v0.Dot(v1)
	dot02 := v0.Dot(v2)
	dot11 := v1.Dot(v1)
	dot12 := v1.Dot(v2)

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return types.Vec3{}, false
	}

	inv := 1 / denom
	u := (dot11*dot02 - dot01*dot12) * inv
	v := (dot00*dot12 - dot01*dot02) * inv
	return types.Vec3{1 - u - v, v, u}, true
}

// Face normal of triangle (a, b, c).
func faceNormal(a, b, c types.Vec3) types.Vec3 {
	return c.Sub(b).Cross(a.Sub(b)).Normalize()
}
