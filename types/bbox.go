package types

import (
	"fmt"
	"math"
)

// Axis identifies one of the three coordinate axes.
type Axis int8

const (
	NoAxis Axis = iota - 1
	XAxis
	YAxis
	ZAxis
)

func (a Axis) String() string {
	switch a {
	case XAxis:
		return "x"
	case YAxis:
		return "y"
	case ZAxis:
		return "z"
	case NoAxis:
		return "none"
	}
	return fmt.Sprintf("axis(%d)", int8(a))
}

// An axis aligned bounding box. Index 0 holds the min corner and index 1
// the max corner.
type BBox [2]Vec3

// Get an inverted box that acts as the identity for Union.
func EmptyBBox() BBox {
	return BBox{
		{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Check whether the box contains no points.
func (b BBox) IsEmpty() bool {
	return b[0][0] > b[1][0] || b[0][1] > b[1][1] || b[0][2] > b[1][2]
}

// Grow the box to include a point.
func (b BBox) Extend(p Vec3) BBox {
	return BBox{MinVec3(b[0], p), MaxVec3(b[1], p)}
}

// Get the union of two boxes.
func (b BBox) Union(o BBox) BBox {
	return BBox{MinVec3(b[0], o[0]), MaxVec3(b[1], o[1])}
}

// Get the box extents.
func (b BBox) Side() Vec3 {
	return b[1].Sub(b[0])
}

// Get the box center.
func (b BBox) Center() Vec3 {
	return b[0].Add(b[1]).Mul(0.5)
}

// Get the axis with the longest extent. NoAxis is returned if the box has
// no positive extent along any axis.
func (b BBox) LongestAxis() Axis {
	if b.IsEmpty() {
		return NoAxis
	}

	side := b.Side()
	axis := NoAxis
	var longest float32
	for a := XAxis; a <= ZAxis; a++ {
		if side[a] > longest {
			longest = side[a]
			axis = a
		}
	}
	return axis
}

// Get the box surface area. Empty boxes have zero area.
func (b BBox) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	s := b.Side()
	return 2 * (s[0]*s[1] + s[1]*s[2] + s[2]*s[0])
}

// Check whether a point lies inside the box (inclusive).
func (b BBox) Contains(p Vec3) bool {
	return p[0] >= b[0][0] && p[0] <= b[1][0] &&
		p[1] >= b[0][1] && p[1] <= b[1][1] &&
		p[2] >= b[0][2] && p[2] <= b[1][2]
}

// Check whether another box fits inside this one (inclusive).
func (b BBox) ContainsBox(o BBox) bool {
	return b.Contains(o[0]) && b.Contains(o[1])
}
