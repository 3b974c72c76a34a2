package bvh

import (
	"fmt"
	"sort"
	"strings"

	"github.com/achilleasa/meshbvh/types"
)

// Strategy selects how a node's split plane is chosen.
type Strategy uint8

const (
	// Split at the midpoint of the longest box edge.
	Center Strategy = iota

	// Split at the mean triangle centroid along the longest box edge.
	Average

	// Split using the surface area heuristic.
	SAH
)

// SAH cost model weights.
const (
	TraversalCost    = 3
	IntersectionCost = 1
)

func (s Strategy) String() string {
	switch s {
	case Center:
		return "center"
	case Average:
		return "average"
	case SAH:
		return "sah"
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// Parse a strategy name (case insensitive).
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "center":
		return Center, nil
	case "average":
		return Average, nil
	case "sah":
		return SAH, nil
	}
	return Center, fmt.Errorf("bvh: unknown split strategy %q", name)
}

type split struct {
	axis types.Axis
	pos  float32
}

var noSplit = split{axis: types.NoAxis}

// Select the split plane for the triangles in [offset, offset+count) whose
// union box is box. An axis of NoAxis means the node should not be split.
func (ctx *buildContext) evaluateSplit(box types.BBox, offset, count int, strategy Strategy) split {
	switch strategy {
	case Average:
		axis := box.LongestAxis()
		if axis == types.NoAxis {
			return noSplit
		}
		return split{axis: axis, pos: ctx.averageOf(offset, count, axis)}
	case SAH:
		return ctx.sahSplit(box, offset, count)
	default:
		axis := box.LongestAxis()
		if axis == types.NoAxis {
			return noSplit
		}
		return split{axis: axis, pos: (box[0][axis] + box[1][axis]) / 2}
	}
}

// Scan the sorted centroid planes of every axis and keep the plane with the
// lowest estimated cost. The left and right boxes use the plane distance
// along the split axis and the full node extent on the other two axes.
func (ctx *buildContext) sahSplit(box types.BBox, offset, count int) split {
	sa := box.SurfaceArea()
	if sa <= 0 {
		return noSplit
	}

	dim := box.Side()
	best := noSplit
	bestCost := float32(IntersectionCost * count)

	for axis := types.XAxis; axis <= types.ZAxis; axis++ {
		planes := ctx.collectPlanes(offset, count, axis)

		o1 := dim[(axis+1)%3]
		o2 := dim[(axis+2)%3]
		bmin, bmax := box[0][axis], box[1][axis]

		nl, nr := 0, count
		for _, p := range planes {
			nl++
			nr--

			ldim := p.pos - bmin
			rdim := bmax - p.pos
			sal := 2 * (o1*o2 + o1*ldim + o2*ldim)
			sar := 2 * (o1*o2 + o1*rdim + o2*rdim)

			cost := TraversalCost + IntersectionCost*((sal/sa)*float32(nl)+(sar/sa)*float32(nr))
			if cost < bestCost {
				bestCost = cost
				best = split{axis: axis, pos: p.pos}
			}
		}
	}

	return best
}

// Fill the axis scratch buffer with the centroid planes of the triangles in
// [offset, offset+count) sorted by position. Ties are ordered by triangle id.
func (ctx *buildContext) collectPlanes(offset, count int, axis types.Axis) []splitPlane {
	planes := ctx.planes[axis][:count]
	for i, tri := range ctx.tris[offset : offset+count] {
		planes[i] = splitPlane{pos: ctx.centroids[3*tri+uint32(axis)], tri: tri}
	}

	sort.Slice(planes, func(i, j int) bool {
		if planes[i].pos != planes[j].pos {
			return planes[i].pos < planes[j].pos
		}
		return planes[i].tri < planes[j].tri
	})

	return planes
}
