package bvh

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Stats summarizes the shape of a built tree.
type Stats struct {
	Triangles   int
	Nodes       int
	Leaves      int
	MaxDepth    int
	MaxLeafTris int
	AvgLeafTris float32

	// Set if MaxDepth forced at least one leaf to hold more than
	// MaxLeafTris triangles.
	ReachedMaxDepth bool

	BuildTime time.Duration

	// Index buffer element width in bytes.
	IndexWidth int
}

func (s *Stats) finalize() {
	if s.Leaves > 0 {
		s.AvgLeafTris = float32(s.Triangles) / float32(s.Leaves)
	}
}

// Collect stats by walking the node graph. Build time is not available.
func collectStats(root Node, triCount, indexWidth int) Stats {
	s := Stats{Triangles: triCount, IndexWidth: indexWidth}
	Walk(root, -1, func(n Node, depth int) bool {
		s.Nodes++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if leaf, ok := n.(*Leaf); ok {
			s.Leaves++
			if int(leaf.Count) > s.MaxLeafTris {
				s.MaxLeafTris = int(leaf.Count)
			}
		}
		return true
	})
	s.finalize()
	return s
}

// Build a tabular representation of the tree stats.
func (s Stats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"BVH", "Value"})
	table.Append([]string{"Triangles", fmt.Sprint(s.Triangles)})
	table.Append([]string{"Nodes", fmt.Sprint(s.Nodes)})
	table.Append([]string{"Leaves", fmt.Sprint(s.Leaves)})
	table.Append([]string{"Max depth", fmt.Sprint(s.MaxDepth)})
	table.Append([]string{"Max leaf tris", fmt.Sprint(s.MaxLeafTris)})
	table.Append([]string{"Avg leaf tris", fmt.Sprintf("%.2f", s.AvgLeafTris)})
	table.Append([]string{"Index width", fmt.Sprintf("%d bits", 8*s.IndexWidth)})
	if s.BuildTime > 0 {
		table.Append([]string{"Build time", s.BuildTime.String()})
	}
	if s.ReachedMaxDepth {
		table.SetFooter([]string{"Warning", "max depth reached"})
	}

	table.Render()
	return buf.String()
}
