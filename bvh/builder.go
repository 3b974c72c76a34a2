package bvh

import (
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/meshbvh/log"
	"github.com/achilleasa/meshbvh/types"
)

var (
	ErrInvalidOptions = errors.New("bvh: invalid build options")
)

// Options control the tree builder.
type Options struct {
	// The split strategy. Values past SAH are clamped to SAH.
	Strategy Strategy

	// Nodes at this depth always become leaves.
	MaxDepth int

	// Nodes with at most this many triangles become leaves.
	MaxLeafTris int

	// Emit a warning when MaxDepth forces a leaf.
	Verbose bool
}

// Get the default build options.
func DefaultOptions() Options {
	return Options{
		Strategy:    Center,
		MaxDepth:    40,
		MaxLeafTris: 10,
		Verbose:     true,
	}
}

func (o *Options) validate() error {
	if o.Strategy > SAH {
		o.Strategy = SAH
	}
	if o.MaxDepth <= 0 {
		return fmt.Errorf("%w: max depth must be positive; got %d", ErrInvalidOptions, o.MaxDepth)
	}
	if o.MaxLeafTris <= 0 {
		return fmt.Errorf("%w: max leaf triangles must be positive; got %d", ErrInvalidOptions, o.MaxLeafTris)
	}
	return nil
}

type builder struct {
	logger  log.Logger
	opts    Options
	ctx     *buildContext
	indices IndexBuffer
	stats   Stats
}

// Build a BVH over the triangles of geo. The returned tree carries a
// reordered copy of the triangle indices in which every leaf references a
// contiguous run of triangles; callers should replace the geometry index
// buffer with Tree.Indices().
func Build(geo Geometry, opts Options) (*Tree, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := geo.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		logger: log.New("bvh builder"),
		opts:   opts,
		ctx:    newBuildContext(&geo, opts.Strategy),
	}
	triCount := geo.TriangleCount()
	b.indices = newIndexBuffer(geo.VertexCount(), 3*triCount)
	b.stats.Triangles = triCount
	b.stats.IndexWidth = b.indices.Width()

	start := time.Now()
	root := b.split(b.ctx.boundsOf(0, triCount), 0, triCount, 0)
	b.stats.BuildTime = time.Since(start)
	b.stats.finalize()

	if b.stats.ReachedMaxDepth && opts.Verbose {
		b.logger.Warningf("max depth %d reached while building tree; some leaves hold more than %d triangles", opts.MaxDepth, opts.MaxLeafTris)
	}
	b.logger.Debugf(
		"BVH tree build time: %d ms, strategy: %s, maxDepth: %d, nodes: %d, leafs: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		opts.Strategy, b.stats.MaxDepth, b.stats.Nodes, b.stats.Leaves,
	)

	tree := NewTree(geo, root, b.indices)
	tree.stats = b.stats
	return tree, nil
}

// Recursively split the triangles in [offset, offset+count) whose union box
// is box and return the resulting sub-tree.
func (b *builder) split(box types.BBox, offset, count, depth int) Node {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	if count <= b.opts.MaxLeafTris {
		return b.createLeaf(box, offset, count)
	}
	if depth >= b.opts.MaxDepth {
		b.stats.ReachedMaxDepth = true
		return b.createLeaf(box, offset, count)
	}

	sp := b.ctx.evaluateSplit(box, offset, count, b.opts.Strategy)
	if sp.axis == types.NoAxis {
		return b.createLeaf(box, offset, count)
	}

	splitOffset := b.ctx.partition(offset, count, sp.axis, sp.pos)
	if splitOffset == offset || splitOffset == offset+count {
		return b.createLeaf(box, offset, count)
	}

	b.stats.Nodes++
	leftCount := splitOffset - offset
	rightCount := count - leftCount

	node := &Internal{Box: box, SplitAxis: sp.axis}
	node.Left = b.split(b.ctx.boundsOf(offset, leftCount), offset, leftCount, depth+1)
	node.Right = b.split(b.ctx.boundsOf(splitOffset, rightCount), splitOffset, rightCount, depth+1)
	return node
}

func (b *builder) createLeaf(box types.BBox, offset, count int) Node {
	b.ctx.writeIndices(offset, count, b.indices)

	b.stats.Nodes++
	b.stats.Leaves++
	if count > b.stats.MaxLeafTris {
		b.stats.MaxLeafTris = count
	}

	return &Leaf{Box: box, Offset: uint32(offset), Count: uint32(count)}
}
