package tracer

import (
	"context"
	"time"

	"github.com/achilleasa/meshbvh/bvh"
)

// A batch of rays cast against a single mesh. Rays are given in mesh local
// space.
type Query struct {
	Rays []bvh.Ray

	// Hits outside [Near, Far] are discarded.
	Near float32
	Far  float32

	Side bvh.Side

	// Report only the nearest hit for each ray.
	FirstHitOnly bool
}

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	Ctx   context.Context
	Query *Query

	// Block start ray and ray count.
	Offset uint32
	Count  uint32

	// Hits for every ray of the query. The tracer only writes the
	// entries of its block.
	Results [][]bvh.Hit

	// A channel to signal on block completion with the number of traced rays.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The number of rays in the last traced block.
	BlockRays uint32

	// The time for tracing the last block.
	BlockTime time.Duration
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Start the tracer.
	Init() error

	// Shutdown and cleanup tracer.
	Close()

	// Get the tracer's computation speed estimate compared to a
	// baseline (single cpu core) implementation.
	SpeedEstimate() float32

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Retrieve last block statistics.
	Stats() *Stats
}
