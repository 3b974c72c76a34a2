package tracer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/achilleasa/meshbvh/bvh"
	"github.com/achilleasa/meshbvh/log"
	"github.com/olekukonko/tablewriter"
)

type TracerStat struct {
	// The tracer id.
	Id string

	// The block size and the percentage of the batch it represents.
	BlockRays  uint32
	RayPercent float32

	// Trace time for assigned block.
	TraceTime time.Duration
}

type BatchStats struct {
	// Individual tracer stats.
	Tracers []TracerStat

	// Total trace time for the entire batch.
	TraceTime time.Duration
}

// Render batch stats as a table.
func (s BatchStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Rays", "% of batch", "Trace time"})
	for _, stat := range s.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.BlockRays),
			fmt.Sprintf("%02.1f %%", stat.RayPercent),
			stat.TraceTime.String(),
		})
	}
	table.SetFooter([]string{"", "", "TOTAL", s.TraceTime.String()})
	table.Render()

	return buf.String()
}

// Pool splits ray batches across a set of tracers.
type Pool struct {
	sync.Mutex

	logger    log.Logger
	tracers   []Tracer
	scheduler BlockScheduler
	stats     BatchStats
}

// Create a pool and initialize the supplied tracers. If any tracer fails to
// initialize, the tracers that were already started are closed.
func NewPool(scheduler BlockScheduler, tracers ...Tracer) (*Pool, error) {
	if len(tracers) == 0 {
		return nil, ErrNoTracers
	}

	for idx, tr := range tracers {
		if err := tr.Init(); err != nil {
			for _, started := range tracers[:idx] {
				started.Close()
			}
			return nil, err
		}
	}

	return &Pool{
		logger:    log.New("tracer pool"),
		tracers:   tracers,
		scheduler: scheduler,
	}, nil
}

// Create a pool of workers cpu tracers that share the same raycast target.
func NewCPUPool(target bvh.Raycaster, workers int) (*Pool, error) {
	if workers <= 0 {
		return nil, ErrNoTracers
	}

	tracers := make([]Tracer, workers)
	for idx := range tracers {
		tracers[idx] = NewCPUTracer(fmt.Sprintf("cpu-%d", idx), target)
	}
	return NewPool(PerfectScheduler(), tracers...)
}

// Shutdown all attached tracers.
func (p *Pool) Close() {
	p.Lock()
	defer p.Unlock()

	for _, tr := range p.tracers {
		tr.Close()
	}
	p.tracers = nil
}

// Get statistics for the last batch.
func (p *Pool) Stats() BatchStats {
	p.Lock()
	defer p.Unlock()

	return p.stats
}

// Cast all query rays and return the hits for each ray in input order.
// Batches are processed one at a time. If ctx is cancelled the pool waits
// for in-flight blocks to abort and returns ErrInterrupted.
func (p *Pool) Cast(ctx context.Context, q *Query) ([][]bvh.Hit, error) {
	p.Lock()
	defer p.Unlock()

	if len(p.tracers) == 0 {
		return nil, ErrNoTracers
	}

	rayCount := uint32(len(q.Rays))
	results := make([][]bvh.Hit, rayCount)
	if rayCount == 0 {
		p.stats = BatchStats{}
		return results, nil
	}

	start := time.Now()
	assignment := p.scheduler.Schedule(p.tracers, rayCount)

	doneChan := make(chan uint32, len(p.tracers))
	errChan := make(chan error, len(p.tracers))

	var offset uint32
	pending := 0
	for idx, tr := range p.tracers {
		if assignment[idx] == 0 {
			// Idle tracers must not feed stale throughput to the scheduler
			if stats := tr.Stats(); stats != nil {
				*stats = Stats{}
			}
			continue
		}

		tr.Enqueue(BlockRequest{
			Ctx:      ctx,
			Query:    q,
			Offset:   offset,
			Count:    assignment[idx],
			Results:  results,
			DoneChan: doneChan,
			ErrChan:  errChan,
		})
		offset += assignment[idx]
		pending++
	}

	var err error
	ctxDone := ctx.Done()
	for pending > 0 {
		select {
		case <-doneChan:
			pending--
		case blockErr := <-errChan:
			pending--
			if err == nil {
				err = blockErr
			}
		case <-ctxDone:
			// Keep draining replies; workers abort at their next check.
			ctxDone = nil
			if err == nil {
				err = ErrInterrupted
			}
		}
	}

	if err != nil {
		if !errors.Is(err, ErrInterrupted) {
			p.logger.Errorf("batch of %d rays failed: %v", rayCount, err)
		}
		return nil, err
	}

	p.stats = p.collectStats(assignment, rayCount, time.Since(start))
	p.logger.Debugf("traced %d rays in %s", rayCount, p.stats.TraceTime)
	return results, nil
}

func (p *Pool) collectStats(assignment []uint32, rayCount uint32, traceTime time.Duration) BatchStats {
	stats := BatchStats{
		Tracers:   make([]TracerStat, len(p.tracers)),
		TraceTime: traceTime,
	}
	for idx, tr := range p.tracers {
		stats.Tracers[idx] = TracerStat{
			Id:         tr.Id(),
			BlockRays:  assignment[idx],
			RayPercent: 100.0 * float32(assignment[idx]) / float32(rayCount),
		}
		if assignment[idx] != 0 {
			stats.Tracers[idx].TraceTime = tr.Stats().BlockTime
		}
	}
	return stats
}
