package tracer

import (
	"fmt"
	"sync"
	"time"

	"github.com/achilleasa/meshbvh/bvh"
	"github.com/achilleasa/meshbvh/log"
)

// The number of rays traced between context cancellation checks.
const cancelCheckInterval = 64

type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// The target that answers ray queries.
	target bvh.Raycaster

	// A channel for receiving block requests from the pool.
	blockReqChan chan BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last traced block.
	stats *Stats
}

// Create a new tracer that runs ray queries against target on a dedicated
// goroutine.
func NewCPUTracer(id string, target bvh.Raycaster) Tracer {
	return &cpuTracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		target:       target,
		blockReqChan: make(chan BlockRequest, 1),
		stats:        &Stats{},
	}
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

// All cpu tracers run at the baseline speed.
func (tr *cpuTracer) SpeedEstimate() float32 {
	return 1.0
}

// Initialize tracer.
func (tr *cpuTracer) Init() error {
	tr.Lock()
	defer tr.Unlock()

	if tr.target == nil {
		return fmt.Errorf("tracer %s: no raycast target", tr.id)
	}

	tr.startWorker()
	return nil
}

// Shutdown and cleanup tracer.
func (tr *cpuTracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	tr.cleanup()
}

// Cleanup tracer. This method is meant to be called while holding tr.Lock()
func (tr *cpuTracer) cleanup() {
	// If the worker is running shut it down
	if tr.closeChan != nil {
		tr.closeChan <- struct{}{}

		// wait for worker to ack close and shutdown channel
		<-tr.closeChan
		close(tr.closeChan)
		tr.closeChan = nil
	}

	tr.wg.Wait()
}

// Enqueue block request.
func (tr *cpuTracer) Enqueue(blockReq BlockRequest) {
	tr.Lock()
	running := tr.closeChan != nil
	tr.Unlock()

	if !running {
		blockReq.ErrChan <- fmt.Errorf("tracer %s: %w", tr.id, ErrNotStarted)
		return
	}

	select {
	case tr.blockReqChan <- blockReq:
	default:
		// drop the request if worker is not listening
		tr.logger.Error("request processor did not receive block request")
		blockReq.ErrChan <- fmt.Errorf("tracer %s: %w", tr.id, ErrTracerBusy)
	}
}

// Retrieve last block statistics.
func (tr *cpuTracer) Stats() *Stats {
	return tr.stats
}

// Spawn a go-routine to process block requests.
func (tr *cpuTracer) startWorker() {
	// Worker already running
	if tr.closeChan != nil {
		return
	}

	closeChan := make(chan struct{}, 0)
	tr.closeChan = closeChan
	readyChan := make(chan struct{}, 0)
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		var blockReq BlockRequest
		var startTime time.Time
		var err error
		close(readyChan)
		for {
			select {
			case blockReq = <-tr.blockReqChan:
				startTime = time.Now()

				// Trace block and reply with our completion status
				err = tr.traceBlock(&blockReq)
				if err != nil {
					blockReq.ErrChan <- err
					continue
				}

				// Update stats
				tr.stats.BlockRays = blockReq.Count
				tr.stats.BlockTime = time.Since(startTime)

				blockReq.DoneChan <- blockReq.Count
			case <-closeChan:
				// Ack close
				closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for worker to start
	<-readyChan
}

// Run the queries for all rays in the block.
func (tr *cpuTracer) traceBlock(blockReq *BlockRequest) error {
	q := blockReq.Query
	end := blockReq.Offset + blockReq.Count
	for rayIndex := blockReq.Offset; rayIndex < end; rayIndex++ {
		if blockReq.Ctx != nil && (rayIndex-blockReq.Offset)%cancelCheckInterval == 0 {
			if blockReq.Ctx.Err() != nil {
				return ErrInterrupted
			}
		}

		ray := q.Rays[rayIndex]
		if q.FirstHitOnly {
			if hit, ok := tr.target.RaycastFirst(ray, q.Near, q.Far, q.Side); ok {
				blockReq.Results[rayIndex] = []bvh.Hit{hit}
			}
			continue
		}

		blockReq.Results[rayIndex] = tr.target.RaycastAll(ray, q.Near, q.Far, q.Side)
	}

	return nil
}
