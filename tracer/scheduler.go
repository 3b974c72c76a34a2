package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split a batch into blocks of variable size and assign them to the
	// pool of tracers.
	//
	// This function returns the ray count assignment for each tracer in
	// the input list. The assignments always add up to rayCount.
	Schedule(tracers []Tracer, rayCount uint32) []uint32
}

// The naive scheduler splits work according to each tracer's speed estimate.
type naiveScheduler struct{}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return naiveScheduler{}
}

func (naiveScheduler) Schedule(tracers []Tracer, rayCount uint32) []uint32 {
	var total float64
	for _, tr := range tracers {
		total += float64(tr.SpeedEstimate())
	}

	assignment := make([]uint32, len(tracers))
	if total <= 0 {
		return balance(assignment, rayCount)
	}

	scaler := float64(rayCount) / total
	for idx, tr := range tracers {
		assignment[idx] = uint32(math.Max(1.0, math.Floor(float64(tr.SpeedEstimate())*scaler)))
	}
	return balance(assignment, rayCount)
}

// The perfect scheduler assumes that the per-ray cost between two subsequent
// batches is approximately the same.
type perfectScheduler struct {
	naive      naiveScheduler
	lastCount  int
	assignment []uint32
}

// Create a new perfect scheduler instance.
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split a batch using feedback collected from the previous batch. When
// previous batch information is available the scheduler uses the following
// formula for estimating the workload for tracer w and batch i+1:
// w_i, b_i+1 = (rays,w_i / time,w_i) / Σ(rays_i / time,i)
func (sch *perfectScheduler) Schedule(tracers []Tracer, rayCount uint32) []uint32 {
	// If this is the first time we try to schedule or the number of tracers
	// has changed we need to reset the block assignments
	if sch.lastCount != len(tracers) || !haveThroughput(tracers) {
		sch.lastCount = len(tracers)
		sch.assignment = sch.naive.Schedule(tracers, rayCount)
		return sch.assignment
	}

	var total float64
	for _, tr := range tracers {
		stats := tr.Stats()
		total += float64(stats.BlockRays) / float64(stats.BlockTime)
	}

	scaler := float64(rayCount) / total
	assignment := make([]uint32, len(tracers))
	for idx, tr := range tracers {
		stats := tr.Stats()
		assignment[idx] = uint32(math.Max(1.0, math.Floor(float64(stats.BlockRays)/float64(stats.BlockTime)*scaler)))
	}

	sch.assignment = balance(assignment, rayCount)
	return sch.assignment
}

// Check whether every tracer reported a non-empty block in the last batch.
func haveThroughput(tracers []Tracer) bool {
	for _, tr := range tracers {
		stats := tr.Stats()
		if stats == nil || stats.BlockRays == 0 || stats.BlockTime <= 0 {
			return false
		}
	}
	return true
}

// Adjust assignments so they add up to rayCount. Missing rays are given to
// the first tracer; excess rays are taken from the last tracers.
func balance(assignment []uint32, rayCount uint32) []uint32 {
	if len(assignment) == 0 {
		return assignment
	}

	var scheduled uint64
	for _, count := range assignment {
		scheduled += uint64(count)
	}

	if scheduled < uint64(rayCount) {
		assignment[0] += rayCount - uint32(scheduled)
		return assignment
	}

	excess := scheduled - uint64(rayCount)
	for idx := len(assignment) - 1; idx >= 0 && excess > 0; idx-- {
		take := uint64(assignment[idx])
		if take > excess {
			take = excess
		}
		assignment[idx] -= uint32(take)
		excess -= take
	}
	return assignment
}
