package tracer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/meshbvh/bvh"
	"github.com/achilleasa/meshbvh/types"
)

// A grid of n x n quads on the z = 0 plane spanning [-1, 1].
func gridTree(t *testing.T, n int) *bvh.Tree {
	var geo bvh.Geometry
	step := 2.0 / float32(n)
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			geo.Positions = append(geo.Positions, -1+float32(x)*step, -1+float32(y)*step, 0)
		}
	}
	row := uint32(n + 1)
	for y := uint32(0); y < uint32(n); y++ {
		for x := uint32(0); x < uint32(n); x++ {
			i := y*row + x
			geo.Indices = append(geo.Indices, i, i+1, i+row+1, i, i+row+1, i+row)
		}
	}

	tree, err := bvh.Build(geo, bvh.Options{Strategy: bvh.SAH, MaxDepth: 40, MaxLeafTris: 4})
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func gridQuery(count int, firstHitOnly bool) *Query {
	q := &Query{Near: 0, Far: 100, Side: bvh.DoubleSide, FirstHitOnly: firstHitOnly}
	for i := 0; i < count; i++ {
		x := -1.5 + 3*float32(i%37)/37
		y := -1.5 + 3*float32(i%41)/41
		q.Rays = append(q.Rays, bvh.Ray{
			Origin:    types.Vec3{x, y, 5},
			Direction: types.Vec3{0, 0, -1},
		})
	}
	return q
}

func TestPoolCastMatchesDirectQueries(t *testing.T) {
	tree := gridTree(t, 8)
	pool, err := NewCPUPool(tree, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	for _, firstHitOnly := range []bool{true, false} {
		q := gridQuery(500, firstHitOnly)
		results, err := pool.Cast(context.Background(), q)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != len(q.Rays) {
			t.Fatalf("expected %d results; got %d", len(q.Rays), len(results))
		}

		for i, ray := range q.Rays {
			var exp []bvh.Hit
			if firstHitOnly {
				if hit, ok := tree.RaycastFirst(ray, q.Near, q.Far, q.Side); ok {
					exp = []bvh.Hit{hit}
				}
			} else {
				exp = tree.RaycastAll(ray, q.Near, q.Far, q.Side)
			}

			if len(exp) == 0 && len(results[i]) == 0 {
				continue
			}
			if !reflect.DeepEqual(results[i], exp) {
				t.Fatalf("[ray %d, first %t] expected hits %+v; got %+v", i, firstHitOnly, exp, results[i])
			}
		}

		stats := pool.Stats()
		var total uint32
		for _, stat := range stats.Tracers {
			total += stat.BlockRays
		}
		if total != uint32(len(q.Rays)) {
			t.Fatalf("expected block sizes to add up to %d; got %d", len(q.Rays), total)
		}
		if table := stats.Table(); !strings.Contains(table, "cpu-0") {
			t.Fatalf("expected stats table to list tracer cpu-0; got\n%s", table)
		}
	}
}

func TestPoolCastEmptyQuery(t *testing.T) {
	pool, err := NewCPUPool(gridTree(t, 1), 2)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	results, err := pool.Cast(context.Background(), &Query{Far: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results; got %d", len(results))
	}
}

func TestPoolCastFewerRaysThanTracers(t *testing.T) {
	pool, err := NewCPUPool(gridTree(t, 1), 4)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	results, err := pool.Cast(context.Background(), gridQuery(2, true))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results; got %d", len(results))
	}
}

func TestPoolCastInterrupted(t *testing.T) {
	pool, err := NewCPUPool(gridTree(t, 4), 2)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err = pool.Cast(ctx, gridQuery(1000, false)); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted; got %v", err)
	}

	// The pool remains usable after an interrupted batch
	if _, err = pool.Cast(context.Background(), gridQuery(10, true)); err != nil {
		t.Fatalf("expected second batch to succeed; got %v", err)
	}
}

func TestPoolErrors(t *testing.T) {
	if _, err := NewPool(NaiveScheduler()); !errors.Is(err, ErrNoTracers) {
		t.Fatalf("expected ErrNoTracers; got %v", err)
	}
	if _, err := NewCPUPool(gridTree(t, 1), 0); !errors.Is(err, ErrNoTracers) {
		t.Fatalf("expected ErrNoTracers; got %v", err)
	}

	// A tracer without a target fails to initialize
	if _, err := NewPool(NaiveScheduler(), NewCPUTracer("ok", gridTree(t, 1)), NewCPUTracer("bad", nil)); err == nil {
		t.Fatal("expected init error for tracer without target")
	}

	pool, err := NewCPUPool(gridTree(t, 1), 1)
	if err != nil {
		t.Fatal(err)
	}
	pool.Close()
	if _, err = pool.Cast(context.Background(), gridQuery(1, true)); !errors.Is(err, ErrNoTracers) {
		t.Fatalf("expected ErrNoTracers after close; got %v", err)
	}
}

func TestTracerEnqueueBeforeInit(t *testing.T) {
	tr := NewCPUTracer("idle", gridTree(t, 1))
	errChan := make(chan error, 1)
	tr.Enqueue(BlockRequest{Query: gridQuery(1, true), Count: 1, ErrChan: errChan})

	if err := <-errChan; !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted; got %v", err)
	}
}

func TestPoolResetsIdleTracerStats(t *testing.T) {
	pool, err := NewCPUPool(gridTree(t, 4), 4)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	// Every tracer gets a block
	if _, err = pool.Cast(context.Background(), gridQuery(400, true)); err != nil {
		t.Fatal(err)
	}
	for _, tr := range pool.tracers {
		if tr.Stats().BlockRays == 0 {
			t.Fatalf("expected tracer %s to report a traced block", tr.Id())
		}
	}

	// Two rays leave the last two tracers idle
	if _, err = pool.Cast(context.Background(), gridQuery(2, true)); err != nil {
		t.Fatal(err)
	}
	for idx, tr := range pool.tracers {
		stats := tr.Stats()
		if idx < 2 {
			if stats.BlockRays != 1 {
				t.Fatalf("expected tracer %s to trace 1 ray; got %d", tr.Id(), stats.BlockRays)
			}
			continue
		}
		if *stats != (Stats{}) {
			t.Fatalf("expected idle tracer %s to have its stats reset; got %+v", tr.Id(), *stats)
		}
	}

	// The next batch falls back to speed estimates and splits evenly
	got := pool.scheduler.Schedule(pool.tracers, 8)
	if exp := []uint32{2, 2, 2, 2}; !reflect.DeepEqual(got, exp) {
		t.Fatalf("expected assignment %v; got %v", exp, got)
	}
}
