package bvh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/achilleasa/meshbvh/types"
)

const maxDist = float32(math.MaxFloat32)

func TestCubeScenario(t *testing.T) {
	tree := mustBuild(t, cubeGeometry(), Options{Strategy: Center, MaxDepth: 40, MaxLeafTris: 4})
	ray := Ray{Origin: types.XYZ(0, 0, 5), Direction: types.XYZ(0, 0, -1)}

	hit, ok := tree.RaycastFirst(ray, 0, maxDist, FrontSide)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !approxEqual(hit.Distance, 4) {
		t.Fatalf("expected hit distance 4; got %f", hit.Distance)
	}
	if !approxVec3(hit.Point, types.XYZ(0, 0, 1)) {
		t.Fatalf("expected hit point (0,0,1); got %v", hit.Point)
	}
	if !approxVec3(hit.Normal, types.XYZ(0, 0, 1)) {
		t.Fatalf("expected hit normal (0,0,1); got %v", hit.Normal)
	}
	if hit.HasUV {
		t.Fatal("expected no uv for a mesh without uvs")
	}

	// The +z face is hit on its shared diagonal, the -z face is back facing
	hits := tree.RaycastAll(ray, 0, maxDist, FrontSide)
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	for _, h := range hits {
		if !approxEqual(h.Distance, 4) {
			t.Fatalf("expected every front facing hit at distance 4; got %f", h.Distance)
		}
	}

	hits = tree.RaycastAll(ray, 0, maxDist, DoubleSide)
	var sawBack bool
	for _, h := range hits {
		if approxEqual(h.Distance, 6) {
			sawBack = true
		}
	}
	if !sawBack {
		t.Fatal("expected a double sided hit on the far face at distance 6")
	}
}

func TestSidedness(t *testing.T) {
	tree := mustBuild(t, cubeGeometry(), Options{Strategy: Center, MaxDepth: 40, MaxLeafTris: 2})

	type spec struct {
		ray     Ray
		side    Side
		expHit  bool
		expDist float32
	}

	inside := Ray{Origin: types.XYZ(0.1, 0.2, 0), Direction: types.XYZ(0, 0, 1)}
	outside := Ray{Origin: types.XYZ(0.1, 0.2, 5), Direction: types.XYZ(0, 0, -1)}
	specs := []spec{
		{inside, FrontSide, false, 0},
		{inside, BackSide, true, 1},
		{inside, DoubleSide, true, 1},
		{outside, FrontSide, true, 4},
		{outside, BackSide, true, 6},
		{outside, DoubleSide, true, 4},
	}

	for index, s := range specs {
		hit, ok := tree.RaycastFirst(s.ray, 0, maxDist, s.side)
		if ok != s.expHit {
			t.Fatalf("[spec %d] expected hit %t; got %t", index, s.expHit, ok)
		}
		if ok && !approxEqual(hit.Distance, s.expDist) {
			t.Fatalf("[spec %d] expected distance %f; got %f", index, s.expDist, hit.Distance)
		}
	}
}

func TestRayMissesRoot(t *testing.T) {
	tree := mustBuild(t, cubeGeometry(), Options{Strategy: SAH, MaxDepth: 40, MaxLeafTris: 1})
	rays := []Ray{
		{Origin: types.XYZ(5, 5, 5), Direction: types.XYZ(0, 0, -1)},
		{Origin: types.XYZ(0, 0, 5), Direction: types.XYZ(0, 0, 1)},
		{Origin: types.XYZ(0, 3, 0), Direction: types.XYZ(1, 0, 0)},
	}

	for index, ray := range rays {
		if hits := tree.RaycastAll(ray, 0, maxDist, DoubleSide); len(hits) != 0 {
			t.Fatalf("[ray %d] expected no hits; got %d", index, len(hits))
		}
		if _, ok := tree.RaycastFirst(ray, 0, maxDist, DoubleSide); ok {
			t.Fatalf("[ray %d] expected no nearest hit", index)
		}
	}
}

func TestNearFarClip(t *testing.T) {
	geo := Geometry{Positions: []float32{-1, -1, 0, 1, -1, 0, 0, 1, 0}}
	tree := mustBuild(t, geo, DefaultOptions())
	ray := Ray{Origin: types.XYZ(0, 0, 10), Direction: types.XYZ(0, 0, -1)}

	if _, ok := tree.RaycastFirst(ray, 0, 5, FrontSide); ok {
		t.Fatal("expected hit beyond far to be rejected")
	}
	if hits := tree.RaycastAll(ray, 0, 5, FrontSide); len(hits) != 0 {
		t.Fatalf("expected no hits beyond far; got %d", len(hits))
	}
	if _, ok := tree.RaycastFirst(ray, 11, maxDist, FrontSide); ok {
		t.Fatal("expected hit before near to be rejected")
	}
	if hit, ok := tree.RaycastFirst(ray, 10, 10, FrontSide); !ok || !approxEqual(hit.Distance, 10) {
		t.Fatalf("expected inclusive clip range to report hit at 10; got %v, %t", hit.Distance, ok)
	}
}

func TestRaycastFirstMatchesBruteForce(t *testing.T) {
	geo := randomGeometry(99, 400)
	rng := rand.New(rand.NewSource(5))

	for _, strategy := range allStrategies {
		tree := mustBuild(t, geo, Options{Strategy: strategy, MaxDepth: 40, MaxLeafTris: 3})

		var hitCount int
		for i := 0; i < 500; i++ {
			ray := randomRay(rng)
			side := Side(i % 3)

			exp := bruteForce(tree, ray, 0, maxDist, side)
			all := tree.RaycastAll(ray, 0, maxDist, side)
			if len(all) != len(exp) {
				t.Fatalf("[%s ray %d] expected %d hits; got %d", strategy, i, len(exp), len(all))
			}

			first, ok := tree.RaycastFirst(ray, 0, maxDist, side)
			if ok != (len(all) != 0) {
				t.Fatalf("[%s ray %d] expected nearest hit presence to be %t; got %t", strategy, i, len(all) != 0, ok)
			}
			if !ok {
				continue
			}
			hitCount++

			minDist := all[0].Distance
			for _, h := range all[1:] {
				if h.Distance < minDist {
					minDist = h.Distance
				}
			}
			if first.Distance != minDist {
				t.Fatalf("[%s ray %d] expected nearest distance %f; got %f", strategy, i, minDist, first.Distance)
			}
		}

		if hitCount == 0 {
			t.Fatalf("[%s] expected some rays to hit the mesh", strategy)
		}
	}
}

func TestHitUV(t *testing.T) {
	geo := Geometry{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		UVs:       []float32{0, 0, 1, 0, 0, 1},
	}
	tree := mustBuild(t, geo, DefaultOptions())

	hit, ok := tree.RaycastFirst(Ray{Origin: types.XYZ(0.25, 0.25, 1), Direction: types.XYZ(0, 0, -1)}, 0, maxDist, FrontSide)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !hit.HasUV {
		t.Fatal("expected hit to carry uv coordinates")
	}
	if !approxEqual(hit.UV[0], 0.25) || !approxEqual(hit.UV[1], 0.25) {
		t.Fatalf("expected uv (0.25, 0.25); got %v", hit.UV)
	}
	if hit.Face != [3]uint32{0, 1, 2} {
		t.Fatalf("expected face (0, 1, 2); got %v", hit.Face)
	}
	if !approxVec3(hit.Normal, types.XYZ(0, 0, 1)) {
		t.Fatalf("expected normal (0,0,1); got %v", hit.Normal)
	}
}

func TestMatrixWorld(t *testing.T) {
	tree := mustBuild(t, cubeGeometry(), Options{Strategy: Average, MaxDepth: 40, MaxLeafTris: 2})
	tree.SetMatrixWorld(types.TRS(types.XYZ(0, 0, 10), types.XYZ(0, 0, 0), types.XYZ(2, 2, 2)))

	worldRay := Ray{Origin: types.XYZ(0, 0, 20), Direction: types.XYZ(0, 0, -1)}
	hit, ok := tree.RaycastFirst(tree.LocalRay(worldRay), 0, maxDist, FrontSide)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !approxEqual(hit.Distance, 8) {
		t.Fatalf("expected world distance 8; got %f", hit.Distance)
	}
	if !approxVec3(hit.Point, types.XYZ(0, 0, 12)) {
		t.Fatalf("expected world point (0,0,12); got %v", hit.Point)
	}
	if !approxVec3(hit.LocalPoint, types.XYZ(0, 0, 1)) {
		t.Fatalf("expected local point (0,0,1); got %v", hit.LocalPoint)
	}

	// The far clip is measured in world space
	if _, ok = tree.RaycastFirst(tree.LocalRay(worldRay), 0, 7, FrontSide); ok {
		t.Fatal("expected hit beyond the world space far clip to be rejected")
	}
}

func TestSlabTest(t *testing.T) {
	box := types.BBox{types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1)}

	type spec struct {
		ray Ray
		exp bool
	}

	specs := []spec{
		{Ray{types.XYZ(0, 0, 5), types.XYZ(0, 0, -1)}, true},
		{Ray{types.XYZ(0, 0, 5), types.XYZ(0, 0, 1)}, false},
		{Ray{types.XYZ(0, 0, 0), types.XYZ(1, 0, 0)}, true},
		{Ray{types.XYZ(2, 0, 0), types.XYZ(0, 1, 0)}, false},
		{Ray{types.XYZ(-5, 1, 0), types.XYZ(1, 0, 0)}, true},
		{Ray{types.XYZ(-5, -5, 0), types.XYZ(1, 1, 0)}, true},
	}

	for index, s := range specs {
		if got := intersectBox(&s.ray, &box); got != s.exp {
			t.Fatalf("[spec %d] expected %t; got %t", index, s.exp, got)
		}
	}
}

func TestWalkDepthLimit(t *testing.T) {
	tree := mustBuild(t, randomGeometry(8, 200), Options{Strategy: SAH, MaxDepth: 40, MaxLeafTris: 2})

	var visited, maxSeen int
	Walk(tree.Root(), 2, func(n Node, depth int) bool {
		visited++
		if depth > maxSeen {
			maxSeen = depth
		}
		return true
	})
	if maxSeen > 2 {
		t.Fatalf("expected walk to stop at depth 2; got %d", maxSeen)
	}
	if visited > 7 {
		t.Fatalf("expected at most 7 nodes up to depth 2; got %d", visited)
	}

	visited = 0
	Walk(tree.Root(), -1, func(n Node, depth int) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Fatalf("expected pruned walk to visit only the root; got %d", visited)
	}
}
