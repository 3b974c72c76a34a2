package server

import (
	"errors"
	"fmt"
	"math"

	"github.com/achilleasa/meshbvh/bvh"
	"github.com/achilleasa/meshbvh/tracer"
	"github.com/achilleasa/meshbvh/types"
)

var errNoRays = errors.New("request has no rays")

// A raycast request. Either a single ray (Origin and Direction) or a batch
// of Rays must be supplied. Rays are given in world space.
type Request struct {
	Id string `json:"id,omitempty"`

	Origin    *types.Vec3 `json:"origin,omitempty"`
	Direction *types.Vec3 `json:"direction,omitempty"`
	Rays      []bvh.Ray   `json:"rays,omitempty"`

	Near float32 `json:"near"`

	// Defaults to math.MaxFloat32 when omitted.
	Far *float32 `json:"far,omitempty"`

	Side  bvh.Side `json:"side"`
	First bool     `json:"first"`
}

// The reply to a request. Hits holds one entry per requested ray in
// request order.
type Response struct {
	Id    string      `json:"id,omitempty"`
	Hits  [][]bvh.Hit `json:"hits,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Convert the request into a tracer query using toLocal to map world space
// rays into mesh local space.
func (req *Request) query(toLocal func(bvh.Ray) bvh.Ray) (*tracer.Query, error) {
	rays := req.Rays
	if len(rays) == 0 {
		if req.Origin == nil || req.Direction == nil {
			return nil, errNoRays
		}
		rays = []bvh.Ray{{Origin: *req.Origin, Direction: *req.Direction}}
	}

	q := &tracer.Query{
		Rays:         make([]bvh.Ray, len(rays)),
		Near:         req.Near,
		Far:          math.MaxFloat32,
		Side:         req.Side,
		FirstHitOnly: req.First,
	}
	if req.Far != nil {
		q.Far = *req.Far
	}
	if q.Far < q.Near {
		return nil, fmt.Errorf("far clip %f is less than near clip %f", q.Far, q.Near)
	}
	for idx, ray := range rays {
		q.Rays[idx] = toLocal(ray)
	}
	return q, nil
}
