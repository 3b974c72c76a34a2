package bvh

import (
	"fmt"
	"strings"

	"github.com/achilleasa/meshbvh/types"
	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a half-line. The direction does not need to be normalized.
type Ray struct {
	Origin    types.Vec3 `json:"origin"`
	Direction types.Vec3 `json:"direction"`
}

// Get the point at parametric distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform the ray by a 4x4 matrix.
func (r Ray) Transform(m mgl32.Mat4) Ray {
	return Ray{
		Origin:    r.Origin.TransformPoint(m),
		Direction: r.Direction.TransformDir(m),
	}
}

// Side selects which triangle faces can be hit. Triangles with a counter
// clockwise winding as seen from the ray are front facing.
type Side uint8

const (
	FrontSide Side = iota
	BackSide
	DoubleSide
)

func (s Side) String() string {
	switch s {
	case FrontSide:
		return "front"
	case BackSide:
		return "back"
	case DoubleSide:
		return "double"
	}
	return fmt.Sprintf("side(%d)", uint8(s))
}

// Parse a side name (case insensitive).
func ParseSide(name string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "front", "":
		return FrontSide, nil
	case "back":
		return BackSide, nil
	case "double":
		return DoubleSide, nil
	}
	return FrontSide, fmt.Errorf("bvh: unknown side %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// Hit describes a ray/triangle intersection.
type Hit struct {
	// Distance from the ray origin. When the tree has a world matrix this
	// is measured in world space.
	Distance float32 `json:"distance"`

	// Intersection point in world space (equal to LocalPoint when no world
	// matrix is set).
	Point types.Vec3 `json:"point"`

	// Intersection point in mesh local space.
	LocalPoint types.Vec3 `json:"local_point"`

	// Triangle position in the reordered index buffer.
	Triangle uint32 `json:"triangle"`

	// Vertex indices of the triangle.
	Face [3]uint32 `json:"face"`

	// Unit face normal in local space.
	Normal types.Vec3 `json:"normal"`

	// Interpolated uv coordinates; only valid if HasUV is set.
	UV    types.Vec2 `json:"uv"`
	HasUV bool       `json:"has_uv"`
}
