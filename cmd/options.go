package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/meshbvh/asset"
	"github.com/achilleasa/meshbvh/bvh"
	"github.com/achilleasa/meshbvh/tracer"
	"github.com/achilleasa/meshbvh/types"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/urfave/cli"
)

// Get the tree build options from the command flags.
func buildOptions(ctx *cli.Context) (bvh.Options, error) {
	opts := bvh.DefaultOptions()

	var err error
	if name := ctx.String("strategy"); name != "" {
		if opts.Strategy, err = bvh.ParseStrategy(name); err != nil {
			return opts, err
		}
	}
	if ctx.IsSet("max-depth") {
		opts.MaxDepth = ctx.Int("max-depth")
	}
	if ctx.IsSet("max-leaf-tris") {
		opts.MaxLeafTris = ctx.Int("max-leaf-tris")
	}

	return opts, nil
}

// Get the mesh to world transform from the command flags.
func worldMatrix(ctx *cli.Context) (mgl32.Mat4, error) {
	return parseTransform(ctx.String("translate"), ctx.String("rotate"), ctx.String("scale"))
}

// Build a T·R·S matrix from its textual components. Empty values leave the
// component at its identity. A single scale value applies to all axes.
func parseTransform(translate, rotate, scale string) (mgl32.Mat4, error) {
	t, r, s := types.Vec3{}, types.Vec3{}, types.XYZ(1, 1, 1)

	var err error
	if translate != "" {
		if t, err = parseVec3(translate); err != nil {
			return mgl32.Ident4(), fmt.Errorf("translate: %w", err)
		}
	}
	if rotate != "" {
		if r, err = parseVec3(rotate); err != nil {
			return mgl32.Ident4(), fmt.Errorf("rotate: %w", err)
		}
	}
	if scale != "" {
		if uniform, convErr := strconv.ParseFloat(strings.TrimSpace(scale), 32); convErr == nil {
			s = types.XYZ(float32(uniform), float32(uniform), float32(uniform))
		} else if s, err = parseVec3(scale); err != nil {
			return mgl32.Ident4(), fmt.Errorf("scale: %w", err)
		}
		if s[0] == 0 || s[1] == 0 || s[2] == 0 {
			return mgl32.Ident4(), fmt.Errorf("scale: components must be non-zero")
		}
	}

	return types.TRS(t, r, s), nil
}

// Parse a "x,y,z" vector.
func parseVec3(val string) (types.Vec3, error) {
	var v types.Vec3
	tokens := strings.Split(val, ",")
	if len(tokens) != 3 {
		return v, fmt.Errorf("expected 3 comma-separated values; got %q", val)
	}

	for idx, token := range tokens {
		f, err := strconv.ParseFloat(strings.TrimSpace(token), 32)
		if err != nil {
			return v, fmt.Errorf("invalid vector component %q", token)
		}
		v[idx] = float32(f)
	}
	return v, nil
}

// Get the ray query from the command flags. Rays are read from the --rays
// resource (a JSON array of {"origin", "direction"} objects) if set or from
// the --origin and --dir flags otherwise.
func rayQuery(ctx *cli.Context) (*tracer.Query, error) {
	side, err := bvh.ParseSide(ctx.String("side"))
	if err != nil {
		return nil, err
	}

	q := &tracer.Query{
		Near:         float32(ctx.Float64("near")),
		Far:          float32(ctx.Float64("far")),
		Side:         side,
		FirstHitOnly: ctx.Bool("first"),
	}
	if q.Far < q.Near {
		return nil, fmt.Errorf("far clip %f is less than near clip %f", q.Far, q.Near)
	}

	if raysFile := ctx.String("rays"); raysFile != "" {
		if q.Rays, err = readRays(raysFile); err != nil {
			return nil, err
		}
		return q, nil
	}

	if ctx.String("origin") == "" || ctx.String("dir") == "" {
		return nil, fmt.Errorf("either --rays or both --origin and --dir must be specified")
	}
	origin, err := parseVec3(ctx.String("origin"))
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	dir, err := parseVec3(ctx.String("dir"))
	if err != nil {
		return nil, fmt.Errorf("dir: %w", err)
	}
	q.Rays = []bvh.Ray{{Origin: origin, Direction: dir}}
	return q, nil
}

// Load a ray list from a local file or URL.
func readRays(pathToRays string) ([]bvh.Ray, error) {
	res, err := asset.NewResource(pathToRays, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var rays []bvh.Ray
	if err = json.NewDecoder(res).Decode(&rays); err != nil {
		return nil, fmt.Errorf("%s: %w", res.Path(), err)
	}
	if len(rays) == 0 {
		return nil, fmt.Errorf("%s: no rays defined", res.Path())
	}
	return rays, nil
}
