package reader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/meshbvh/asset"
	"github.com/achilleasa/meshbvh/asset/mesh"
	"github.com/achilleasa/meshbvh/bvh"
	"github.com/achilleasa/meshbvh/log"
	"github.com/achilleasa/meshbvh/types"
)

// A face corner references a vertex and an optional uv coordinate (-1 when
// missing). Corners with the same references share an output vertex.
type faceCorner struct {
	vertex int
	uv     int
}

type wavefrontReader struct {
	logger log.Logger
	ctx    context.Context
	opts   bvh.Options

	// Name of the first object/group defined in the file.
	name string

	// Parsed vertices and uv coords.
	vertexList []types.Vec3
	uvList     []types.Vec2

	// Output geometry.
	cornerIndex map[faceCorner]uint32
	corners     []faceCorner
	indices     []uint32
	hasUVs      bool

	// An error stack that provides additional error information when
	// mesh files include other files.
	errStack []string
}

// Create a new wavefront mesh reader.
func newWavefrontReader(ctx context.Context, opts bvh.Options) *wavefrontReader {
	return &wavefrontReader{
		logger:      log.New("wavefront reader"),
		ctx:         ctx,
		opts:        opts,
		vertexList:  make([]types.Vec3, 0),
		uvList:      make([]types.Vec2, 0),
		cornerIndex: make(map[faceCorner]uint32),
		errStack:    make([]string, 0),
	}
}

// Parse a wavefront mesh and compile its BVH. All objects and groups are
// merged into a single mesh.
func (r *wavefrontReader) Read(res *asset.Resource) (*mesh.Mesh, error) {
	r.logger.Noticef(`parsing mesh from "%s"`, res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}
	if r.name == "" {
		r.name = strings.TrimSuffix(res.Name(), filepath.Ext(res.Name()))
	}

	geo := r.geometry()
	r.logger.Noticef(
		"parsed %d vertices and %d triangles in %d ms",
		geo.VertexCount(), geo.TriangleCount(), time.Since(start).Nanoseconds()/1e6,
	)

	start = time.Now()
	m, err := mesh.Compile(r.name, geo, r.opts)
	if err != nil {
		return nil, err
	}
	r.logger.Noticef("compiled BVH for mesh %q in %d ms", r.name, time.Since(start).Nanoseconds()/1e6)
	return m, nil
}

// Assemble the output geometry from the de-duplicated face corners.
func (r *wavefrontReader) geometry() bvh.Geometry {
	geo := bvh.Geometry{
		Positions: make([]float32, 0, 3*len(r.corners)),
		Indices:   r.indices,
	}
	if r.hasUVs {
		geo.UVs = make([]float32, 0, 2*len(r.corners))
	}

	for _, corner := range r.corners {
		v := r.vertexList[corner.vertex]
		geo.Positions = append(geo.Positions, v[0], v[1], v[2])
		if !r.hasUVs {
			continue
		}

		var uv types.Vec2
		if corner.uv >= 0 {
			uv = r.uvList[corner.uv]
		}
		geo.UVs = append(geo.UVs, uv[0], uv[1])
	}
	return geo
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n"))
	}

	return errors.New(strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object format.
func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/uv offsets we can apply them while
	// parsing faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			if err := r.include(res, lineNum, lineTokens[1]); err != nil {
				return err
			}
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			r.vertexList = append(r.vertexList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			r.uvList = append(r.uvList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			if r.name == "" {
				r.name = lineTokens[1]
			} else {
				r.logger.Infof(`merging object "%s" into mesh "%s"`, lineTokens[1], r.name)
			}
		case "f":
			if err := r.parseFace(lineTokens, relVertexOffset, relUvOffset); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
		case "vn", "vp", "s", "usemtl", "mtllib", "l":
			// Normals, materials and lines do not contribute to the BVH
		default:
			r.logger.Debugf(`[%s: %d] skipping unsupported statement "%s"`, res.Path(), lineNum, lineTokens[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err)
	}
	return nil
}

// Parse an included object file.
func (r *wavefrontReader) include(res *asset.Resource, lineNum int, target string) error {
	r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))
	incRes, err := asset.NewResourceContext(r.ctx, target, res)
	if err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err)
	}
	defer incRes.Close()

	if err = r.parse(incRes); err != nil {
		return err
	}
	r.popFrame()
	return nil
}

// Parse face definition. Each face definition consists of 3 or 4 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex/uv list. Quads are split into two triangles.
func (r *wavefrontReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset int) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var corners [4]faceCorner
	var err error
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		corners[arg].vertex, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}

		corners[arg].uv = -1
		if expIndices > 1 && vTokens[1] != "" {
			corners[arg].uv, err = selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset)
			if err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
			r.hasUVs = true
		}
	}

	triList := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		triList = append(triList, [3]int{0, 2, 3})
	}
	for _, tri := range triList {
		for _, cornerIndex := range tri {
			r.indices = append(r.indices, r.vertexFor(corners[cornerIndex]))
		}
	}
	return nil
}

// Get the output vertex for a face corner, allocating it on first use.
func (r *wavefrontReader) vertexFor(corner faceCorner) uint32 {
	if index, exists := r.cornerIndex[corner]; exists {
		return index
	}
	index := uint32(len(r.corners))
	r.corners = append(r.corners, corner)
	r.cornerIndex[corner] = index
	return index
}

// Given an index for a face coord type (vertex, tex) calculate the proper
// offset into the coord list. Wavefront format can also use negative indices
// to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row. A third (w) coordinate is ignored.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
