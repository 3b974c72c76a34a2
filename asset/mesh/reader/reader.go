package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/achilleasa/meshbvh/asset"
	"github.com/achilleasa/meshbvh/asset/mesh"
	"github.com/achilleasa/meshbvh/bvh"
)

var ErrUnsupportedFormat = errors.New("reader: unsupported file format")

// The Reader interface is implemented by all mesh readers.
type Reader interface {
	// Read a mesh from a resource.
	Read(*asset.Resource) (*mesh.Mesh, error)
}

// Read a mesh from a local file or http(s) URL. See ReadMeshContext.
func ReadMesh(filename string, opts bvh.Options) (*mesh.Mesh, error) {
	return ReadMeshContext(context.Background(), filename, opts)
}

// Read a mesh selecting the reader by file extension. Wavefront (.obj)
// meshes are compiled using opts; compiled archives (.bvh) carry their own
// tree and ignore opts.
func ReadMeshContext(ctx context.Context, filename string, opts bvh.Options) (*mesh.Mesh, error) {
	res, err := asset.NewResourceContext(ctx, filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var reader Reader
	switch res.Ext() {
	case ".obj":
		reader = newWavefrontReader(ctx, opts)
	case ".bvh":
		reader = newArchiveReader()
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, res.Ext())
	}
	return reader.Read(res)
}
