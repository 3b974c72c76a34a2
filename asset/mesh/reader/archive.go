package reader

import (
	"bufio"
	"fmt"
	"time"

	"github.com/achilleasa/meshbvh/asset"
	"github.com/achilleasa/meshbvh/asset/mesh"
	"github.com/achilleasa/meshbvh/log"
)

type archiveReader struct {
	logger log.Logger
}

// Create a new compiled mesh archive reader.
func newArchiveReader() *archiveReader {
	return &archiveReader{
		logger: log.New("archive reader"),
	}
}

// Read a compiled mesh archive.
func (r *archiveReader) Read(res *asset.Resource) (*mesh.Mesh, error) {
	r.logger.Noticef(`loading compiled mesh from "%s"`, res.Path())
	start := time.Now()

	m, err := mesh.Decode(bufio.NewReader(res))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Path(), err)
	}

	r.logger.Noticef("loaded mesh %q in %d ms", m.Name, time.Since(start).Nanoseconds()/1e6)
	return m, nil
}
