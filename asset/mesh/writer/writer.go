package writer

import (
	"bufio"
	"os"
	"time"

	"github.com/achilleasa/meshbvh/asset/mesh"
	"github.com/achilleasa/meshbvh/log"
)

// The Writer interface is implemented by all mesh writers.
type Writer interface {
	// Write a compiled mesh.
	Write(*mesh.Mesh) error
}

// Write a compiled mesh archive to filename using the given codec.
func WriteMesh(m *mesh.Mesh, filename string, codec mesh.Codec) error {
	return newArchiveWriter(filename, codec).Write(m)
}

type archiveWriter struct {
	logger   log.Logger
	meshFile string
	codec    mesh.Codec
}

// Create a new compiled mesh archive writer.
func newArchiveWriter(meshFile string, codec mesh.Codec) *archiveWriter {
	return &archiveWriter{
		logger:   log.New("archive writer"),
		meshFile: meshFile,
		codec:    codec,
	}
}

// Write the mesh archive. A partially written file is removed on error.
func (w *archiveWriter) Write(m *mesh.Mesh) (err error) {
	w.logger.Noticef("writing %s compressed mesh to %s", w.codec, w.meshFile)
	start := time.Now()

	f, err := os.Create(w.meshFile)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(w.meshFile)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = m.Encode(bw, w.codec); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}

	w.logger.Noticef("compressed mesh in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}
