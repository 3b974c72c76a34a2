package cmd

import (
	"strings"

	"github.com/achilleasa/meshbvh/asset/mesh"
	"github.com/achilleasa/meshbvh/asset/mesh/reader"
	"github.com/achilleasa/meshbvh/asset/mesh/writer"
	"github.com/urfave/cli"
)

// Compile wavefront meshes to the binary archive format.
func CompileMesh(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	opts, err := buildOptions(ctx)
	if err != nil {
		return err
	}

	codec, err := mesh.ParseCodec(ctx.String("codec"))
	if err != nil {
		return err
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		meshFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(meshFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", meshFile)
			continue
		}

		logger.Noticef("parsing and compiling mesh: %s", meshFile)
		m, err := reader.ReadMesh(meshFile, opts)
		if err != nil {
			return err
		}

		// Display compiled mesh info
		logger.Noticef("mesh information:\n%s", m.Stats())
		logger.Noticef("tree information:\n%s", m.Tree.Stats().Table())

		archiveFile := strings.TrimSuffix(meshFile, ".obj") + ".bvh"
		if err = writer.WriteMesh(m, archiveFile, codec); err != nil {
			return err
		}
		logger.Noticef("wrote %s (%s)", archiveFile, codec)
	}

	return nil
}
