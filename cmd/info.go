package cmd

import (
	"errors"

	"github.com/achilleasa/meshbvh/asset/mesh/reader"
	"github.com/urfave/cli"
)

// Display mesh and tree info for a wavefront mesh or compiled archive.
func ShowMeshInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing mesh file argument")
	}

	opts, err := buildOptions(ctx)
	if err != nil {
		return err
	}

	m, err := reader.ReadMesh(ctx.Args().First(), opts)
	if err != nil {
		return err
	}

	logger.Noticef("mesh %q built with %s strategy (max depth %d, max leaf tris %d)\n%s",
		m.Name, m.Options.Strategy, m.Options.MaxDepth, m.Options.MaxLeafTris, m.Stats())
	logger.Noticef("tree information:\n%s", m.Tree.Stats().Table())
	logger.Noticef("bounds: %v", m.Tree.BBox())
	return nil
}
