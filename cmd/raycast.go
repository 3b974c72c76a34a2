package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/achilleasa/meshbvh/asset/mesh"
	"github.com/achilleasa/meshbvh/asset/mesh/reader"
	"github.com/achilleasa/meshbvh/bvh"
	"github.com/achilleasa/meshbvh/tracer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Cast rays against a mesh and display the hits.
func Raycast(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	m, err := loadMesh(ctx)
	if err != nil {
		return err
	}

	q, err := rayQuery(ctx)
	if err != nil {
		return err
	}
	for idx, ray := range q.Rays {
		q.Rays[idx] = m.Tree.LocalRay(ray)
	}

	pool, err := tracer.NewCPUPool(m.Tree, ctx.Int("workers"))
	if err != nil {
		return err
	}
	defer pool.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	hits, err := pool.Cast(sigCtx, q)
	if err != nil {
		return err
	}
	logger.Infof("batch statistics\n%s", pool.Stats().Table())

	if ctx.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	displayHits(hits)
	return nil
}

// Load the mesh given as the single command argument and apply the
// transform flags.
func loadMesh(ctx *cli.Context) (*mesh.Mesh, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing mesh file argument")
	}

	opts, err := buildOptions(ctx)
	if err != nil {
		return nil, err
	}

	matrixWorld, err := worldMatrix(ctx)
	if err != nil {
		return nil, err
	}

	m, err := reader.ReadMesh(ctx.Args().First(), opts)
	if err != nil {
		return nil, err
	}
	m.Tree.SetMatrixWorld(matrixWorld)
	return m, nil
}

func displayHits(hits [][]bvh.Hit) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Ray", "Distance", "Point", "Triangle", "Normal", "UV"})

	var total int
	for rayIndex, rayHits := range hits {
		for _, hit := range rayHits {
			uv := "-"
			if hit.HasUV {
				uv = fmt.Sprintf("(%.4f, %.4f)", hit.UV[0], hit.UV[1])
			}
			table.Append([]string{
				fmt.Sprintf("%d", rayIndex),
				fmt.Sprintf("%.4f", hit.Distance),
				fmt.Sprintf("(%.4f, %.4f, %.4f)", hit.Point[0], hit.Point[1], hit.Point[2]),
				fmt.Sprintf("%d %v", hit.Triangle, hit.Face),
				fmt.Sprintf("(%.3f, %.3f, %.3f)", hit.Normal[0], hit.Normal[1], hit.Normal[2]),
				uv,
			})
			total++
		}
	}
	table.SetFooter([]string{"", "", "", "", "TOTAL", fmt.Sprintf("%d", total)})

	table.Render()
	logger.Noticef("hits for %d ray(s)\n%s", len(hits), buf.String())
}
