package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/achilleasa/meshbvh/server"
	"github.com/achilleasa/meshbvh/tracer"
	"github.com/urfave/cli"
)

// Serve raycast requests for a mesh over websockets.
func Serve(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	m, err := loadMesh(ctx)
	if err != nil {
		return err
	}

	pool, err := tracer.NewCPUPool(m.Tree, ctx.Int("workers"))
	if err != nil {
		return err
	}
	defer pool.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(m, pool).ListenAndServe(sigCtx, ctx.String("addr"))
}
