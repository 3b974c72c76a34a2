package cmd

import (
	"fmt"

	"github.com/achilleasa/meshbvh/log"
	"github.com/urfave/cli"
)

var logger = log.New("meshbvh")

// Apply the global logging flags. An explicit --log-level takes precedence
// over the -v and -vv shortcuts.
func setupLogging(ctx *cli.Context) error {
	level := log.Notice
	switch {
	case ctx.GlobalBool("vv"):
		level = log.Debug
	case ctx.GlobalBool("v"):
		level = log.Info
	}

	if name := ctx.GlobalString("log-level"); name != "" {
		parsed, err := log.ParseLevel(name)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		level = parsed
	}

	log.SetLevel(level)
	return nil
}
