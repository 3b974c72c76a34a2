package main

import (
	"fmt"
	"math"
	"os"

	"github.com/achilleasa/meshbvh/cmd"
	"github.com/urfave/cli"
)

var (
	buildFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "strategy, s",
			Value: "center",
			Usage: "split strategy used when building trees from wavefront files (center, average or sah)",
		},
		cli.IntFlag{
			Name:  "max-depth",
			Value: 40,
			Usage: "maximum tree depth",
		},
		cli.IntFlag{
			Name:  "max-leaf-tris",
			Value: 10,
			Usage: "maximum number of triangles per leaf before splitting",
		},
	}

	transformFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "translate",
			Usage: "mesh translation as x,y,z",
		},
		cli.StringFlag{
			Name:  "rotate",
			Usage: "mesh rotation as yaw,pitch,roll in degrees",
		},
		cli.StringFlag{
			Name:  "scale",
			Usage: "mesh scale as a single value or x,y,z",
		},
	}

	workerFlags = []cli.Flag{
		cli.IntFlag{
			Name:  "workers, w",
			Value: 1,
			Usage: "number of tracer workers",
		},
	}

	rayFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "origin",
			Usage: "ray origin as x,y,z",
		},
		cli.StringFlag{
			Name:  "dir",
			Usage: "ray direction as x,y,z",
		},
		cli.StringFlag{
			Name:  "rays",
			Usage: "load rays from a JSON file or URL",
		},
		cli.Float64Flag{
			Name:  "near",
			Value: 0,
			Usage: "near clip distance",
		},
		cli.Float64Flag{
			Name:  "far",
			Value: math.MaxFloat32,
			Usage: "far clip distance",
		},
		cli.StringFlag{
			Name:  "side",
			Value: "front",
			Usage: "triangle faces that can be hit (front, back or double)",
		},
		cli.BoolFlag{
			Name:  "first",
			Usage: "only report the nearest hit for each ray",
		},
		cli.BoolFlag{
			Name:  "json",
			Usage: "print hits as JSON",
		},
	}
)

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "meshbvh"
	app.Usage = "build bounding volume hierarchies for triangle meshes and cast rays against them"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "log level (error, warning, notice, info or debug); overrides -v and -vv",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile wavefront meshes into a binary compressed format",
			Description: `
Parse a mesh from a wavefront obj file, build a BVH tree to speed up ray
intersection tests and write the mesh and tree to a compressed archive
with a .bvh extension.

The archive can be supplied as an argument to the info, raycast and serve
commands.`,
			ArgsUsage: "mesh_file1.obj mesh_file2.obj ...",
			Flags: flags(buildFlags, []cli.Flag{
				cli.StringFlag{
					Name:  "codec, c",
					Value: "zstd",
					Usage: "archive compression codec (zstd or snappy)",
				},
			}),
			Action: cmd.CompileMesh,
		},
		{
			Name:      "info",
			Usage:     "display mesh and tree statistics",
			ArgsUsage: "mesh_file.obj|mesh_file.bvh",
			Flags:     buildFlags,
			Action:    cmd.ShowMeshInfo,
		},
		{
			Name:  "raycast",
			Usage: "cast rays against a mesh",
			Description: `
Cast a single ray (--origin and --dir) or a batch of rays loaded from a JSON
file (--rays) against a mesh. Rays are given in world space; the transform
flags place the mesh in the world.`,
			ArgsUsage: "mesh_file.obj|mesh_file.bvh",
			Flags:     flags(buildFlags, transformFlags, workerFlags, rayFlags),
			Action:    cmd.Raycast,
		},
		{
			Name:      "serve",
			Usage:     "serve raycast requests over websockets",
			ArgsUsage: "mesh_file.obj|mesh_file.bvh",
			Flags: flags(buildFlags, transformFlags, workerFlags, []cli.Flag{
				cli.StringFlag{
					Name:  "addr",
					Value: ":8080",
					Usage: "listen address",
				},
			}),
			Action: cmd.Serve,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
