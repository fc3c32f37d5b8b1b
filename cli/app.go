// Package cli contains the potree-converter command line interface.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// Flags.
const (
	flagConfig    = "config"
	flagDebug     = "debug"
	flagMaxPoints = "max-points"
	flagName      = "name"
	flagOut       = "out"
)

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "potree-converter",
		Usage:           "convert point clouds into streamable octrees",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "convert a point cloud file (.las, .pcd, .csv, .xyz, .txt)",
				UsageText: "potree-converter convert [options] <input>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load conversion settings from `FILE`",
					},
					&cli.IntFlag{
						Name:  flagMaxPoints,
						Usage: "number of points a leaf buffers before it is split",
					},
					&cli.StringFlag{
						Name:    flagOut,
						Aliases: []string{"o"},
						Usage:   "write the converted cloud into `DIR` (default: <input>_potree)",
					},
					&cli.StringFlag{
						Name:  flagName,
						Usage: "name recorded in the metadata",
					},
				},
				Action: ConvertAction,
			},
			{
				Name:      "inspect",
				Usage:     "print a summary of a converted point cloud",
				UsageText: "potree-converter inspect <dir>",
				Action:    InspectAction,
			},
		},
	}
}
