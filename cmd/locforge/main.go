package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/locforge/locforge/build"
)

var log = logging.Logger("locforge")

func main() {
	_ = logging.SetLogLevel("*", "INFO")

	app := &cli.App{
		Name:    "locforge",
		Usage:   "Batch localization pipeline orchestrator",
		Version: build.UserVersion(),
		Commands: []*cli.Command{
			runCmd,
			discoverCmd,
			resolveCmd,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "project-root",
				Usage:   "project root directory",
				Value:   ".",
				EnvVars: []string{"LOCFORGE_ROOT"},
			},
			&cli.StringFlag{
				Name:  "content-dir",
				Usage: "base content unit directory, relative to the project root",
				Value: ".",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the locforge TOML config",
				Value:   "locforge.toml",
				EnvVars: []string{"LOCFORGE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Before: func(cctx *cli.Context) error {
			return logging.SetLogLevel("*", cctx.String("log-level"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Errorf("%+v", err)
		os.Exit(1)
	}
}
