package main

import (
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
)

var discoverCmd = &cli.Command{
	Name:  "discover",
	Usage: "List the localization units a run would cover",
	Flags: discoveryFlags,
	Action: func(cctx *cli.Context) error {
		root, err := homedir.Expand(cctx.String("project-root"))
		if err != nil {
			return err
		}
		root, err = filepath.Abs(root)
		if err != nil {
			return err
		}

		batches, missing, err := discoverBatches(cctx, root)
		if err != nil {
			return err
		}

		for _, b := range batches {
			kind := "base"
			switch {
			case b.RemotePrefix != "":
				kind = "plugin " + b.RemotePrefix
			case strings.Contains(b.TargetDir, "/Platforms/"):
				kind = "platform"
			}
			fmt.Printf("%s (%s): %s\n", b.TargetDir, kind, strings.Join(b.Projects, ", "))
		}
		for _, name := range missing {
			fmt.Printf("warning: included plugin %s not found\n", name)
		}
		return nil
	},
}
