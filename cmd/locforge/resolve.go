package main

import (
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"

	"github.com/locforge/locforge/locproj"
	"github.com/locforge/locforge/steps"
)

var resolveCmd = &cli.Command{
	Name:      "resolve",
	Usage:     "Show how a project's step configuration resolves",
	ArgsUsage: "<project>",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "step",
			Usage: "requested step (repeatable); defaults to all",
		},
		&cli.StringFlag{
			Name:  "target-dir",
			Usage: "unit directory relative to the project root; defaults to the root itself",
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return cli.Exit("expected exactly one project name", 1)
		}
		project := cctx.Args().First()

		root, err := homedir.Expand(cctx.String("project-root"))
		if err != nil {
			return err
		}
		targetDir := filepath.Join(root, cctx.String("target-dir"))

		// With no explicit steps nothing is mandatory, so a partially
		// configured project still prints what it has.
		requested := steps.NewSet()
		if names := cctx.StringSlice("step"); len(names) > 0 {
			requested, err = steps.ParseSet(names)
			if err != nil {
				return err
			}
		}

		pi, err := locproj.Resolve(targetDir, project, requested)
		if err != nil {
			return err
		}

		mode := "modular"
		if pi.Monolithic() {
			mode = "monolithic"
		}
		fmt.Printf("project %s (%s)\n", pi.Name, mode)
		for _, si := range pi.Steps {
			fmt.Printf("  %-16s %s\n", si.Step, si.ConfigPath)
		}
		if pi.ImportInfo != nil {
			fmt.Printf("  import: dest=%s native=%s cultures=%s\n",
				pi.ImportInfo.DestinationPath, pi.ImportInfo.NativeCulture,
				strings.Join(pi.ImportInfo.CulturesToGenerate, ","))
		}
		if pi.ExportInfo != nil && pi.ExportInfo != pi.ImportInfo {
			fmt.Printf("  export: dest=%s native=%s cultures=%s\n",
				pi.ExportInfo.DestinationPath, pi.ExportInfo.NativeCulture,
				strings.Join(pi.ExportInfo.CulturesToGenerate, ","))
		}
		return nil
	},
}
