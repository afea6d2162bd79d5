package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/locforge/locforge/batch"
	"github.com/locforge/locforge/change"
	"github.com/locforge/locforge/config"
	"github.com/locforge/locforge/locservice"
	"github.com/locforge/locforge/reconcile"
	"github.com/locforge/locforge/runner"
	"github.com/locforge/locforge/steps"
	"github.com/locforge/locforge/tool"
	"github.com/locforge/locforge/vcs"
)

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "Run the localization pipeline",
	Flags: append(discoveryFlags,
		&cli.StringSliceFlag{
			Name:     "step",
			Usage:    "pipeline step to run (repeatable): Download, Gather, Import, Export, Compile, GenerateReports, Upload",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "parallel",
			Usage: "launch all tool processes up front and join them afterwards",
		},
		&cli.BoolFlag{
			Name:  "submit",
			Usage: "submit the pending change when the run completes (also requires VCS.AllowSubmit in config)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "plan everything, launch nothing",
		},
		&cli.StringSliceFlag{
			Name:  "extra-arg",
			Usage: "extra argument passed through to the gather tool (repeatable)",
		},
	),
	Action: runAction,
}

func runAction(cctx *cli.Context) error {
	start := time.Now()

	cfg, err := config.FromFile(cctx.String("config"))
	if err != nil {
		return err
	}

	root, err := homedir.Expand(cctx.String("project-root"))
	if err != nil {
		return err
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}

	requested, err := steps.ParseSet(cctx.StringSlice("step"))
	if err != nil {
		return err
	}

	batches, missingPlugins, err := discoverBatches(cctx, root)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		return xerrors.New("no localization units discovered; pass --project, --include-platforms or --include-plugins")
	}

	tasks, err := runner.Plan(root, batches, requested)
	if err != nil {
		return err
	}

	if cctx.Bool("dry-run") {
		return printPlan(tasks, requested)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	allowSubmit := cctx.Bool("submit") && cfg.VCS.AllowSubmit
	mgr := change.NewManager(provider, allowSubmit)
	if err := mgr.Open(cctx.Context, "locforge: update localization for steps "+requested.String()); err != nil {
		return err
	}

	for _, t := range tasks {
		if err := mgr.PrepareUnit(cctx.Context, t.Batch); err != nil {
			return err
		}
	}

	// Snapshot strictly before any launch; the after snapshot strictly after
	// the wait-all barrier inside the scheduler, or the diff means nothing.
	before := snapshotTasks(tasks, cfg.Tool.PortableObjectExt)

	sched := &runner.Scheduler{
		Launcher:  tool.CommandLauncher{},
		Connector: newConnector(cfg),
		Requested: requested,
		Parallel:  cctx.Bool("parallel"),
		Tool: tool.Options{
			Binary:       cfg.Tool.Binary,
			ProjectFile:  cfg.Tool.ProjectFile,
			EnableSCC:    cfg.VCS.Kind != "" && cfg.VCS.Kind != "none",
			SCCProvider:  cfg.VCS.Kind,
			SCCArgs:      sccArgs(cfg),
			Unattended:   true,
			LogConflicts: true,
			ExtraArgs:    append(cfg.Tool.ExtraArgs, cctx.StringSlice("extra-arg")...),
		},
	}

	sum, err := sched.Run(cctx.Context, tasks)
	if err != nil {
		return err
	}

	after := snapshotTasks(tasks, cfg.Tool.PortableObjectExt)
	unchanged := reconcile.Unchanged(before, after)

	if err := mgr.RevertUnmodified(cctx.Context, unchanged); err != nil {
		return err
	}
	if _, err := mgr.Finalize(cctx.Context); err != nil {
		return err
	}

	if n := len(missingPlugins); n > 0 {
		color.Yellow("%d explicitly included plugins were not found: %v", n, missingPlugins)
	}
	if sum.Failed > 0 {
		color.Red("%d of %d tool runs failed (%d uploads skipped)", sum.Failed, sum.Launched, sum.Skipped)
	}
	color.Green("localization run finished in %s: %d tool runs, %d unchanged files reverted",
		time.Since(start).Round(time.Second), sum.Launched, len(unchanged))
	return nil
}

// snapshotTasks digests every task's localization tree into one snapshot.
// Best-effort by design: a unit without a content tree contributes nothing.
func snapshotTasks(tasks []*runner.Task, ext string) reconcile.Snapshot {
	snap := make(reconcile.Snapshot)
	for _, t := range tasks {
		s, err := reconcile.Take(filepath.Join(t.WorkDir, "Content", "Localization"), ext)
		if err != nil {
			log.Warnf("snapshotting %s: %s", t.Batch.TargetDir, err)
			continue
		}
		snap.Merge(s)
	}
	return snap
}

func newProvider(cfg *config.Config) (vcs.Provider, error) {
	switch cfg.VCS.Kind {
	case "", "none":
		return vcs.Null{}, nil
	case "perforce":
		return &vcs.Perforce{
			Port:   cfg.VCS.Port,
			Client: cfg.VCS.Client,
			User:   cfg.VCS.User,
			Branch: cfg.VCS.Branch,
		}, nil
	default:
		return nil, xerrors.Errorf("unknown VCS kind %q", cfg.VCS.Kind)
	}
}

// sccArgs carries the version-control connection settings through to the
// tool, so files it rewrites land in the same workspace.
func sccArgs(cfg *config.Config) []string {
	if cfg.VCS.Kind != "perforce" {
		return nil
	}
	var args []string
	if cfg.VCS.Port != "" {
		args = append(args, "-P4Port="+cfg.VCS.Port)
	}
	if cfg.VCS.Client != "" {
		args = append(args, "-P4Client="+cfg.VCS.Client)
	}
	if cfg.VCS.User != "" {
		args = append(args, "-P4User="+cfg.VCS.User)
	}
	return args
}

func newConnector(cfg *config.Config) locservice.Connector {
	if cfg.Service.Endpoint == "" {
		return nil
	}
	return &locservice.HTTPConnector{
		Endpoint: cfg.Service.Endpoint,
		APIKey:   cfg.Service.APIKey,
	}
}

func printPlan(tasks []*runner.Task, requested steps.Set) error {
	for _, t := range tasks {
		fmt.Printf("unit %s\n", t.Batch.TargetDir)
		for _, pi := range t.Projects {
			configs := pi.ConfigsFor(requested)
			if len(configs) == 0 {
				fmt.Printf("  project %s: no applicable steps\n", pi.Name)
				continue
			}
			fmt.Printf("  project %s:\n", pi.Name)
			for _, c := range configs {
				fmt.Printf("    %s\n", c)
			}
		}
	}
	return nil
}

var discoveryFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:  "project",
		Usage: "localization project in the base content directory (repeatable)",
	},
	&cli.BoolFlag{
		Name:  "include-platforms",
		Usage: "include per-platform overlay units",
	},
	&cli.BoolFlag{
		Name:  "include-plugins",
		Usage: "include plugin units",
	},
	&cli.StringSliceFlag{
		Name:  "include-plugin",
		Usage: "restrict plugin units to this plugin (repeatable)",
	},
	&cli.StringSliceFlag{
		Name:  "exclude-plugin",
		Usage: "exclude this plugin (repeatable)",
	},
}

func discoverBatches(cctx *cli.Context, root string) ([]batch.Batch, []string, error) {
	return batch.Discover(root, cctx.String("content-dir"), batch.Options{
		Projects:         cctx.StringSlice("project"),
		IncludePlatforms: cctx.Bool("include-platforms"),
		IncludePlugins:   cctx.Bool("include-plugins"),
		PluginsInclude:   cctx.StringSlice("include-plugin"),
		PluginsExclude:   cctx.StringSlice("exclude-plugin"),
	})
}
