// Package runner plans and executes localization tasks: one task per
// discovered unit, one tool invocation per (task, project) pair with at least
// one applicable step.
package runner

import (
	"context"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/locforge/locforge/batch"
	"github.com/locforge/locforge/locproj"
	"github.com/locforge/locforge/locservice"
	"github.com/locforge/locforge/steps"
	"github.com/locforge/locforge/tool"
)

var log = logging.Logger("runner")

// Task binds a unit to its resolved projects and in-flight tool processes.
// Procs always has one slot per project, in project order; a nil slot means
// that project had no applicable step config for the requested set.
type Task struct {
	Batch    batch.Batch
	WorkDir  string
	Projects []*locproj.ProjectInfo
	Procs    []tool.Proc
}

// Plan expands discovered batches into tasks, resolving every project's step
// configuration. Any resolution failure is fatal: partial configuration means
// no safe partial pipeline can run.
func Plan(root string, batches []batch.Batch, requested steps.Set) ([]*Task, error) {
	tasks := make([]*Task, 0, len(batches))
	for _, b := range batches {
		workDir := filepath.Join(root, filepath.FromSlash(b.WorkingDir))

		t := &Task{Batch: b, WorkDir: workDir}
		for _, name := range b.Projects {
			pi, err := locproj.Resolve(workDir, name, requested)
			if err != nil {
				return nil, xerrors.Errorf("unit %s: %w", b.TargetDir, err)
			}
			t.Projects = append(t.Projects, pi)
		}
		t.Procs = make([]tool.Proc, len(t.Projects))
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// remoteName disambiguates translation-service artifacts across plugins by
// prefixing the project with the unit's remote prefix.
func remoteName(b batch.Batch, project string) string {
	if b.RemotePrefix == "" {
		return project
	}
	return b.RemotePrefix + "/" + project
}

// Scheduler runs the tool across all tasks and drives the per-project
// download/upload connector calls around the tool phase.
type Scheduler struct {
	Launcher  tool.Launcher
	Connector locservice.Connector
	Requested steps.Set

	// Tool carries the invocation flags shared by every launch; ConfigFiles
	// and MultiProcess are filled in per launch.
	Tool tool.Options

	// Parallel launches every applicable process up front and joins them in
	// a single wait-all pass, relying on the tool's own multi-process
	// coordination. Sequential mode waits on each process before launching
	// the next.
	Parallel bool
}

// Summary is the per-run outcome report.
type Summary struct {
	Launched int
	Failed   int
	Skipped  int
}

// Run executes the tool for every applicable (task, project) pair and then
// performs the upload step for projects whose tool run succeeded. Process
// handles are always released, even when a later stage fails.
func (s *Scheduler) Run(ctx context.Context, tasks []*Task) (sum Summary, err error) {
	defer func() {
		for _, t := range tasks {
			for _, p := range t.Procs {
				if p != nil {
					p.Release()
				}
			}
		}
	}()

	if s.Requested.Has(steps.Download) {
		s.download(ctx, tasks)
	}

	if err := s.launch(ctx, tasks, &sum); err != nil {
		return sum, err
	}

	failed := s.waitAll(tasks)
	for _, projects := range failed {
		sum.Failed += len(projects)
	}

	if s.Requested.Has(steps.Upload) {
		sum.Skipped = s.upload(ctx, tasks, failed)
	}

	return sum, nil
}

// download fetches the latest translations for every project that has import
// settings. Failures are warnings: a stale download is recoverable, a
// half-configured project is not and was rejected at plan time.
func (s *Scheduler) download(ctx context.Context, tasks []*Task) {
	if s.Connector == nil {
		log.Warnf("download requested but no translation service is configured")
		return
	}
	for _, t := range tasks {
		for _, pi := range t.Projects {
			if pi.ImportInfo == nil {
				continue
			}
			name := remoteName(t.Batch, pi.Name)
			if err := s.Connector.Download(ctx, name, pi.ImportInfo, t.WorkDir); err != nil {
				log.Warnf("download for %s failed: %s", name, err)
			}
		}
	}
}

// launch starts one process per (task, project) pair with a non-empty
// applicable config list, recording a slot for every project either way.
func (s *Scheduler) launch(ctx context.Context, tasks []*Task, sum *Summary) error {
	for _, t := range tasks {
		for i, pi := range t.Projects {
			configs := pi.ConfigsFor(s.Requested)
			if len(configs) == 0 {
				log.Debugf("project %s has no applicable steps, skipping launch", pi.Name)
				continue
			}

			opts := s.Tool
			opts.ConfigFiles = configs
			opts.MultiProcess = s.Parallel

			proc, err := s.Launcher.Launch(ctx, t.WorkDir, opts)
			if err != nil {
				return xerrors.Errorf("launching tool for project %s: %w", pi.Name, err)
			}
			t.Procs[i] = proc
			sum.Launched++

			if !s.Parallel {
				// Sequential mode blocks here; the wait-all pass below still
				// runs so exit states are always logged on one code path.
				if _, err := proc.Wait(); err != nil {
					log.Warnf("waiting for project %s: %s", pi.Name, err)
				}
			}
		}
	}
	return nil
}

// waitAll joins every launched process in task/project order and logs its
// exit state. A non-zero exit does not abort the run; it only suppresses that
// project's upload. Returns the set of failed processes keyed by task and
// project index.
func (s *Scheduler) waitAll(tasks []*Task) map[*Task]map[int]bool {
	failed := make(map[*Task]map[int]bool)
	for _, t := range tasks {
		for i, p := range t.Procs {
			if p == nil {
				continue
			}
			code, err := p.Wait()
			name := t.Projects[i].Name
			switch {
			case err != nil:
				log.Errorf("project %s: tool did not run: %s", name, err)
			case code == 0:
				log.Infof("project %s: tool finished successfully", name)
				continue
			default:
				log.Errorf("project %s: tool exited with code %d, likely crashed", name, code)
			}
			if failed[t] == nil {
				failed[t] = make(map[int]bool)
			}
			failed[t][i] = true
		}
	}
	return failed
}

// upload pushes exports for projects whose tool run did not fail. Export can
// change the on-disk platform layout, so split paths are recomputed first.
// Returns how many uploads were skipped due to tool failures.
func (s *Scheduler) upload(ctx context.Context, tasks []*Task, failed map[*Task]map[int]bool) int {
	if s.Connector == nil {
		log.Warnf("upload requested but no translation service is configured")
		return 0
	}
	skipped := 0
	for _, t := range tasks {
		for i, pi := range t.Projects {
			if pi.ExportInfo == nil {
				continue
			}
			name := remoteName(t.Batch, pi.Name)
			if failed[t][i] {
				log.Warnf("skipping upload for %s: tool run failed", name)
				skipped++
				continue
			}
			pi.ExportInfo.RecomputeSplitPaths(t.WorkDir)
			if err := s.Connector.Upload(ctx, name, pi.ExportInfo, t.WorkDir); err != nil {
				log.Warnf("upload for %s failed: %s", name, err)
			}
		}
	}
	return skipped
}
