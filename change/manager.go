// Package change owns the single pending changelist shared by a pipeline run.
// One change is created up front and every task's edits land in it, so a run
// produces one atomic submit rather than one change per unit.
package change

import (
	"context"
	"path"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/locforge/locforge/batch"
	"github.com/locforge/locforge/vcs"
)

var log = logging.Logger("change")

// Manager drives the changelist through its lifecycle: open, per-task
// sync/edit, reconcile reverts, submit or abandon. All calls happen on the
// single orchestrating goroutine.
type Manager struct {
	provider    vcs.Provider
	allowSubmit bool
	id          string
}

func NewManager(provider vcs.Provider, allowSubmit bool) *Manager {
	return &Manager{provider: provider, allowSubmit: allowSubmit}
}

// ID returns the pending change id, empty until Open succeeds or when the
// provider is detached.
func (m *Manager) ID() string { return m.id }

// Open creates the pending change.
func (m *Manager) Open(ctx context.Context, description string) error {
	description += "\n[run " + uuid.New().String() + "]"
	id, err := m.provider.CreateChange(ctx, description)
	if err != nil {
		return xerrors.Errorf("creating pending change: %w", err)
	}
	m.id = id
	return nil
}

// PrepareUnit syncs a unit's config and content subtrees to latest and opens
// its localization tree for edit, so the gather tool never fights stale
// revisions.
func (m *Manager) PrepareUnit(ctx context.Context, b batch.Batch) error {
	configPattern := path.Join(b.TargetDir, "Config", "Localization", "...")
	contentPattern := path.Join(b.TargetDir, "Content", "Localization", "...")

	for _, pattern := range []string{configPattern, contentPattern} {
		stale, err := m.provider.PreviewSync(ctx, pattern)
		if err != nil {
			return xerrors.Errorf("preview sync %s: %w", pattern, err)
		}
		if len(stale) > 0 {
			log.Infof("%d files out of date under %s, syncing", len(stale), pattern)
		}
		if err := m.provider.Sync(ctx, pattern); err != nil {
			return xerrors.Errorf("sync %s: %w", pattern, err)
		}
	}

	if err := m.provider.Edit(ctx, m.id, contentPattern); err != nil {
		return xerrors.Errorf("edit %s: %w", contentPattern, err)
	}
	return nil
}

// RevertUnmodified drops an explicit list of files whose body digests did not
// change across the run.
func (m *Manager) RevertUnmodified(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	log.Infof("reverting %d files with unchanged content", len(files))
	return m.provider.RevertFiles(ctx, m.id, files)
}

// Finalize runs the catch-all revert-unchanged pass and submits if submission
// is globally permitted. An empty change after the reverts is a successful
// no-op. Returns the submitted change id, if any.
func (m *Manager) Finalize(ctx context.Context) (string, error) {
	if err := m.provider.RevertUnchanged(ctx, m.id); err != nil {
		return "", xerrors.Errorf("revert unchanged: %w", err)
	}

	if !m.allowSubmit {
		log.Infof("submission not permitted, leaving changelist %s pending", m.id)
		return "", nil
	}

	submitted, err := m.provider.Submit(ctx, m.id)
	if err != nil {
		return "", xerrors.Errorf("submit: %w", err)
	}
	if submitted == "" {
		log.Infof("nothing to submit")
	} else {
		log.Infof("submitted change %s", submitted)
	}
	return submitted, nil
}
