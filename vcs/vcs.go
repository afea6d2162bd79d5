// Package vcs abstracts the version-control backend behind the narrow set of
// changelist operations the pipeline needs. Path patterns use forward slashes
// relative to the branch root.
package vcs

import "context"

// Provider is a version-control backend holding one pending change.
type Provider interface {
	// CreateChange opens a new pending changelist and returns its id.
	CreateChange(ctx context.Context, description string) (string, error)
	// Sync brings the files matching pattern to the latest revision.
	Sync(ctx context.Context, pattern string) error
	// PreviewSync reports which files matching pattern are out of date,
	// without syncing them.
	PreviewSync(ctx context.Context, pattern string) ([]string, error)
	// Edit opens the files matching pattern for edit in the given change.
	Edit(ctx context.Context, change, pattern string) error
	// Revert discards pending edits matching pattern from the change.
	Revert(ctx context.Context, change, pattern string) error
	// RevertFiles discards pending edits for an explicit file list.
	RevertFiles(ctx context.Context, change string, files []string) error
	// RevertUnchanged discards files opened in the change whose content is
	// identical to the head revision.
	RevertUnchanged(ctx context.Context, change string) error
	// Submit commits the change and returns the submitted change id. An
	// empty change is a successful no-op.
	Submit(ctx context.Context, change string) (string, error)
	// DeleteChange abandons an empty pending change.
	DeleteChange(ctx context.Context, change string) error
}

// Null is the Provider used when the run is not attached to version control.
// Every operation succeeds without doing anything.
type Null struct{}

var _ Provider = Null{}

func (Null) CreateChange(ctx context.Context, description string) (string, error) { return "", nil }
func (Null) Sync(ctx context.Context, pattern string) error                       { return nil }
func (Null) PreviewSync(ctx context.Context, pattern string) ([]string, error)    { return nil, nil }
func (Null) Edit(ctx context.Context, change, pattern string) error               { return nil }
func (Null) Revert(ctx context.Context, change, pattern string) error             { return nil }
func (Null) RevertFiles(ctx context.Context, change string, files []string) error { return nil }
func (Null) RevertUnchanged(ctx context.Context, change string) error             { return nil }
func (Null) Submit(ctx context.Context, change string) (string, error)            { return "", nil }
func (Null) DeleteChange(ctx context.Context, change string) error                { return nil }
