package locproj

import (
	"os"
	"path/filepath"

	"github.com/locforge/locforge/steps"
)

// StepInfo pairs a pipeline step with the config file that implements it.
type StepInfo struct {
	Step       steps.Step
	ConfigPath string
}

// ImportExportInfo holds the parsed settings of an _Import or _Export config
// (or of a monolithic config, in which case one instance serves both roles).
type ImportExportInfo struct {
	DestinationPath     string
	ManifestName        string
	ArchiveName         string
	PortableObjectName  string
	NativeCulture       string
	CulturesToGenerate  []string
	UseCultureDirectory bool

	// splitPlatformPaths maps a culture to the per-platform output
	// directories that exist for it on disk. Export can change the on-disk
	// layout, so this is recomputed after an export step runs.
	splitPlatformPaths map[string][]string
}

// SplitPlatformPaths returns the per-platform output directories recorded for
// culture at the last recompute.
func (i *ImportExportInfo) SplitPlatformPaths(culture string) []string {
	return i.splitPlatformPaths[culture]
}

// RecomputeSplitPaths rescans <DestinationPath>/Platforms for per-culture
// platform output directories. Called once at parse time and again after any
// export step, which may create or remove platform splits.
func (i *ImportExportInfo) RecomputeSplitPaths(baseDir string) {
	i.splitPlatformPaths = make(map[string][]string)

	platformsDir := filepath.Join(baseDir, i.DestinationPath, "Platforms")
	entries, err := os.ReadDir(platformsDir)
	if err != nil {
		return
	}

	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		for _, culture := range i.CulturesToGenerate {
			cultureDir := filepath.Join(platformsDir, ent.Name(), culture)
			if st, err := os.Stat(cultureDir); err == nil && st.IsDir() {
				i.splitPlatformPaths[culture] = append(i.splitPlatformPaths[culture], cultureDir)
			}
		}
	}
}

// ProjectInfo is a localization project with its resolved steps and settings.
// ImportInfo and ExportInfo may point at the same ImportExportInfo when the
// project uses a legacy monolithic config.
type ProjectInfo struct {
	Name       string
	Steps      []StepInfo
	ImportInfo *ImportExportInfo
	ExportInfo *ImportExportInfo
}

// Monolithic reports whether this project resolved to a legacy single-file
// config.
func (p *ProjectInfo) Monolithic() bool {
	return len(p.Steps) == 1 && p.Steps[0].Step == steps.Monolithic
}

// ConfigsFor returns the ordered config file list for the steps that apply to
// the requested set. A step applies when it was requested directly or when a
// requested step depends on it: Upload alone runs the export config, Download
// alone runs the import config. The synthetic Monolithic step is always
// applicable: a monolithic file may perform several logical steps at once and
// the caller cannot know which in advance.
func (p *ProjectInfo) ConfigsFor(requested steps.Set) []string {
	var configs []string
	for _, si := range p.Steps {
		if si.Step == steps.Monolithic || requested.Has(si.Step) || steps.Required(si.Step, requested) {
			configs = append(configs, si.ConfigPath)
		}
	}
	return configs
}
