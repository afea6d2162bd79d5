package locproj

import (
	"os"
	"path/filepath"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
	"gopkg.in/ini.v1"

	"github.com/locforge/locforge/steps"
)

var log = logging.Logger("locproj")

// settingsSection is the INI section holding import/export settings.
const settingsSection = "CommonSettings"

var requiredKeys = []string{
	"DestinationPath",
	"ManifestName",
	"ArchiveName",
	"PortableObjectName",
	"NativeCulture",
	"CulturesToGenerate",
}

// Resolve determines which pipeline steps apply to project under targetDir
// and loads their import/export settings.
//
// Resolution is two-mode, chosen by file existence. A monolithic
// <project>.ini serves every step at once; import and export settings are the
// same parsed object. Otherwise each <project>_<Step>.ini is probed
// individually, and a missing file is fatal only when the requested step set
// makes that step's config mandatory. Partial configuration implies a
// corrupted or half-migrated project, so any missing required file or key
// aborts the run.
func Resolve(targetDir, project string, requested steps.Set) (*ProjectInfo, error) {
	configDir := filepath.Join(targetDir, "Config", "Localization")

	monoPath := filepath.Join(configDir, project+".ini")
	if _, err := os.Stat(monoPath); err == nil {
		info, err := parseImportExport(monoPath, targetDir)
		if err != nil {
			return nil, err
		}
		log.Debugf("project %s uses a monolithic config: %s", project, monoPath)
		return &ProjectInfo{
			Name:       project,
			Steps:      []StepInfo{{Step: steps.Monolithic, ConfigPath: monoPath}},
			ImportInfo: info,
			ExportInfo: info,
		}, nil
	}

	pi := &ProjectInfo{Name: project}
	for _, step := range steps.ConfigSteps {
		path := filepath.Join(configDir, project+steps.FileSuffix(step)+".ini")
		if _, err := os.Stat(path); err != nil {
			if !os.IsNotExist(err) {
				return nil, xerrors.Errorf("probing config %s: %w", path, err)
			}
			if steps.Required(step, requested) {
				return nil, xerrors.Errorf("project %s: required config file %s not found", project, path)
			}
			continue
		}

		pi.Steps = append(pi.Steps, StepInfo{Step: step, ConfigPath: path})

		switch step {
		case steps.Import:
			info, err := parseImportExport(path, targetDir)
			if err != nil {
				return nil, err
			}
			pi.ImportInfo = info
		case steps.Export:
			info, err := parseImportExport(path, targetDir)
			if err != nil {
				return nil, err
			}
			pi.ExportInfo = info
		}
	}

	if err := pi.validate(requested); err != nil {
		return nil, err
	}
	return pi, nil
}

// validate enforces the settings invariant: import settings must be present
// when Import or Download was requested, export settings when Gather or
// Upload was requested.
func (p *ProjectInfo) validate(requested steps.Set) error {
	if p.ImportInfo == nil && (requested.Has(steps.Import) || requested.Has(steps.Download)) {
		return xerrors.Errorf("project %s: import settings unavailable but %s requested", p.Name, requested)
	}
	if p.ExportInfo == nil && (requested.Has(steps.Gather) || requested.Has(steps.Upload)) {
		return xerrors.Errorf("project %s: export settings unavailable but %s requested", p.Name, requested)
	}
	return nil
}

// parseImportExport reads the CommonSettings section of a localization
// config. CulturesToGenerate may appear once per culture, so shadowed keys
// are allowed.
func parseImportExport(path, baseDir string) (*ImportExportInfo, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, path)
	if err != nil {
		return nil, xerrors.Errorf("loading config %s: %w", path, err)
	}

	sec := cfg.Section(settingsSection)
	for _, key := range requiredKeys {
		if !sec.HasKey(key) {
			return nil, xerrors.Errorf("config %s: missing required key %s in [%s]", path, key, settingsSection)
		}
	}

	info := &ImportExportInfo{
		DestinationPath:     sec.Key("DestinationPath").String(),
		ManifestName:        sec.Key("ManifestName").String(),
		ArchiveName:         sec.Key("ArchiveName").String(),
		PortableObjectName:  sec.Key("PortableObjectName").String(),
		NativeCulture:       sec.Key("NativeCulture").String(),
		CulturesToGenerate:  cultureList(sec.Key("CulturesToGenerate")),
		UseCultureDirectory: true,
	}
	if sec.HasKey("UseCultureDirectory") {
		v, err := sec.Key("UseCultureDirectory").Bool()
		if err != nil {
			return nil, xerrors.Errorf("config %s: invalid UseCultureDirectory: %w", path, err)
		}
		info.UseCultureDirectory = v
	}

	info.RecomputeSplitPaths(baseDir)
	return info, nil
}

// cultureList accepts both one-culture-per-line (shadowed keys) and a single
// comma-separated value.
func cultureList(key *ini.Key) []string {
	vals := key.ValueWithShadows()
	if len(vals) == 1 && strings.Contains(vals[0], ",") {
		vals = strings.Split(vals[0], ",")
	}
	cultures := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			cultures = append(cultures, v)
		}
	}
	return cultures
}
