package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/locforge/locforge/steps"
)

var log = logging.Logger("batch")

// PluginDescriptorExt is the extension of the JSON descriptor that declares a
// plugin's localization targets.
const PluginDescriptorExt = ".locplugin"

// Batch is one coherent localization scope: the base project content, a
// platform overlay, or a plugin. WorkingDir and TargetDir are relative to the
// project root; TargetDir always uses forward slashes because it is later
// consumed as a version-control path pattern.
type Batch struct {
	WorkingDir   string
	TargetDir    string
	RemotePrefix string
	Projects     []string
}

// Options control which units Discover emits.
type Options struct {
	// Projects names the localization projects of the static base batch. When
	// non-empty, a unit covering the content directory itself is emitted.
	Projects []string

	IncludePlatforms bool
	IncludePlugins   bool

	// PluginsInclude, when non-empty, restricts plugin units to the named
	// plugins. PluginsExclude always wins over the include set.
	PluginsInclude []string
	PluginsExclude []string
}

// pluginDescriptor is the on-disk shape of a <name>.locplugin file.
// EnabledByDefault is a tri-state: absent means enabled.
type pluginDescriptor struct {
	EnabledByDefault    *bool `json:"EnabledByDefault"`
	LocalizationTargets []struct {
		Name string `json:"Name"`
	} `json:"LocalizationTargets"`
}

// Discover enumerates localization units under root. Ordering is
// deterministic: the static batch first, then platform overlays in directory
// order, then plugins in enumeration order. The second return value lists
// explicitly included plugin names that were never found; those are warned
// about but never fatal.
func Discover(root, contentDir string, opts Options) ([]Batch, []string, error) {
	var batches []Batch

	if len(opts.Projects) > 0 {
		batches = append(batches, Batch{
			WorkingDir: contentDir,
			TargetDir:  filepath.ToSlash(contentDir),
			Projects:   opts.Projects,
		})
	}

	if opts.IncludePlatforms {
		pb, err := discoverPlatforms(root, contentDir)
		if err != nil {
			return nil, nil, err
		}
		batches = append(batches, pb...)
	}

	var missing []string
	if opts.IncludePlugins {
		pb, miss, err := discoverPlugins(root, opts)
		if err != nil {
			return nil, nil, err
		}
		batches = append(batches, pb...)
		missing = miss
	}

	return batches, missing, nil
}

// discoverPlatforms scans <content>/Platforms/* for overlay directories that
// carry localization config. Target names are recovered by stripping the
// per-step suffixes from config file base names.
func discoverPlatforms(root, contentDir string) ([]Batch, error) {
	platformsDir := filepath.Join(root, contentDir, "Platforms")
	entries, err := os.ReadDir(platformsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("reading platforms dir %s: %w", platformsDir, err)
	}

	var batches []Batch
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		platformDir := filepath.Join(platformsDir, ent.Name())
		targets, err := configTargetNames(filepath.Join(platformDir, "Config", "Localization"))
		if err != nil {
			return nil, err
		}
		if len(targets) == 0 {
			continue
		}

		rel, err := filepath.Rel(root, platformDir)
		if err != nil {
			return nil, xerrors.Errorf("relativizing %s: %w", platformDir, err)
		}
		batches = append(batches, Batch{
			WorkingDir: rel,
			TargetDir:  filepath.ToSlash(rel),
			Projects:   targets,
		})
	}
	return batches, nil
}

// configTargetNames derives the de-duplicated, sorted set of localization
// target names from the config files in dir.
func configTargetNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("reading config dir %s: %w", dir, err)
	}

	seen := map[string]struct{}{}
	for _, ent := range entries {
		if ent.IsDir() || !strings.EqualFold(filepath.Ext(ent.Name()), ".ini") {
			continue
		}
		base := strings.TrimSuffix(ent.Name(), filepath.Ext(ent.Name()))
		seen[steps.StripStepSuffix(base)] = struct{}{}
	}

	targets := make([]string, 0, len(seen))
	for name := range seen {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	return targets, nil
}

// discoverPlugins walks the plugin tree for descriptor files and emits one
// unit per qualifying plugin. Runs scoped to named projects cover the
// project's own plugins; unscoped runs cover engine plugins. The plugin's own
// name becomes the remote prefix so translation-service artifacts stay
// distinct across plugins.
func discoverPlugins(root string, opts Options) ([]Batch, []string, error) {
	include := map[string]struct{}{}
	for _, n := range opts.PluginsInclude {
		include[n] = struct{}{}
	}
	exclude := map[string]struct{}{}
	for _, n := range opts.PluginsExclude {
		exclude[n] = struct{}{}
	}

	pluginsDir := filepath.Join(root, "Engine", "Plugins")
	if len(opts.Projects) > 0 {
		pluginsDir = filepath.Join(root, "Plugins")
	}

	var batches []Batch
	found := map[string]struct{}{}

	err := filepath.WalkDir(pluginsDir, func(path string, d os.DirEntry, err error) error {
		if os.IsNotExist(err) {
			return filepath.SkipAll
		}
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), PluginDescriptorExt) {
			return nil
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		found[name] = struct{}{}

		if len(include) > 0 {
			if _, ok := include[name]; !ok {
				return nil
			}
		}
		if _, ok := exclude[name]; ok {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return xerrors.Errorf("reading plugin descriptor %s: %w", path, err)
		}
		var desc pluginDescriptor
		if err := json.Unmarshal(raw, &desc); err != nil {
			return xerrors.Errorf("parsing plugin descriptor %s: %w", path, err)
		}
		if len(desc.LocalizationTargets) == 0 {
			log.Debugf("plugin %s declares no localization targets, skipping", name)
			return nil
		}
		if desc.EnabledByDefault != nil && !*desc.EnabledByDefault {
			// Disabled plugins only localize when asked for by name.
			if _, ok := include[name]; !ok {
				log.Debugf("plugin %s is disabled by default, skipping", name)
				return nil
			}
		}

		targets := make([]string, 0, len(desc.LocalizationTargets))
		for _, t := range desc.LocalizationTargets {
			targets = append(targets, t.Name)
		}

		pluginDir := filepath.Dir(path)
		rel, err := filepath.Rel(root, pluginDir)
		if err != nil {
			return xerrors.Errorf("relativizing %s: %w", pluginDir, err)
		}
		batches = append(batches, Batch{
			WorkingDir:   rel,
			TargetDir:    filepath.ToSlash(rel),
			RemotePrefix: name,
			Projects:     targets,
		})
		return nil
	})
	if err != nil {
		return nil, nil, xerrors.Errorf("enumerating plugins under %s: %w", pluginsDir, err)
	}

	var missing []string
	for _, n := range opts.PluginsInclude {
		if _, ok := found[n]; !ok {
			missing = append(missing, n)
			log.Warnf("plugin %s was explicitly included but not found", n)
		}
	}

	return batches, missing, nil
}
