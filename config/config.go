// Package config holds locforge's own settings, loaded from an optional TOML
// file and overridable by CLI flags. The per-project localization configs the
// pipeline operates on are a separate, INI-based format owned by locproj.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/xerrors"
)

type Config struct {
	Tool    Tool
	VCS     VCS
	Service Service
}

// Tool configures the external gather/compile tool.
type Tool struct {
	// Binary is the tool executable.
	Binary string
	// ProjectFile is the optional project file passed as the tool's first
	// argument.
	ProjectFile string
	// PortableObjectExt is the translation-file extension used for change
	// detection.
	PortableObjectExt string
	// ExtraArgs are always appended to every tool invocation.
	ExtraArgs []string
}

// VCS configures the version-control backend. Kind is "perforce" or "none".
type VCS struct {
	Kind   string
	Port   string
	Client string
	User   string
	Branch string
	// AllowSubmit permits submitting the pending change at the end of a run.
	AllowSubmit bool
}

// Service configures the remote translation service.
type Service struct {
	Endpoint string
	APIKey   string
}

func DefaultConfig() *Config {
	return &Config{
		Tool: Tool{
			Binary:            "GatherTool",
			PortableObjectExt: ".po",
		},
		VCS: VCS{
			Kind: "none",
		},
	}
}

// FromFile loads config from a TOML file layered over the defaults. A missing
// file returns the defaults untouched.
func FromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close() // nolint:errcheck

	md, err := toml.NewDecoder(f).Decode(cfg)
	if err != nil {
		return nil, xerrors.Errorf("parsing config %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, xerrors.Errorf("config %s: unknown key %s", path, keys[0])
	}
	return cfg, nil
}
