package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := FromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Equal(t, ".po", cfg.Tool.PortableObjectExt)
	require.Equal(t, "none", cfg.VCS.Kind)
}

func TestFromFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locforge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[Tool]
Binary = "/opt/engine/GatherTool"
ExtraArgs = ["-NoShaderCompile"]

[VCS]
Kind = "perforce"
Port = "ssl:perforce:1666"
Branch = "//depot/main"
AllowSubmit = true

[Service]
Endpoint = "https://loc.example.com/api"
`), 0644))

	cfg, err := FromFile(path)
	require.NoError(t, err)
	require.Equal(t, "/opt/engine/GatherTool", cfg.Tool.Binary)
	require.Equal(t, ".po", cfg.Tool.PortableObjectExt, "unset keys keep defaults")
	require.Equal(t, []string{"-NoShaderCompile"}, cfg.Tool.ExtraArgs)
	require.Equal(t, "perforce", cfg.VCS.Kind)
	require.True(t, cfg.VCS.AllowSubmit)
	require.Equal(t, "https://loc.example.com/api", cfg.Service.Endpoint)
}

func TestFromFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locforge.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Tool]\nBinry = \"typo\"\n"), 0644))

	_, err := FromFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Binry")
}
