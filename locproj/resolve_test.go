package locproj

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/locforge/locforge/steps"
)

const validSettings = `[CommonSettings]
DestinationPath=Content/Localization/Game
ManifestName=Game.manifest
ArchiveName=Game.archive
PortableObjectName=Game.po
NativeCulture=en
CulturesToGenerate=en
CulturesToGenerate=fr
CulturesToGenerate=ja
`

func writeConfig(t *testing.T, targetDir, name, content string) string {
	t.Helper()
	path := filepath.Join(targetDir, "Config", "Localization", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestResolveMonolithic(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "Game.ini", validSettings)

	pi, err := Resolve(dir, "Game", steps.NewSet(steps.Compile))
	require.NoError(t, err)
	require.True(t, pi.Monolithic())
	require.Len(t, pi.Steps, 1)
	require.Equal(t, steps.Monolithic, pi.Steps[0].Step)

	// Legacy single-file mode: one settings object serves both roles.
	require.NotNil(t, pi.ImportInfo)
	require.Same(t, pi.ImportInfo, pi.ExportInfo)
	require.Equal(t, []string{"en", "fr", "ja"}, pi.ImportInfo.CulturesToGenerate)
	require.True(t, pi.ImportInfo.UseCultureDirectory)
}

func TestResolveMonolithicPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "Game.ini", validSettings)
	writeConfig(t, dir, "Game_Gather.ini", validSettings)
	writeConfig(t, dir, "Game_Compile.ini", validSettings)

	pi, err := Resolve(dir, "Game", steps.NewSet(steps.Gather))
	require.NoError(t, err)
	require.True(t, pi.Monolithic(), "monolithic config must win over modular files")
}

func TestResolveModular(t *testing.T) {
	dir := t.TempDir()
	gather := writeConfig(t, dir, "Game_Gather.ini", "")
	export := writeConfig(t, dir, "Game_Export.ini", validSettings)
	imp := writeConfig(t, dir, "Game_Import.ini", validSettings+"UseCultureDirectory=false\n")

	pi, err := Resolve(dir, "Game", steps.NewSet(steps.Gather, steps.Import))
	require.NoError(t, err)
	require.False(t, pi.Monolithic())

	require.Equal(t, []StepInfo{
		{Step: steps.Gather, ConfigPath: gather},
		{Step: steps.Import, ConfigPath: imp},
		{Step: steps.Export, ConfigPath: export},
	}, pi.Steps)

	require.NotNil(t, pi.ImportInfo)
	require.NotNil(t, pi.ExportInfo)
	require.NotSame(t, pi.ImportInfo, pi.ExportInfo)
	require.False(t, pi.ImportInfo.UseCultureDirectory)
	require.True(t, pi.ExportInfo.UseCultureDirectory)
}

func TestResolveRequiredFileGating(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "Game_Compile.ini", "")

	// Compile alone needs neither import nor export config.
	pi, err := Resolve(dir, "Game", steps.NewSet(steps.Compile))
	require.NoError(t, err)
	require.Len(t, pi.Steps, 1)

	// Upload alone requires the export config.
	_, err = Resolve(dir, "Game", steps.NewSet(steps.Upload))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Game_Export.ini")

	// Download alone requires the import config.
	_, err = Resolve(dir, "Game", steps.NewSet(steps.Download))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Game_Import.ini")
}

func TestResolveMissingKey(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "Game.ini", "[CommonSettings]\nDestinationPath=x\n")

	_, err := Resolve(dir, "Game", steps.NewSet(steps.Gather))
	require.Error(t, err)
	require.Contains(t, err.Error(), "ManifestName")
	require.Contains(t, err.Error(), "Game.ini")
}

func TestResolveCommaSeparatedCultures(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "Game.ini", `[CommonSettings]
DestinationPath=Content/Localization/Game
ManifestName=Game.manifest
ArchiveName=Game.archive
PortableObjectName=Game.po
NativeCulture=en
CulturesToGenerate=en, fr, ja
`)

	pi, err := Resolve(dir, "Game", steps.NewSet())
	require.NoError(t, err)
	require.Equal(t, []string{"en", "fr", "ja"}, pi.ImportInfo.CulturesToGenerate)
}

func TestRecomputeSplitPaths(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "Game.ini", validSettings)

	pi, err := Resolve(dir, "Game", steps.NewSet())
	require.NoError(t, err)
	require.Empty(t, pi.ExportInfo.SplitPlatformPaths("fr"))

	// An export run creates a platform split on disk; recompute must see it.
	split := filepath.Join(dir, "Content", "Localization", "Game", "Platforms", "SwitchBox", "fr")
	require.NoError(t, os.MkdirAll(split, 0755))

	pi.ExportInfo.RecomputeSplitPaths(dir)
	require.Equal(t, []string{split}, pi.ExportInfo.SplitPlatformPaths("fr"))
	// Visible through the import role too: both roles alias one object.
	require.Equal(t, []string{split}, pi.ImportInfo.SplitPlatformPaths("fr"))
}
