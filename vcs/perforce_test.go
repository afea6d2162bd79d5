package vcs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDepotPattern(t *testing.T) {
	p := &Perforce{Branch: "//depot/main"}
	require.Equal(t, "//depot/main/Content/Localization/...", p.depotPattern("Content/Localization/..."))
	require.Equal(t, "//depot/main/Content/...", p.depotPattern("/Content/..."))
	// Absolute depot paths pass through.
	require.Equal(t, "//depot/other/...", p.depotPattern("//depot/other/..."))
}

func TestDepotPatternTrailingSlashBranch(t *testing.T) {
	p := &Perforce{Branch: "//depot/main/"}
	require.Equal(t, "//depot/main/Content/...", p.depotPattern("Content/..."))
}

func TestBaseArgs(t *testing.T) {
	p := &Perforce{Port: "ssl:perforce:1666", Client: "build-ws", User: "buildbot"}
	require.Equal(t, []string{"-p", "ssl:perforce:1666", "-c", "build-ws", "-u", "buildbot"}, p.baseArgs())

	require.Empty(t, (&Perforce{}).baseArgs())
}

func TestChangeOutputParsing(t *testing.T) {
	m := changeCreatedRe.FindStringSubmatch("Change 1234 created.")
	require.NotNil(t, m)
	require.Equal(t, "1234", m[1])

	m = changeSubmittedRe.FindStringSubmatch("Change 1234 submitted.")
	require.NotNil(t, m)
	require.Equal(t, "1234", m[1])
}
