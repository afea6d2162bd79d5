package tool

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgsJoinsConfigsWithSemicolons(t *testing.T) {
	opts := Options{
		ConfigFiles: []string{"a.ini", "b.ini", "c.ini"},
	}
	args := opts.Args()
	require.Contains(t, args, "-config=a.ini;b.ini;c.ini")
	require.Contains(t, args, "-DisableSCCSubmit")
	require.NotContains(t, args, "-MultiProcess")
}

func TestArgsFullInvocation(t *testing.T) {
	opts := Options{
		ProjectFile:  "Game.project",
		ConfigFiles:  []string{"Game_Export.ini"},
		EnableSCC:    true,
		SCCProvider:  "perforce",
		SCCArgs:      []string{"-P4Port=ssl:perforce:1666"},
		Unattended:   true,
		LogConflicts: true,
		MultiProcess: true,
		ExtraArgs:    []string{"-Verbose"},
	}
	args := opts.Args()
	require.Equal(t, "Game.project", args[0])
	require.Equal(t, "-run=GatherText", args[1])
	require.Contains(t, args, "-SCCProvider=perforce")
	require.Contains(t, args, "-P4Port=ssl:perforce:1666")
	require.Contains(t, args, "-Unattended")
	require.Contains(t, args, "-LogLocalizationConflicts")
	require.Contains(t, args, "-MultiProcess")
	require.Equal(t, "-Verbose", args[len(args)-1])
	require.NotContains(t, strings.Join(args, " "), "-DisableSCCSubmit")
}

func TestCommandLauncherWait(t *testing.T) {
	proc, err := CommandLauncher{}.Launch(context.Background(), t.TempDir(), Options{
		Binary:      "true",
		ConfigFiles: []string{"x.ini"},
	})
	require.NoError(t, err)
	defer proc.Release()

	code, err := proc.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, code)

	// Wait is idempotent.
	code, err = proc.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

func TestCommandLauncherNonZeroExit(t *testing.T) {
	proc, err := CommandLauncher{}.Launch(context.Background(), t.TempDir(), Options{
		Binary:      "false",
		ConfigFiles: []string{"x.ini"},
	})
	require.NoError(t, err)
	defer proc.Release()

	code, err := proc.Wait()
	require.NoError(t, err)
	require.NotEqual(t, 0, code)
}
