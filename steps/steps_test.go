package steps

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripStepSuffix(t *testing.T) {
	cases := map[string]string{
		"Game_Gather":          "Game",
		"Game_Import":          "Game",
		"Game_Export":          "Game",
		"Game_Compile":         "Game",
		"Game_GenerateReports": "Game",
		"Game":                 "Game",
		"Gather":               "Gather",
	}
	for in, want := range cases {
		require.Equal(t, want, StripStepSuffix(in))
	}
}

func TestStripStepSuffixIdempotent(t *testing.T) {
	for _, name := range []string{"Game_Gather", "Editor_Export", "Plain"} {
		once := StripStepSuffix(name)
		require.Equal(t, once, StripStepSuffix(once))
	}
}

func TestRequired(t *testing.T) {
	require.True(t, Required(Gather, NewSet(Gather)))
	require.False(t, Required(Gather, NewSet(Compile)))

	// Download needs parsed import settings.
	require.True(t, Required(Import, NewSet(Download)))
	require.True(t, Required(Import, NewSet(Import)))

	// Upload needs parsed export settings; a gather pass produces
	// export-relevant artifacts.
	require.True(t, Required(Export, NewSet(Upload)))
	require.True(t, Required(Export, NewSet(Gather)))

	// Compile alone must not drag import/export files in.
	require.False(t, Required(Import, NewSet(Compile)))
	require.False(t, Required(Export, NewSet(Compile)))

	// Reports are never required.
	require.False(t, Required(GenerateReports, NewSet(All...)))
}

func TestParseSet(t *testing.T) {
	set, err := ParseSet([]string{"Gather", "Upload"})
	require.NoError(t, err)
	require.True(t, set.Has(Gather))
	require.True(t, set.Has(Upload))
	require.False(t, set.Has(Compile))

	_, err = ParseSet([]string{"Frobnicate"})
	require.Error(t, err)

	// The synthetic step is not requestable.
	_, err = ParseSet([]string{"Monolithic"})
	require.Error(t, err)
}

func TestSetString(t *testing.T) {
	require.Equal(t, "Gather,Import", NewSet(Import, Gather).String())
}
