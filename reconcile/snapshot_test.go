package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBodyDigestIgnoresHeader(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.po", "hdr: t=1\n\nmsg \"x\"\n")
	b := writeFile(t, dir, "b.po", "hdr: t=2\n\nmsg \"x\"\n")
	c := writeFile(t, dir, "c.po", "hdr: t=1\n\nmsg \"y\"\n")

	da, err := BodyDigest(a)
	require.NoError(t, err)
	db, err := BodyDigest(b)
	require.NoError(t, err)
	dc, err := BodyDigest(c)
	require.NoError(t, err)

	require.Equal(t, da, db, "header-only change must not affect the digest")
	require.NotEqual(t, da, dc, "body change must affect the digest")
}

func TestBodyDigestNoHeader(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.po", "msg \"x\"\n")
	b := writeFile(t, dir, "b.po", "msg \"y\"\n")

	da, err := BodyDigest(a)
	require.NoError(t, err)
	db, err := BodyDigest(b)
	require.NoError(t, err)
	require.NotEqual(t, da, db)
}

func TestTakeFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	po := writeFile(t, dir, "Game/en/Game.po", "h\n\nbody\n")
	writeFile(t, dir, "Game/en/Game.manifest", "h\n\nbody\n")

	snap, err := Take(dir, ".po")
	require.NoError(t, err)
	require.Len(t, snap, 1)
	require.Contains(t, snap, po)
}

func TestTakeMissingRoot(t *testing.T) {
	snap, err := Take(filepath.Join(t.TempDir(), "nope"), ".po")
	require.NoError(t, err)
	require.Empty(t, snap)
}

func TestUnchanged(t *testing.T) {
	dir := t.TempDir()
	same := writeFile(t, dir, "same.po", "h1\n\nbody\n")
	changed := writeFile(t, dir, "changed.po", "h1\n\nold\n")

	before, err := Take(dir, ".po")
	require.NoError(t, err)

	// The tool rewrites every header and the body of one file, and creates a
	// brand new file.
	require.NoError(t, os.WriteFile(same, []byte("h2\n\nbody\n"), 0644))
	require.NoError(t, os.WriteFile(changed, []byte("h2\n\nnew\n"), 0644))
	writeFile(t, dir, "fresh.po", "h1\n\nbody\n")

	after, err := Take(dir, ".po")
	require.NoError(t, err)

	require.Equal(t, []string{same}, Unchanged(before, after))
}
