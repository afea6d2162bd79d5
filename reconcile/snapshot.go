// Package reconcile decides which translation files should be dropped from
// the pending change because their substantive content did not change. The
// gather tool rewrites every translation file's header (generation timestamp
// and friends) on every run, so change detection hashes only the body after
// the first blank line, captured once before and once after the tool runs.
package reconcile

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/minio/blake2b-simd"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

var log = logging.Logger("reconcile")

// Snapshot maps absolute translation-file paths to body digests.
type Snapshot map[string]string

// Take walks root recursively and digests every file with the given
// extension. Hashing is best-effort: a file that cannot be read is logged and
// skipped rather than failing the run.
func Take(root, ext string) (Snapshot, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if os.IsNotExist(err) {
			return filepath.SkipAll
		}
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("walking %s: %w", root, err)
	}

	snap := make(Snapshot, len(paths))
	var mu sync.Mutex

	var eg errgroup.Group
	eg.SetLimit(8)
	for _, path := range paths {
		path := path
		eg.Go(func() error {
			digest, err := BodyDigest(path)
			if err != nil {
				log.Warnf("hashing %s: %s", path, err)
				return nil
			}
			mu.Lock()
			snap[path] = digest
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return snap, nil
}

// BodyDigest hashes the lines of a translation file after its header. The
// header is everything up to and including the first empty line; a file with
// no empty line is hashed whole.
func BodyDigest(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	h := blake2b.New256()
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 64<<10), 1<<20)

	inHeader := true
	sawBlank := false
	for sc.Scan() {
		line := sc.Bytes()
		if inHeader {
			if len(bytes.TrimSpace(line)) == 0 {
				inHeader = false
				sawBlank = true
			}
			continue
		}
		h.Write(line)
		h.Write([]byte{'\n'})
	}
	if err := sc.Err(); err != nil {
		return "", err
	}

	if !sawBlank {
		h = blake2b.New256()
		h.Write(raw)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Unchanged returns the sorted list of paths present in both snapshots with
// an identical digest. Paths only present after the run are new files and are
// never reverted.
func Unchanged(before, after Snapshot) []string {
	var same []string
	for path, digest := range after {
		if prev, ok := before[path]; ok && prev == digest {
			same = append(same, path)
		}
	}
	sort.Strings(same)
	return same
}

// Merge folds other into s, overwriting duplicates.
func (s Snapshot) Merge(other Snapshot) {
	for path, digest := range other {
		s[path] = digest
	}
}
