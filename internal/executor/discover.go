package executor

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrArtifactNotFound = errors.New("no output artifact found")

// Discover locates the artifact a finished run produced.
//
// The exact expected path always wins when it exists and is non-empty, even
// if newer matching files sit next to it. Otherwise the output directory is
// scanned for files with an allowed extension modified at or after startedAt,
// newest first. The mtime floor is a hard filter: a stale artifact from an
// earlier run is never returned, which also makes concurrent runs against a
// shared directory safe without locking.
func Discover(expectedPath, dir string, allowedExts []string, startedAt time.Time) (string, error) {
	if fi, err := os.Stat(expectedPath); err == nil && !fi.IsDir() && fi.Size() > 0 {
		return expectedPath, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ErrArtifactNotFound
	}

	type candidate struct {
		path  string
		mtime time.Time
	}
	var candidates []candidate

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !extAllowed(ext, allowedExts) {
			continue
		}
		fi, err := e.Info()
		if err != nil || fi.Size() == 0 {
			continue
		}
		if fi.ModTime().Before(startedAt) {
			continue
		}
		candidates = append(candidates, candidate{
			path:  filepath.Join(dir, e.Name()),
			mtime: fi.ModTime(),
		})
	}

	if len(candidates) == 0 {
		return "", ErrArtifactNotFound
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].mtime.After(candidates[j].mtime)
	})
	return candidates[0].path, nil
}

func extAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
