// Package hub resolves pretrained artifact names to local directories.
// A name that is already a directory is used as-is; otherwise the
// huggingface_hub cache layout is searched:
//
//	<cache>/models--<org>--<name>/snapshots/<revision>/
//
// The cache root comes from the configured cache dir, then HF_HUB_CACHE,
// then HF_HOME/hub, then the platform default. Downloading is out of
// scope here: a model that is neither a path nor cached is a fatal
// startup error.
package hub

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultCacheSubdir = "huggingface/hub"
	snapshotDir        = "snapshots"
	modelPrefix        = "models--"
	defaultRevision    = "main"
)

// ErrNotCached means the model id is not a local path and has no cache
// snapshot; the artifact must be fetched before running.
var ErrNotCached = errors.New("hub: model not found locally")

// Resolve maps a model name or path to a local directory containing the
// artifact files (config.json, tokenizer.json, weights).
func Resolve(nameOrPath, cacheDir string) (string, error) {
	if stat, err := os.Stat(nameOrPath); err == nil && stat.IsDir() {
		return nameOrPath, nil
	}

	root := cacheRoot(cacheDir)
	snapshots := filepath.Join(root, modelIDToCacheDir(nameOrPath), snapshotDir)

	// Prefer the main revision, fall back to any non-empty snapshot.
	if dir := filepath.Join(snapshots, defaultRevision); nonEmptyDir(dir) {
		return dir, nil
	}
	entries, err := os.ReadDir(snapshots)
	if err == nil {
		for _, e := range entries {
			if dir := filepath.Join(snapshots, e.Name()); e.IsDir() && nonEmptyDir(dir) {
				return dir, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %q (cache %s)", ErrNotCached, nameOrPath, root)
}

// ResolveFile resolves a single artifact file, e.g. "tokenizer.json".
func ResolveFile(nameOrPath, cacheDir, filename string) (string, error) {
	dir, err := Resolve(nameOrPath, cacheDir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("hub: %s missing from %s: %w", filename, dir, err)
	}
	return path, nil
}

func cacheRoot(cacheDir string) string {
	if cacheDir != "" {
		return cacheDir
	}
	if s := os.Getenv("HF_HUB_CACHE"); s != "" {
		return s
	}
	if s := os.Getenv("HF_HOME"); s != "" {
		return filepath.Join(s, "hub")
	}
	if s := os.Getenv("XDG_CACHE_HOME"); s != "" {
		return filepath.Join(s, defaultCacheSubdir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), defaultCacheSubdir)
	}
	return filepath.Join(home, ".cache", defaultCacheSubdir)
}

func modelIDToCacheDir(modelID string) string {
	return modelPrefix + strings.ReplaceAll(modelID, "/", "--")
}

func nonEmptyDir(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}
