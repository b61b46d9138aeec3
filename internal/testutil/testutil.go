// Package testutil provides shared test fixtures: a throwaway on-disk
// layout equivalent to config.Init, rooted under t.TempDir() so every
// test gets its own isolated config/cache/data tree.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rua-build/rua/internal/config"
)

// NewPaths builds a config.Paths rooted under a fresh temporary
// directory, with every directory config.Init would create already
// present, and fails the test immediately on any setup error.
func NewPaths(t *testing.T) *config.Paths {
	t.Helper()

	root := t.TempDir()
	configDir := filepath.Join(root, "config")
	cacheDir := filepath.Join(root, "cache")
	dataDir := filepath.Join(root, "data")

	p := &config.Paths{
		ConfigDir:      configDir,
		CacheDir:       cacheDir,
		DataDir:        dataDir,
		SystemDir:      filepath.Join(configDir, ".system"),
		WrapArgsDir:    filepath.Join(configDir, "wrap_args.d"),
		ReviewDir:      filepath.Join(configDir, "pkg"),
		BuildDir:       filepath.Join(cacheDir, "build"),
		CheckedTarsDir: filepath.Join(dataDir, "checked_tars"),
		LockFile:       filepath.Join(configDir, ".lock"),
		IgnoreFile:     filepath.Join(configDir, "ignore"),
		ConfigFile:     filepath.Join(configDir, "rua.toml"),
		IndexURL:       config.DefaultIndexURL,
		SudoCommand:    "true", // never actually exec'd by unit tests
	}

	for _, dir := range []string{p.ConfigDir, p.CacheDir, p.DataDir, p.SystemDir, p.WrapArgsDir, p.ReviewDir, p.BuildDir, p.CheckedTarsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("testutil: creating %s: %v", dir, err)
		}
	}

	return p
}

// WriteIgnoreFile writes names, one per line, to p's ignore file.
func WriteIgnoreFile(t *testing.T, p *config.Paths, names ...string) {
	t.Helper()
	var data string
	for _, n := range names {
		data += n + "\n"
	}
	if err := os.WriteFile(p.IgnoreFile, []byte(data), 0o644); err != nil {
		t.Fatalf("testutil: writing ignore file: %v", err)
	}
}
