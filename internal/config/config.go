// Package config performs one-shot initialization of rua's on-disk
// layout (XDG-style config/cache/data directories), environment variable
// overrides, and the single-instance process lock described in §5/§6.
//
// Paths is built once by Init and is treated as immutable afterward.
// Init's one environment mutation (BUILDDIR, set to Paths.BuildDir)
// completes before any child process is spawned; the color variables
// are set separately by the CLI's --color handling. The process-wide
// lock acquired by Init's caller is the sentinel that this completed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// EnvIndexURL overrides the default remote recipe index base URL.
	EnvIndexURL = "RUA_INDEX_URL"

	// EnvSudoCommand overrides the elevation helper used to invoke the
	// package manager for privileged operations. Default: sudo.
	EnvSudoCommand = "RUA_SUDO_COMMAND"

	// EnvAPITimeout configures the remote index HTTP client timeout.
	EnvAPITimeout = "RUA_API_TIMEOUT"

	// EnvLogLevel selects the default log verbosity absent CLI flags.
	EnvLogLevel = "LOG_LEVEL"

	// DefaultIndexURL is the default base URL for the remote recipe index.
	DefaultIndexURL = "https://index.rua.example/rpc"

	// DefaultSudoCommand is the default elevation helper.
	DefaultSudoCommand = "sudo"

	// DefaultAPITimeout bounds remote index requests.
	DefaultAPITimeout = 30 * time.Second

	// InfoBatchSize is the maximum number of names per info() request (§4.3).
	InfoBatchSize = 200
)

// Paths holds every on-disk location rua reads or writes, resolved once
// at startup from XDG base directories (with HOME fallbacks) and env
// var overrides.
type Paths struct {
	ConfigDir string // $XDG_CONFIG_HOME/rua
	CacheDir  string // $XDG_CACHE_HOME/rua
	DataDir   string // $XDG_DATA_HOME/rua

	SystemDir     string // <config>/.system — wrapper script, seccomp filter, rewritten every run
	WrapArgsDir   string // <config>/wrap_args.d — user hooks, preserved
	ReviewDir     string // <config>/pkg — per-pkgbase review directories
	BuildDir      string // <cache>/build — per-pkgbase transient build directories
	CheckedTarsDir string // <data>/checked_tars — verified artifacts pending install
	LockFile      string // <config>/.lock — single-instance exclusive lock
	IgnoreFile    string // <config>/ignore — tool-local ignore list, unioned with the package manager's
	ConfigFile    string // <config>/rua.toml — optional local configuration

	IndexURL    string
	SudoCommand string
}

// Init resolves Paths from the environment and creates every directory
// it owns. It does not acquire the instance lock; callers do that
// separately via Paths.Lock so that lock acquisition can be retried or
// reported independently of directory creation failures.
func Init() (*Paths, error) {
	configHome, err := baseDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return nil, err
	}
	cacheHome, err := baseDir("XDG_CACHE_HOME", ".cache")
	if err != nil {
		return nil, err
	}
	dataHome, err := baseDir("XDG_DATA_HOME", ".local/share")
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(configHome, "rua")
	cacheDir := filepath.Join(cacheHome, "rua")
	dataDir := filepath.Join(dataHome, "rua")

	p := &Paths{
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
		IndexURL:       envOr(EnvIndexURL, DefaultIndexURL),
		SudoCommand:    envOr(EnvSudoCommand, DefaultSudoCommand),
	}

	for _, dir := range []string{p.ConfigDir, p.CacheDir, p.DataDir, p.SystemDir, p.WrapArgsDir, p.ReviewDir, p.BuildDir, p.CheckedTarsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	applyEnvironmentOverrides(p)

	return p, nil
}

// applyEnvironmentOverrides mutates process-wide environment variables
// that every spawned child must see. This is the one place these
// mutations happen; it must run before any subprocess is launched.
func applyEnvironmentOverrides(p *Paths) {
	_ = os.Setenv("BUILDDIR", p.BuildDir)
}

func baseDir(envVar, fallbackSuffix string) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, fallbackSuffix), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// APITimeout returns the configured remote index timeout, clamped to
// the range 1s..10m; an unparsable value falls back to
// DefaultAPITimeout with a warning on stderr.
func APITimeout() time.Duration {
	v := os.Getenv(EnvAPITimeout)
	if v == "" {
		return DefaultAPITimeout
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n", EnvAPITimeout, v, DefaultAPITimeout)
		return DefaultAPITimeout
	}
	if d < time.Second {
		return time.Second
	}
	if d > 10*time.Minute {
		return 10 * time.Minute
	}
	return d
}

// ReviewPkgDir returns the review directory for one pkgbase.
func (p *Paths) ReviewPkgDir(pkgbase string) string {
	return filepath.Join(p.ReviewDir, pkgbase)
}

// BuildPkgDir returns the transient build directory for one pkgbase.
func (p *Paths) BuildPkgDir(pkgbase string) string {
	return filepath.Join(p.BuildDir, pkgbase)
}

// CheckedTarsPkgDir returns the verified-artifact directory for one pkgbase.
func (p *Paths) CheckedTarsPkgDir(pkgbase string) string {
	return filepath.Join(p.CheckedTarsDir, pkgbase)
}

// UserIgnoreFile returns the path to the tool-local ignore list, whose
// contents are unioned with the package manager's own IgnorePkg set by
// the Upgrade Planner (§3.1).
func (p *Paths) UserIgnoreFile() string {
	return p.IgnoreFile
}

// ReadUserIgnoreList reads the tool-local ignore file, one package name
// per line, blank lines and '#' comments skipped. A missing file is not
// an error; it simply contributes no names.
func (p *Paths) ReadUserIgnoreList() (map[string]bool, error) {
	set := make(map[string]bool)
	data, err := os.ReadFile(p.IgnoreFile)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[line] = true
	}
	return set, nil
}
