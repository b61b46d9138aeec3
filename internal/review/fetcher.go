// Package review implements the Recipe Fetcher & Review Loop (§4.5): a
// per-pkgbase git-backed review directory and the interactive
// diff/merge/inspect/accept state machine that drives it until the
// user accepts a merged revision. Git is shelled out to following this
// module's generic subprocess-wrapping idiom (exec.CommandContext,
// explicit cmd.Env, captured output, *exec.ExitError -> exit-code
// mapping) rather than a go-git binding.
package review

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rua-build/rua/internal/log"
)

// UpstreamRemote is the git remote name every review directory tracks.
const UpstreamRemote = "upstream"

// UpstreamBranch is the branch reviewed against ancestor/diff checks.
const UpstreamBranch = "upstream/master"

// Fetcher clones and fetches recipes into per-pkgbase review
// directories using a tracking-free git layout (§3 RecipeDir, §4.5).
type Fetcher struct {
	indexURL string
	logger   log.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger attaches a structured logger.
func WithLogger(l log.Logger) Option { return func(f *Fetcher) { f.logger = l } }

// NewFetcher returns a Fetcher cloning recipes from indexURL
// (e.g. "https://index.rua.example"); a pkgbase's recipe lives at
// "<indexURL>/<pkgbase>.git".
func NewFetcher(indexURL string, opts ...Option) *Fetcher {
	f := &Fetcher{indexURL: strings.TrimSuffix(indexURL, "/"), logger: log.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Ensure makes dir a review directory tracking pkgbase's recipe: if
// dir is empty, it runs git init + remote add + fetch; otherwise it
// just fetches (§3 RecipeDir lifecycle, §4.5).
func (f *Fetcher) Ensure(ctx context.Context, dir, pkgbase string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating review dir: %w", err)
	}

	empty, err := dirEmpty(dir)
	if err != nil {
		return err
	}

	if empty {
		if _, err := f.git(ctx, dir, "init"); err != nil {
			return err
		}
		url := fmt.Sprintf("%s/%s.git", f.indexURL, pkgbase)
		if _, err := f.git(ctx, dir, "remote", "add", UpstreamRemote, url); err != nil {
			return err
		}
	}

	_, err = f.git(ctx, dir, "fetch", UpstreamRemote)
	return err
}

// git runs one git subcommand in dir with configuration inheritance
// disabled (empty GIT_CONFIG_* variables exported into the child), so
// the user's own .gitconfig cannot affect the fetch (§4.5).
func (f *Fetcher) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(noConfigEnv(), os.Environ()...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		f.logger.Warn("git command failed", "dir", dir, "args", args, "output", out.String())
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, out.String())
	}
	return out.String(), nil
}

// noConfigEnv exports empty git-config variables so no user
// configuration leaks into recipe fetch/merge operations.
func noConfigEnv() []string {
	return []string{
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_GLOBAL=/dev/null",
		"GIT_CONFIG_SYSTEM=/dev/null",
	}
}

func dirEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", dir, err)
	}
	return len(entries) == 0, nil
}
