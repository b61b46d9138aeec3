// Package orchestrator implements the Build Orchestrator (§4.8): the
// top-level install pipeline wiring the resolver, review loop, sandbox
// driver, source pre-fetcher, and artifact verifier into one
// resolve -> review -> build -> verify -> install sequence, plus the
// upgrade planner's reuse of the same pipeline for outdated packages.
package orchestrator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rua-build/rua/internal/config"
	"github.com/rua-build/rua/internal/log"
	"github.com/rua-build/rua/internal/pacman"
	"github.com/rua-build/rua/internal/prefetch"
	"github.com/rua-build/rua/internal/resolver"
	"github.com/rua-build/rua/internal/rerr"
	"github.com/rua-build/rua/internal/review"
	"github.com/rua-build/rua/internal/verify"
)

// sandboxBuilder is the narrow sandbox capability the orchestrator
// needs: building a recipe, checking a recipe's script (which also
// satisfies review.Shellchecker), and running the source-fetch-only
// phase against a synthesized build script (which also satisfies
// prefetch's sandbox dependency).
type sandboxBuilder interface {
	Build(ctx context.Context, dir string, offline, force bool) error
	Shellcheck(ctx context.Context, dir string) (string, int, error)
	Verifysource(ctx context.Context, dir, scriptName string) error
}

// sourcePrefetcher is the narrow source-prefetch capability.
type sourcePrefetcher interface {
	Run(ctx context.Context, dir string) error
}

// Orchestrator drives one install pipeline end to end.
type Orchestrator struct {
	paths      *config.Paths
	pm         pacman.Adapter
	resolver   *resolver.Resolver
	fetcher    *review.Fetcher
	sandbox    sandboxBuilder
	prefetcher sourcePrefetcher
	logger     log.Logger

	in   *bufio.Reader
	out  io.Writer
	auto bool // non-interactive: skip confirmation prompts, autobuild archive review
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a structured logger.
func WithLogger(l log.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// WithIO overrides stdin/stdout for confirmation prompts (tests).
func WithIO(r io.Reader, w io.Writer) Option {
	return func(o *Orchestrator) { o.in = bufio.NewReader(r); o.out = w }
}

// WithAuto makes Install skip interactive confirmation and archive
// review, used when stdout is not a terminal (§4.9 autobuild mode).
func WithAuto(auto bool) Option { return func(o *Orchestrator) { o.auto = auto } }

// New returns an Orchestrator wired to paths, the package-manager
// adapter, the resolver res, a recipe fetcher rooted at
// recipeBaseURL, and a sandbox driver.
func New(paths *config.Paths, pm pacman.Adapter, res *resolver.Resolver, recipeBaseURL string, sb sandboxBuilder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		paths:      paths,
		pm:         pm,
		resolver:   res,
		fetcher:    review.NewFetcher(recipeBaseURL),
		sandbox:    sb,
		prefetcher: prefetch.New(sb),
		logger:     log.Default(),
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Install runs the pipeline of §4.8 against roots.
func (o *Orchestrator) Install(ctx context.Context, roots []string, offline, asDeps bool) error {
	toInstall, err := o.resolver.Resolve(ctx, roots)
	if err != nil {
		return err
	}
	return o.installResolved(ctx, toInstall, offline, asDeps)
}

// installResolved runs steps 2-6 of §4.8 against an already-resolved
// ToInstall, split out from Install so the pipeline logic can be
// exercised without a live remote index.
func (o *Orchestrator) installResolved(ctx context.Context, toInstall *resolver.ToInstall, offline, asDeps bool) error {
	if err := o.summarize(toInstall); err != nil {
		return err
	}

	pkgbaseOrder, pkgbaseDepth, pkgnamesByBase := groupByPkgbase(toInstall)

	for _, pkgbase := range pkgbaseOrder {
		if err := o.review(ctx, pkgbase); err != nil {
			return err
		}
	}

	if len(toInstall.PacmanDeps) > 0 {
		if err := o.pm.InstallAsDeps(toInstall.PacmanDeps); err != nil {
			return rerr.Wrap(rerr.InventoryError, "installing pacman dependencies", err)
		}
	}

	layers := layersDescending(pkgbaseOrder, pkgbaseDepth)
	for _, layer := range layers {
		for _, pkgbase := range layer {
			depth := pkgbaseDepth[pkgbase]
			if err := o.buildOne(ctx, pkgbase, pkgnamesByBase[pkgbase], offline, depth > 0 || asDeps); err != nil {
				return err
			}
		}
	}

	for _, pkgbase := range pkgbaseOrder {
		if err := os.RemoveAll(o.paths.BuildPkgDir(pkgbase)); err != nil {
			o.logger.Warn("failed to clean up build directory", "pkgbase", pkgbase, "error", err)
		}
	}

	return nil
}

// summarize displays the ordered pacman-dep and remote-dep lists and
// blocks on confirmation, unless running in auto mode (§4.8 step 2).
func (o *Orchestrator) summarize(t *resolver.ToInstall) error {
	fmt.Fprintln(o.out, "Packages to install from the local package manager:")
	if len(t.PacmanDeps) == 0 {
		fmt.Fprintln(o.out, "  (none)")
	}
	for _, n := range t.PacmanDeps {
		fmt.Fprintf(o.out, "  %s\n", n)
	}

	fmt.Fprintln(o.out, "Packages to build from recipes:")
	if len(t.Infos) == 0 {
		fmt.Fprintln(o.out, "  (none)")
	}
	for _, info := range t.Infos {
		fmt.Fprintf(o.out, "  %s (depth %d)\n", info.Name, t.Depths[info.Name])
	}

	if o.auto {
		return nil
	}

	fmt.Fprint(o.out, "Proceed? [O to continue, anything else aborts] > ")
	line, err := o.in.ReadString('\n')
	if err != nil && line == "" {
		return rerr.New(rerr.ReviewAbort, "installation aborted")
	}
	if normalizeConfirm(line) != "O" {
		return rerr.New(rerr.ReviewAbort, "installation aborted by user")
	}
	return nil
}

// review drives the per-pkgbase review loop (§4.8 step 3).
func (o *Orchestrator) review(ctx context.Context, pkgbase string) error {
	dir := o.paths.ReviewPkgDir(pkgbase)
	if err := o.fetcher.Ensure(ctx, dir, pkgbase); err != nil {
		return err
	}

	buildDirExists := false
	if _, err := os.Stat(o.paths.BuildPkgDir(pkgbase)); err == nil {
		buildDirExists = true
	}

	var loopOpts []review.LoopOption
	loopOpts = append(loopOpts, review.WithIO(o.in, o.out), review.WithAuto(o.auto))
	loop := review.NewLoop(o.fetcher, o.sandbox, loopOpts...)
	return loop.Run(ctx, dir, pkgbase, buildDirExists)
}

// buildOne runs steps 5a-5e of §4.8 for one pkgbase.
func (o *Orchestrator) buildOne(ctx context.Context, pkgbase string, pkgnames []string, offline, asDeps bool) error {
	buildDir := o.paths.BuildPkgDir(pkgbase)
	if err := verify.ResetDir(buildDir); err != nil {
		return fmt.Errorf("preparing build dir for %s: %w", pkgbase, err)
	}

	reviewDir := o.paths.ReviewPkgDir(pkgbase)
	if err := copyDir(reviewDir, buildDir, map[string]bool{".git": true}); err != nil {
		return fmt.Errorf("copying review dir for %s: %w", pkgbase, err)
	}

	if offline {
		if err := o.prefetcher.Run(ctx, buildDir); err != nil {
			return fmt.Errorf("pre-fetching sources for %s: %w", pkgbase, err)
		}
	}

	if err := o.sandbox.Build(ctx, buildDir, offline, false); err != nil {
		return err
	}

	produced, err := archiveNames(buildDir)
	if err != nil {
		return fmt.Errorf("listing build output for %s: %w", pkgbase, err)
	}
	if len(produced) == 0 {
		return rerr.New(rerr.BuildFailure, "%s produced no archives", pkgbase)
	}

	whitelist := make(map[string]bool, len(pkgnames))
	for _, n := range pkgnames {
		whitelist[n] = true
	}
	k := commonSuffixLength(produced, whitelist)
	if k < 0 {
		return rerr.New(rerr.BuildFailure, "%s produced no archive matching an expected package name", pkgbase)
	}

	checkedDir := o.paths.CheckedTarsPkgDir(pkgbase)
	if err := verify.ResetDir(checkedDir); err != nil {
		return fmt.Errorf("preparing checked-tars dir for %s: %w", pkgbase, err)
	}

	verifier := verify.New(verify.WithLogger(o.logger), verify.WithIO(o.in, o.out), verify.WithAutobuild(o.auto))

	var installed []string
	for _, name := range produced {
		if !whitelist[name[:len(name)-k]] {
			continue
		}
		full := filepath.Join(buildDir, name)
		if _, err := verifier.Review(full, string(os.PathSeparator)); err != nil {
			return err
		}
		dst, err := verifier.MoveToChecked(full, checkedDir)
		if err != nil {
			return err
		}
		installed = append(installed, dst)
	}

	if len(installed) == 0 {
		return rerr.New(rerr.BuildFailure, "%s produced no whitelisted archives", pkgbase)
	}

	if err := o.pm.InstallArchives(installed, asDeps); err != nil {
		return rerr.Wrap(rerr.InventoryError, pkgbase, err)
	}
	return nil
}

func archiveNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && verify.IsArchiveName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// groupByPkgbase derives, from a resolved ToInstall, the first-seen
// pkgbase order, each pkgbase's maximum depth across its pkgnames, and
// the set of pkgnames belonging to each pkgbase (the archive
// whitelist, §4.8 "archive filter").
func groupByPkgbase(t *resolver.ToInstall) (order []string, depth map[string]int, names map[string][]string) {
	depth = make(map[string]int)
	names = make(map[string][]string)
	seen := make(map[string]bool)

	for _, info := range t.Infos {
		if !seen[info.PkgBase] {
			seen[info.PkgBase] = true
			order = append(order, info.PkgBase)
		}
		names[info.PkgBase] = append(names[info.PkgBase], string(info.Name))

		d := t.Depths[info.Name]
		if cur, ok := depth[info.PkgBase]; !ok || d > cur {
			depth[info.PkgBase] = d
		}
	}
	return order, depth, names
}

// layersDescending groups pkgbases by depth, deepest first, each
// layer's members in the order they first appeared (§4.8 step 5, §8
// scenario 5).
func layersDescending(order []string, depth map[string]int) [][]string {
	byDepth := make(map[int][]string)
	var depths []int
	seenDepth := make(map[int]bool)

	for _, pkgbase := range order {
		d := depth[pkgbase]
		byDepth[d] = append(byDepth[d], pkgbase)
		if !seenDepth[d] {
			seenDepth[d] = true
			depths = append(depths, d)
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(depths)))

	layers := make([][]string, 0, len(depths))
	for _, d := range depths {
		layers = append(layers, byDepth[d])
	}
	return layers
}

func normalizeConfirm(line string) string {
	for _, r := range line {
		if r == 'o' || r == 'O' {
			return "O"
		}
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return "?"
		}
	}
	return "?"
}
