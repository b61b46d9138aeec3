// Package resolver implements the Dependency Resolver (§4.4): iterative
// BFS graph construction over the remote index with depth tracking and
// pacman/remote classification, as an ordered walk that enqueues each
// name at most once through a processed map.
package resolver

import (
	"context"

	"github.com/rua-build/rua/internal/normalize"
	"github.com/rua-build/rua/internal/pacman"
	"github.com/rua-build/rua/internal/remoteindex"
	"github.com/rua-build/rua/internal/rerr"
)

// PkgInfo is one resolved pkgname's identity and dependency set (§3).
type PkgInfo struct {
	Name         normalize.Name
	PkgBase      string
	Dependencies []normalize.Name
}

// ToInstall is the resolver's output state (§3): the full set of
// packages discovered, classified into pacman-satisfiable and
// remote-build dependencies, with per-pkgname build depth.
type ToInstall struct {
	// Infos maps pkgname -> PkgInfo, insertion-ordered.
	Infos     []PkgInfo
	infoIndex map[normalize.Name]int

	// PacmanDeps is the ordered set of names satisfiable from the
	// local package manager.
	PacmanDeps []normalize.Name
	pacmanSeen map[normalize.Name]bool

	// Depths maps pkgname -> build depth. Roots are 0.
	Depths map[normalize.Name]int

	// NotFound is depths.keys - infos.keys, computed after resolution.
	NotFound []normalize.Name
}

func newToInstall() *ToInstall {
	return &ToInstall{
		infoIndex:  make(map[normalize.Name]int),
		pacmanSeen: make(map[normalize.Name]bool),
		Depths:     make(map[normalize.Name]int),
	}
}

// Info looks up a resolved PkgInfo by name.
func (t *ToInstall) Info(name normalize.Name) (PkgInfo, bool) {
	i, ok := t.infoIndex[name]
	if !ok {
		return PkgInfo{}, false
	}
	return t.Infos[i], true
}

func (t *ToInstall) addInfo(p PkgInfo) {
	t.infoIndex[p.Name] = len(t.Infos)
	t.Infos = append(t.Infos, p)
}

func (t *ToInstall) addPacmanDep(name normalize.Name) {
	if t.pacmanSeen[name] {
		return
	}
	t.pacmanSeen[name] = true
	t.PacmanDeps = append(t.PacmanDeps, name)
}

// indexClient is the subset of *remoteindex.Client the resolver needs,
// narrowed to an interface so tests can supply a fake index.
type indexClient interface {
	Info(ctx context.Context, names []string) ([]remoteindex.Package, error)
}

// Resolver builds a ToInstall from root package names.
type Resolver struct {
	index indexClient
	pm    pacman.Adapter
}

// New returns a Resolver querying idx and classifying dependencies
// against pm.
func New(idx *remoteindex.Client, pm pacman.Adapter) *Resolver {
	return &Resolver{index: idx, pm: pm}
}

// Resolve runs the BFS algorithm of §4.4 over roots and returns the
// accumulated ToInstall, or a *rerr.Error of kind InputError/NotFound.
func (r *Resolver) Resolve(ctx context.Context, roots []string) (*ToInstall, error) {
	if len(roots) == 0 {
		return nil, rerr.New(rerr.InputError, "no target packages given")
	}

	t := newToInstall()

	// queued tracks names already placed on the work queue at some
	// point, independent of t.Depths (which classify mutates as soon as
	// it discovers an edge) — this is what guarantees each name is
	// enqueued at most once (§4.4 termination argument).
	queued := make(map[normalize.Name]bool)

	var queue []normalize.Name
	for _, raw := range roots {
		name, ok := normalize.Clean(raw)
		if !ok {
			return nil, rerr.New(rerr.InputError, "invalid package name: %q", raw)
		}
		if !queued[name] {
			t.Depths[name] = 0
			queued[name] = true
			queue = append(queue, name)
		}
	}

	remoteEdges := make(map[normalize.Name][]normalize.Name)
	for len(queue) > 0 {
		start := 0
		if len(queue) > remoteindex.BatchSize {
			start = len(queue) - remoteindex.BatchSize
		}
		chunk := queue[start:]
		queue = queue[:start]

		raw := make([]string, len(chunk))
		for i, n := range chunk {
			raw[i] = string(n)
		}

		remotePkgs, err := r.index.Info(ctx, raw)
		if err != nil {
			return nil, err
		}

		for _, rp := range remotePkgs {
			info, deps, err := r.classify(t, rp)
			if err != nil {
				return nil, err
			}
			for _, d := range deps {
				if !queued[d] {
					queued[d] = true
					queue = append(queue, d)
				}
			}
			remoteEdges[info.Name] = deps
			t.addInfo(info)
		}
	}

	// A depth raised after its package was classified has not reached that
	// package's own remote dependencies yet; reapply max(known, parent+1)
	// over every remote edge until nothing changes (bounded, for cycles).
	for pass, changed := 0, true; changed && pass < len(t.Infos); pass++ {
		changed = false
		for _, info := range t.Infos {
			for _, d := range remoteEdges[info.Name] {
				if want := t.Depths[info.Name] + 1; t.Depths[d] < want {
					t.Depths[d] = want
					changed = true
				}
			}
		}
	}

	t.NotFound = computeNotFound(t)
	if len(t.NotFound) > 0 {
		return nil, rerr.New(rerr.NotFound, "packages not found: %v", namesToStrings(t.NotFound))
	}
	return t, nil
}

// classify processes one remote package's dependency edges per the
// algorithm in §4.4 step 3, returning the PkgInfo to insert and the
// list of newly-remote dependency names to enqueue.
func (r *Resolver) classify(t *ToInstall, rp remoteindex.Package) (PkgInfo, []normalize.Name, error) {
	name, ok := normalize.Clean(rp.Name)
	if !ok {
		return PkgInfo{}, nil, rerr.New(rerr.InputError, "invalid package name from remote index: %q", rp.Name)
	}

	parentDepth := t.Depths[name]

	var deps []normalize.Name
	var newlyRemote []normalize.Name

	all := make([]string, 0, len(rp.Depends)+len(rp.MakeDepends)+len(rp.CheckDepends))
	all = append(all, rp.Depends...)
	all = append(all, rp.MakeDepends...)
	all = append(all, rp.CheckDepends...)

	for _, atom := range all {
		d, ok := normalize.Clean(atom)
		if !ok {
			return PkgInfo{}, nil, rerr.New(rerr.InputError, "invalid dependency atom: %q", atom)
		}
		deps = append(deps, d)

		if d == name {
			// A package that lists itself as a dependency (seen in the
			// wild in makedepends) is trivially satisfied by itself; it
			// contributes no edge and must not perturb its own depth.
			continue
		}

		installed, err := r.pm.IsInstalled(d)
		if err != nil {
			return PkgInfo{}, nil, err
		}
		if installed {
			continue
		}

		installable, err := r.pm.IsInstallable(d)
		if err != nil {
			return PkgInfo{}, nil, err
		}
		if installable {
			t.addPacmanDep(d)
			continue
		}

		// Remote dependency: depth = max(known, parent+1) (§4.4, tie-break
		// by maximum per §9 Design Notes). The caller tracks which names
		// have actually been queued; every remote dependency edge is
		// reported here regardless of whether its depth changed.
		candidate := parentDepth + 1
		if cur, seen := t.Depths[d]; !seen || candidate > cur {
			t.Depths[d] = candidate
		}
		newlyRemote = append(newlyRemote, d)
	}

	return PkgInfo{Name: name, PkgBase: rp.PackageBase, Dependencies: deps}, newlyRemote, nil
}

func computeNotFound(t *ToInstall) []normalize.Name {
	var result []normalize.Name
	for name := range t.Depths {
		if _, ok := t.infoIndex[name]; !ok {
			result = append(result, name)
		}
	}
	return result
}

func namesToStrings(names []normalize.Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
