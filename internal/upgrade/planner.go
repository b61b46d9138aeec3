// Package upgrade implements the Upgrade Planner (§4.10): it
// classifies every foreign (installed, not sync-repo-available)
// package as outdated, ignored, or nonexistent against the remote
// index, prints a summary table, and hands the outdated set to the
// Build Orchestrator.
package upgrade

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"

	"github.com/rua-build/rua/internal/normalize"
	"github.com/rua-build/rua/internal/pacman"
	"github.com/rua-build/rua/internal/remoteindex"
)

// Status classifies one foreign package relative to the remote index.
type Status int

const (
	StatusOutdated Status = iota
	StatusUpToDate
	StatusIgnored
	StatusNonexistent
)

func (s Status) String() string {
	switch s {
	case StatusOutdated:
		return "outdated"
	case StatusUpToDate:
		return "up to date"
	case StatusIgnored:
		return "ignored"
	case StatusNonexistent:
		return "nonexistent"
	default:
		return "unknown"
	}
}

// Candidate is one foreign package's upgrade classification.
type Candidate struct {
	Name          string
	LocalVersion  string
	RemoteVersion string
	Status        Status
}

// develSuffix matches a VCS-suffixed devel package name (§4.10).
var develSuffix = regexp.MustCompile(`-(git|hg|bzr|svn|cvs|darcs)(-.+)*$`)

// indexClient is the narrow remote-index capability the planner needs.
type indexClient interface {
	Info(ctx context.Context, names []string) ([]remoteindex.Package, error)
}

// Planner computes and prints upgrade candidates.
type Planner struct {
	pm    pacman.Adapter
	index indexClient
}

// New returns a Planner comparing pm's foreign packages against index.
func New(pm pacman.Adapter, index indexClient) *Planner {
	return &Planner{pm: pm, index: index}
}

// Plan classifies every foreign package. A package named in extraIgnore
// or in the package manager's own IgnorePkg set (§3.1) is ignored; any
// other package is outdated when its local version is older than the
// remote one, or when devel is true and its name matches develSuffix
// (§4.10).
func (p *Planner) Plan(ctx context.Context, devel bool, extraIgnore map[string]bool) ([]Candidate, error) {
	foreign, err := p.pm.ForeignPackages()
	if err != nil {
		return nil, err
	}
	if len(foreign) == 0 {
		return nil, nil
	}

	ignored, err := p.ignoreSet(extraIgnore)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(foreign))
	for _, f := range foreign {
		names = append(names, f.Name)
	}

	remotePkgs, err := p.index.Info(ctx, names)
	if err != nil {
		return nil, err
	}
	remoteByName := make(map[string]remoteindex.Package, len(remotePkgs))
	for _, rp := range remotePkgs {
		remoteByName[rp.Name] = rp
	}

	candidates := make([]Candidate, 0, len(foreign))
	for _, f := range foreign {
		if ignored[f.Name] {
			candidates = append(candidates, Candidate{Name: f.Name, LocalVersion: f.Version, Status: StatusIgnored})
			continue
		}

		rp, found := remoteByName[f.Name]
		if !found {
			candidates = append(candidates, Candidate{Name: f.Name, LocalVersion: f.Version, Status: StatusNonexistent})
			continue
		}

		status := StatusUpToDate
		if devel && develSuffix.MatchString(f.Name) {
			status = StatusOutdated
		} else {
			ord, err := p.pm.CompareVersions(f.Version, rp.Version)
			if err != nil {
				return nil, err
			}
			if ord == pacman.Less {
				status = StatusOutdated
			}
		}

		candidates = append(candidates, Candidate{
			Name: f.Name, LocalVersion: f.Version, RemoteVersion: rp.Version, Status: status,
		})
	}

	return candidates, nil
}

// ignoreSet unions the package manager's own IgnorePkg set, the
// tool-local extraIgnore set, and any names passed via --ignore.
func (p *Planner) ignoreSet(extra map[string]bool) (map[string]bool, error) {
	set, err := p.pm.IgnoredPackages()
	if err != nil {
		return nil, err
	}
	if set == nil {
		set = make(map[string]bool)
	}
	for name := range extra {
		set[name] = true
	}
	return set, nil
}

// Outdated filters candidates to the names with StatusOutdated, sorted
// for deterministic display and for feeding into the orchestrator.
func Outdated(candidates []Candidate) []string {
	var names []string
	for _, c := range candidates {
		if c.Status == StatusOutdated {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}

// OutdatedNames is Outdated converted to normalize.Name, the type the
// Build Orchestrator's pipeline expects for install targets.
func OutdatedNames(candidates []Candidate) []normalize.Name {
	var names []normalize.Name
	for _, n := range Outdated(candidates) {
		names = append(names, normalize.Name(n))
	}
	return names
}

// PrintTable writes a three-column name/local/remote table to w, one
// row per candidate, restricted to the statuses in show (nil means no
// restriction). Up-to-date candidates never produce a row.
func PrintTable(w io.Writer, candidates []Candidate, show map[Status]bool) {
	for _, c := range candidates {
		if show != nil && !show[c.Status] {
			continue
		}
		switch c.Status {
		case StatusOutdated:
			fmt.Fprintf(w, "%-30s %-15s -> %-15s\n", c.Name, c.LocalVersion, c.RemoteVersion)
		case StatusIgnored:
			fmt.Fprintf(w, "%-30s %-15s (ignored)\n", c.Name, c.LocalVersion)
		case StatusNonexistent:
			fmt.Fprintf(w, "%-30s %-15s (not in index)\n", c.Name, c.LocalVersion)
		}
	}
}
