package upgrade_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rua-build/rua/internal/normalize"
	"github.com/rua-build/rua/internal/pacman"
	"github.com/rua-build/rua/internal/remoteindex"
	"github.com/rua-build/rua/internal/upgrade"
)

type fakePacman struct {
	foreign []pacman.ForeignPackage
	ignored map[string]bool
}

func (f *fakePacman) IsInstalled(normalize.Name) (bool, error)   { return false, nil }
func (f *fakePacman) IsInstallable(normalize.Name) (bool, error) { return false, nil }
func (f *fakePacman) ForeignPackages() ([]pacman.ForeignPackage, error) {
	return f.foreign, nil
}
func (f *fakePacman) CompareVersions(a, b string) (pacman.Ordering, error) {
	return pacman.NativeCompare(a, b), nil
}
func (f *fakePacman) IgnoredPackages() (map[string]bool, error) { return f.ignored, nil }
func (f *fakePacman) InstallAsDeps(names []normalize.Name) error { return nil }
func (f *fakePacman) InstallArchives(paths []string, asDeps bool) error { return nil }

type fakeIndex struct {
	byName map[string]remoteindex.Package
}

func (f *fakeIndex) Info(_ context.Context, names []string) ([]remoteindex.Package, error) {
	var out []remoteindex.Package
	for _, n := range names {
		if p, ok := f.byName[n]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestPlanner_Plan_Classification(t *testing.T) {
	pm := &fakePacman{
		foreign: []pacman.ForeignPackage{
			{Name: "old-pkg", Version: "1.0-1"},
			{Name: "current-pkg", Version: "2.0-1"},
			{Name: "gone-pkg", Version: "3.0-1"},
			{Name: "skip-pkg", Version: "4.0-1"},
		},
		ignored: map[string]bool{"skip-pkg": true},
	}
	idx := &fakeIndex{byName: map[string]remoteindex.Package{
		"old-pkg":     {Name: "old-pkg", Version: "1.1-1"},
		"current-pkg": {Name: "current-pkg", Version: "2.0-1"},
	}}

	p := upgrade.New(pm, idx)
	candidates, err := p.Plan(context.Background(), false, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 4)

	byName := make(map[string]upgrade.Candidate)
	for _, c := range candidates {
		byName[c.Name] = c
	}
	require.Equal(t, upgrade.StatusOutdated, byName["old-pkg"].Status)
	require.Equal(t, upgrade.StatusUpToDate, byName["current-pkg"].Status)
	require.Equal(t, upgrade.StatusNonexistent, byName["gone-pkg"].Status)
	require.Equal(t, upgrade.StatusIgnored, byName["skip-pkg"].Status)

	require.Equal(t, []string{"old-pkg"}, upgrade.Outdated(candidates))
}

func TestPlanner_Plan_DevelAlwaysOutdated(t *testing.T) {
	pm := &fakePacman{
		foreign: []pacman.ForeignPackage{{Name: "foo-git", Version: "r100-1"}},
		ignored: nil,
	}
	idx := &fakeIndex{byName: map[string]remoteindex.Package{
		"foo-git": {Name: "foo-git", Version: "r50-1"},
	}}

	p := upgrade.New(pm, idx)
	candidates, err := p.Plan(context.Background(), true, nil)
	require.NoError(t, err)
	require.Equal(t, upgrade.StatusOutdated, candidates[0].Status)
}

func TestPlanner_Plan_NoForeignPackages(t *testing.T) {
	pm := &fakePacman{}
	p := upgrade.New(pm, &fakeIndex{byName: map[string]remoteindex.Package{}})
	candidates, err := p.Plan(context.Background(), false, nil)
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestPlanner_Plan_ExtraIgnoreUnioned(t *testing.T) {
	pm := &fakePacman{
		foreign: []pacman.ForeignPackage{{Name: "extra-pkg", Version: "1.0-1"}},
	}
	idx := &fakeIndex{byName: map[string]remoteindex.Package{
		"extra-pkg": {Name: "extra-pkg", Version: "2.0-1"},
	}}

	p := upgrade.New(pm, idx)
	candidates, err := p.Plan(context.Background(), false, map[string]bool{"extra-pkg": true})
	require.NoError(t, err)
	require.Equal(t, upgrade.StatusIgnored, candidates[0].Status)
}
