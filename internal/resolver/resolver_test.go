package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rua-build/rua/internal/normalize"
	"github.com/rua-build/rua/internal/pacman"
	"github.com/rua-build/rua/internal/remoteindex"
)

// fakeIndex is an in-memory remote index keyed by package name.
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

// fakePacman reports every name in installable as available from a sync
// repository, and nothing as already installed.
type fakePacman struct {
	installable map[string]bool
}

func (f *fakePacman) IsInstalled(normalize.Name) (bool, error)         { return false, nil }
func (f *fakePacman) IsInstallable(n normalize.Name) (bool, error)     { return f.installable[string(n)], nil }
func (f *fakePacman) ForeignPackages() ([]pacman.ForeignPackage, error) { return nil, nil }
func (f *fakePacman) CompareVersions(a, b string) (pacman.Ordering, error) {
	return pacman.NativeCompare(a, b), nil
}
func (f *fakePacman) IgnoredPackages() (map[string]bool, error) { return nil, nil }
func (f *fakePacman) InstallAsDeps([]normalize.Name) error      { return nil }
func (f *fakePacman) InstallArchives([]string, bool) error     { return nil }

func TestResolveDepthPropagation(t *testing.T) {
	// X -> Y -> Z, a straight chain, expect depths X:0 Y:1 Z:2.
	idx := &fakeIndex{byName: map[string]remoteindex.Package{
		"x": {Name: "x", PackageBase: "x", Depends: []string{"y"}},
		"y": {Name: "y", PackageBase: "y", Depends: []string{"z"}},
		"z": {Name: "z", PackageBase: "z"},
	}}
	pm := &fakePacman{installable: map[string]bool{}}
	r := &Resolver{index: idx, pm: pm}

	got, err := r.Resolve(context.Background(), []string{"x"})
	require.NoError(t, err)

	assert.Equal(t, 0, got.Depths[normalize.Name("x")])
	assert.Equal(t, 1, got.Depths[normalize.Name("y")])
	assert.Equal(t, 2, got.Depths[normalize.Name("z")])

	_, ok := got.Info(normalize.Name("z"))
	assert.True(t, ok, "z should have been resolved via the BFS queue, not just recorded as a depth")
}

func TestResolveClassifiesPacmanDeps(t *testing.T) {
	// X depends on gcc, which pacman reports as installable.
	idx := &fakeIndex{byName: map[string]remoteindex.Package{
		"x": {Name: "x", PackageBase: "x", MakeDepends: []string{"gcc"}},
	}}
	pm := &fakePacman{installable: map[string]bool{"gcc": true}}
	r := &Resolver{index: idx, pm: pm}

	got, err := r.Resolve(context.Background(), []string{"x"})
	require.NoError(t, err)

	assert.Contains(t, got.PacmanDeps, normalize.Name("gcc"))
	_, foundAsRemote := got.Info(normalize.Name("gcc"))
	assert.False(t, foundAsRemote, "a pacman-installable dependency must not also appear as a resolved remote package")
}

func TestResolveNotFound(t *testing.T) {
	idx := &fakeIndex{byName: map[string]remoteindex.Package{}}
	pm := &fakePacman{installable: map[string]bool{}}
	r := &Resolver{index: idx, pm: pm}

	_, err := r.Resolve(context.Background(), []string{"missing-pkg"})
	require.Error(t, err)
}

func TestResolveSelfDependency(t *testing.T) {
	// A package that lists itself as a dependency must not loop forever
	// or be enqueued twice.
	idx := &fakeIndex{byName: map[string]remoteindex.Package{
		"x": {Name: "x", PackageBase: "x", Depends: []string{"x"}},
	}}
	pm := &fakePacman{installable: map[string]bool{}}
	r := &Resolver{index: idx, pm: pm}

	got, err := r.Resolve(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Depths[normalize.Name("x")])
	assert.Len(t, got.Infos, 1)
}

func TestResolveRejectsEmptyRoots(t *testing.T) {
	r := &Resolver{index: &fakeIndex{byName: map[string]remoteindex.Package{}}, pm: &fakePacman{}}
	_, err := r.Resolve(context.Background(), nil)
	require.Error(t, err)
}
