package orchestrator

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rua-build/rua/internal/log"
	"github.com/rua-build/rua/internal/normalize"
	"github.com/rua-build/rua/internal/pacman"
	"github.com/rua-build/rua/internal/resolver"
	"github.com/rua-build/rua/internal/review"
	"github.com/rua-build/rua/internal/testutil"
)

type fakeSandbox struct {
	archiveName string
}

func (f *fakeSandbox) Build(ctx context.Context, dir string, offline, force bool) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	_ = tw.Close() // empty archive, valid tar trailer only
	return os.WriteFile(filepath.Join(dir, f.archiveName), buf.Bytes(), 0o644)
}

func (f *fakeSandbox) Shellcheck(ctx context.Context, dir string) (string, int, error) {
	return "", 0, nil
}

func (f *fakeSandbox) Verifysource(ctx context.Context, dir, scriptName string) error {
	return nil
}

type fakePacman struct {
	asDepsInstalled []normalize.Name
	archivesPaths   []string
	archivesAsDeps  bool
}

func (f *fakePacman) IsInstalled(normalize.Name) (bool, error)     { return false, nil }
func (f *fakePacman) IsInstallable(normalize.Name) (bool, error)   { return false, nil }
func (f *fakePacman) ForeignPackages() ([]pacman.ForeignPackage, error) { return nil, nil }
func (f *fakePacman) CompareVersions(a, b string) (pacman.Ordering, error) {
	return pacman.NativeCompare(a, b), nil
}
func (f *fakePacman) IgnoredPackages() (map[string]bool, error) { return nil, nil }
func (f *fakePacman) InstallAsDeps(names []normalize.Name) error {
	f.asDepsInstalled = append(f.asDepsInstalled, names...)
	return nil
}
func (f *fakePacman) InstallArchives(paths []string, asDeps bool) error {
	f.archivesPaths = append(f.archivesPaths, paths...)
	f.archivesAsDeps = asDeps
	return nil
}

func newUpstreamRepo(t *testing.T, root, pkgbase string) {
	t.Helper()
	seedDir := filepath.Join(root, "seed-"+pkgbase)
	require.NoError(t, os.MkdirAll(seedDir, 0o755))
	runGit(t, seedDir, "init", "-b", "master")
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "PKGBUILD"), []byte("pkgname=demo\n"), 0o644))
	runGit(t, seedDir, "add", "PKGBUILD")
	runGit(t, seedDir, "-c", "user.name=t", "-c", "user.email=t@t", "commit", "-m", "seed")

	barePath := filepath.Join(root, pkgbase+".git")
	runGit(t, root, "clone", "--bare", seedDir, barePath)
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func TestOrchestrator_InstallResolved_EndToEnd(t *testing.T) {
	root := t.TempDir()
	newUpstreamRepo(t, root, "demo")

	paths := testutil.NewPaths(t)
	pm := &fakePacman{}
	sb := &fakeSandbox{archiveName: "demo.pkg.tar"}

	o := &Orchestrator{
		paths:      paths,
		pm:         pm,
		fetcher:    review.NewFetcher(root),
		sandbox:    sb,
		prefetcher: nil, // offline=false in this test, so Run is never called
		logger:     log.Default(),
		in:         bufio.NewReader(strings.NewReader("O\n")),
		out:        &bytes.Buffer{},
		auto:       true,
	}

	toInstall := &resolver.ToInstall{
		Infos:  []resolver.PkgInfo{{Name: normalize.Name("demo"), PkgBase: "demo"}},
		Depths: map[normalize.Name]int{normalize.Name("demo"): 0},
	}

	require.NoError(t, o.installResolved(context.Background(), toInstall, false, false))

	checkedPath := filepath.Join(paths.CheckedTarsPkgDir("demo"), "demo.pkg.tar")
	_, err := os.Stat(checkedPath)
	require.NoError(t, err, "verified archive should land in checked-tars dir")

	require.Equal(t, []string{checkedPath}, pm.archivesPaths)
	require.False(t, pm.archivesAsDeps)

	_, err = os.Stat(paths.BuildPkgDir("demo"))
	require.True(t, os.IsNotExist(err), "build dir should be cleaned up after install")
}
