package review_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rua-build/rua/internal/review"
)

type fakeShellchecker struct{}

func (fakeShellchecker) Shellcheck(ctx context.Context, dir string) (string, int, error) {
	return "", 0, nil
}

func setupReviewDir(t *testing.T, pkgbase string) (string, *review.Fetcher) {
	t.Helper()
	root := t.TempDir()
	newUpstreamRepo(t, root, pkgbase)

	f := review.NewFetcher(root)
	dir := filepath.Join(t.TempDir(), pkgbase)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, f.Ensure(context.Background(), dir, pkgbase))
	return dir, f
}

func TestLoop_Observe_NotMergedBeforeAnyMerge(t *testing.T) {
	dir, f := setupReviewDir(t, "pkg1")
	l := review.NewLoop(f, fakeShellchecker{})

	state, err := l.Observe(context.Background(), dir)
	require.NoError(t, err)
	require.False(t, state.UpstreamMerged)
}

func TestLoop_Run_MergeThenAccept(t *testing.T) {
	dir, f := setupReviewDir(t, "pkg2")

	in := strings.NewReader("M\nO\n")
	var out strings.Builder
	l := review.NewLoop(f, fakeShellchecker{}, review.WithIO(in, &out))

	err := l.Run(context.Background(), dir, "pkg2", false)
	require.NoError(t, err)

	state, err := l.Observe(context.Background(), dir)
	require.NoError(t, err)
	require.True(t, state.UpstreamMerged)
	require.True(t, state.IdenticalToUpstream)
}

func TestLoop_Run_QuitAborts(t *testing.T) {
	dir, f := setupReviewDir(t, "pkg3")

	in := strings.NewReader("Q\n")
	var out strings.Builder
	l := review.NewLoop(f, fakeShellchecker{}, review.WithIO(in, &out))

	err := l.Run(context.Background(), dir, "pkg3", false)
	require.Error(t, err)
}
