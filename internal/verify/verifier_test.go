package verify

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlainTar(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	tw := newTestTarWriter(f)
	for name, content := range entries {
		tw.writeFile(t, name, content, 0o644)
	}
	require.NoError(t, tw.close())
}

func TestDetectCodec(t *testing.T) {
	cases := map[string]codec{
		"foo-1-1-x86_64.pkg.tar":      codecPlain,
		"foo-1-1-x86_64.pkg.tar.xz":   codecXz,
		"foo-1-1-x86_64.pkg.tar.zst":  codecZstd,
		"foo-1-1-x86_64.pkg.tar.gz":   codecGz,
		"foo-1-1-x86_64.pkg.tar.lzma": codecLzma,
	}
	for name, want := range cases {
		got, ok := detectCodec(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := detectCodec("readme.txt")
	assert.False(t, ok)
}

func TestOpenPlainTarFindsInstallScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foo-1-1-x86_64.pkg.tar")
	writePlainTar(t, path, map[string]string{
		"usr/bin/foo": "binary",
		".INSTALL":    "post_install() { :; }",
	})

	a, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("post_install() { :; }"), a.Install)
	assert.Len(t, a.Entries, 2)
}

func TestMoveFileSameFilesystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pkg.tar")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	destDir := filepath.Join(dir, "checked")
	require.NoError(t, os.MkdirAll(destDir, 0o755))

	v := New()
	dst, err := v.MoveToChecked(src, destDir)
	require.NoError(t, err)

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestResetDirClearsExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checked")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := filepath.Join(dir, "stale.pkg.tar")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	require.NoError(t, ResetDir(dir))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

// Minimal gzip sanity check that newGzipReader opens a stream written
// by stdlib gzip, without pulling in a tar fixture helper twice.
func TestGzipReaderWrapsStdlib(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	r, err := newGzipReader(&buf)
	require.NoError(t, err)
	defer r.Close()
}
