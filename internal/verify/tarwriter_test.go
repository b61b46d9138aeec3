package verify

import (
	"archive/tar"
	"io"
	"testing"
)

type testTarWriter struct {
	tw *tar.Writer
}

func newTestTarWriter(w io.Writer) *testTarWriter {
	return &testTarWriter{tw: tar.NewWriter(w)}
}

func (w *testTarWriter) writeFile(t *testing.T, name, content string, mode int64) {
	t.Helper()
	hdr := &tar.Header{
		Name: name,
		Mode: mode,
		Size: int64(len(content)),
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		t.Fatalf("writing tar header for %s: %v", name, err)
	}
	if _, err := w.tw.Write([]byte(content)); err != nil {
		t.Fatalf("writing tar content for %s: %v", name, err)
	}
}

func (w *testTarWriter) close() error {
	return w.tw.Close()
}
