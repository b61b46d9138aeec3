package verify

import (
	"compress/gzip"
	"io"
)

// newGzipReader wraps stdlib gzip, matching the decompressor-per-codec
// shape every other branch of tarReaderFor uses; gzip needs no
// third-party decoder (klauspost/compress covers zstd, ulikunitz/xz
// covers xz) so it stays on the standard library.
func newGzipReader(r io.Reader) (*gzip.Reader, error) {
	return gzip.NewReader(r)
}
