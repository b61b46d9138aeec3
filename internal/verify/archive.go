// Package verify implements the Artifact Verifier (§4.9): archive
// decompression dispatch, entry inspection, and the interactive
// archive-review menu, plus the cross-device-safe mover that lands
// verified archives in the checked-tars directory (§7).
package verify

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"github.com/rua-build/rua/internal/rerr"
)

// codec is the tagged variant over supported archive wrappers (§9
// Design Notes: "archive-decompressor dispatch by file-extension is a
// tagged variant over {Plain, Xz, Gz, Zstd}" — Lzma is split out from
// Xz here because the two are different container formats sharing an
// extension family).
type codec int

const (
	codecPlain codec = iota
	codecXz
	codecLzma
	codecGz
	codecZstd
)

// recognizedSuffixes maps every suffix named in §6 to its codec.
// ".pkg.tar.lzma" is a raw LZMA1 stream with its own legacy header,
// not an xz container, so it gets its own codec rather than being
// decoded with the xz reader.
var recognizedSuffixes = []struct {
	suffix string
	codec  codec
}{
	{".pkg.tar.zst", codecZstd},
	{".pkg.tar.zstd", codecZstd},
	{".pkg.tar.xz", codecXz},
	{".pkg.tar.lzma", codecLzma},
	{".pkg.tar.gz", codecGz},
	{".pkg.tar.gzip", codecGz},
	{".pkg.tar", codecPlain},
}

// detectCodec returns the codec for name's recognized suffix, or false
// if name does not carry one of the §6 archive suffixes.
func detectCodec(name string) (codec, bool) {
	lower := strings.ToLower(name)
	for _, c := range recognizedSuffixes {
		if strings.HasSuffix(lower, c.suffix) {
			return c.codec, true
		}
	}
	return 0, false
}

// IsArchiveName reports whether name carries one of the recognized
// archive suffixes (§6), letting callers filter a build directory's
// output without reaching into this package's codec internals.
func IsArchiveName(name string) bool {
	_, ok := detectCodec(name)
	return ok
}

// Entry is one file recorded while walking an archive.
type Entry struct {
	Path          string
	Mode          os.FileMode
	Executable    bool
	SetidOrSticky bool
}

// Archive is the result of walking one artifact: every regular-file
// entry plus the contents of .INSTALL, if present.
type Archive struct {
	Path    string
	Entries []Entry
	Install []byte // contents of .INSTALL, nil if absent
}

// Open reads path's archive fully, dispatching decompression by the
// codec its filename suffix declares (§6, §9 Design Notes).
func Open(path string) (*Archive, error) {
	c, ok := detectCodec(path)
	if !ok {
		return nil, rerr.New(rerr.ArchiveError, "unrecognized archive suffix: %s", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, rerr.Wrap(rerr.ArchiveError, path, err)
	}
	defer f.Close()

	tr, closeFn, err := tarReaderFor(f, c)
	if err != nil {
		return nil, rerr.Wrap(rerr.ArchiveError, path, fmt.Errorf("opening decompressor: %w", err))
	}
	if closeFn != nil {
		defer closeFn()
	}

	a := &Archive{Path: path}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rerr.Wrap(rerr.ArchiveError, path, fmt.Errorf("reading tar entry: %w", err))
		}

		cleanName := strings.TrimPrefix(hdr.Name, "./")

		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		mode := hdr.FileInfo().Mode()
		a.Entries = append(a.Entries, Entry{
			Path:          cleanName,
			Mode:          mode,
			Executable:    mode&0o111 != 0,
			SetidOrSticky: mode&(os.ModeSetuid|os.ModeSetgid|os.ModeSticky) != 0,
		})

		if cleanName == ".INSTALL" {
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, rerr.Wrap(rerr.ArchiveError, path, fmt.Errorf("reading .INSTALL: %w", err))
			}
			a.Install = data
		}
	}

	return a, nil
}

func tarReaderFor(f *os.File, c codec) (*tar.Reader, func(), error) {
	switch c {
	case codecPlain:
		return tar.NewReader(f), nil, nil
	case codecGz:
		gzr, err := newGzipReader(f)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(gzr), func() { gzr.Close() }, nil
	case codecXz:
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(xzr), nil, nil
	case codecLzma:
		lzr, err := lzma.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(lzr), nil, nil
	case codecZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(zr), func() { zr.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unhandled codec %d", c)
	}
}

// Executables returns every entry with any execute bit set.
func (a *Archive) Executables() []Entry {
	var out []Entry
	for _, e := range a.Entries {
		if e.Executable {
			out = append(out, e)
		}
	}
	return out
}

// Setid returns every entry with setuid, setgid, or sticky bits set.
func (a *Archive) Setid() []Entry {
	var out []Entry
	for _, e := range a.Entries {
		if e.SetidOrSticky {
			out = append(out, e)
		}
	}
	return out
}

// MissingFromFilesystem returns entries whose path does not exist
// under root (typically "/"), one of the archive-review menu options.
// An entry whose path would resolve outside root (a malicious
// "../../" archive member) is reported as missing without ever being
// stat'd, rather than having its traversal silently followed.
func (a *Archive) MissingFromFilesystem(root string) []Entry {
	var out []Entry
	for _, e := range a.Entries {
		full := filepath.Join(root, e.Path)
		if !withinDir(full, root) {
			out = append(out, e)
			continue
		}
		if _, err := os.Lstat(full); os.IsNotExist(err) {
			out = append(out, e)
		}
	}
	return out
}
