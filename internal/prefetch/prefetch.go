package prefetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rua-build/rua/internal/log"
)

// StaticScriptName is the synthesized build script's filename; it is
// written into the build directory before the source-fetch phase runs
// and deleted immediately afterward (§4.7 step 3/4).
const StaticScriptName = "PKGBUILD.static"

// sandboxVerifier is the narrow sandbox capability a Prefetcher needs.
type sandboxVerifier interface {
	Verifysource(ctx context.Context, dir, scriptName string) error
}

// Prefetcher runs a recipe's source-fetch phase against only the
// fields needed for it, so a subsequent offline build never touches
// the network (§4.7).
type Prefetcher struct {
	sandbox sandboxVerifier
	logger  log.Logger
}

// Option configures a Prefetcher.
type Option func(*Prefetcher)

// WithLogger attaches a structured logger.
func WithLogger(l log.Logger) Option { return func(p *Prefetcher) { p.logger = l } }

// New returns a Prefetcher driving sandbox for source verification.
func New(sandbox sandboxVerifier, opts ...Option) *Prefetcher {
	p := &Prefetcher{sandbox: sandbox, logger: log.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run parses dir/.SRCINFO, synthesizes dir/PKGBUILD.static from it,
// verifies every source against its checksum under the sandbox with
// the network enabled, and removes the synthesized script whether or
// not verification succeeded (§4.7).
func (p *Prefetcher) Run(ctx context.Context, dir string) error {
	raw, err := os.ReadFile(filepath.Join(dir, ".SRCINFO"))
	if err != nil {
		return fmt.Errorf("reading .SRCINFO: %w", err)
	}
	info := parseSrcinfo(raw)

	script := synthesize(info)
	scriptPath := filepath.Join(dir, StaticScriptName)
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", StaticScriptName, err)
	}
	defer func() {
		if rmErr := os.Remove(scriptPath); rmErr != nil && !os.IsNotExist(rmErr) {
			p.logger.Warn("failed to remove synthesized build script", "path", scriptPath, "error", rmErr)
		}
	}()

	return p.sandbox.Verifysource(ctx, dir, StaticScriptName)
}

// synthesize builds a minimal build script carrying only the fields
// the source-fetch phase needs (§4.7 step 2): a fixed identity
// (pkgname=tmp, pkgver=1, pkgrel=1), the parsed arch list, and every
// source*/*sums* array verbatim, in the order they were first seen.
func synthesize(info *srcinfo) string {
	var b strings.Builder
	b.WriteString("pkgname=tmp\n")
	b.WriteString("pkgver=1\n")
	b.WriteString("pkgrel=1\n")

	arch := info.arch
	if len(arch) == 0 {
		arch = []string{"x86_64"}
	}
	b.WriteString("arch=(")
	for i, a := range arch {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(escapeSingle(a))
	}
	b.WriteString(")\n")

	for _, key := range info.order {
		values := info.arrays[key]
		b.WriteString(key)
		b.WriteString("=(")
		for i, v := range values {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(escapeSingle(v))
		}
		b.WriteString(")\n")
	}

	b.WriteString("package() {\n  :\n}\n")
	return b.String()
}
