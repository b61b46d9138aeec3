// Package prefetch implements the Source Pre-fetcher (§4.7): it parses
// a recipe's .SRCINFO metadata, synthesizes a minimal build script
// containing only the fields the build tool's source-fetch phase
// needs, and runs that phase under the sandbox with the network
// enabled so the subsequent offline build never touches the network
// itself: construct a minimal work unit, run a tool against it, clean
// up afterward.
package prefetch

import (
	"bufio"
	"strings"
)

// srcinfo is the parsed subset of a .SRCINFO file this package needs:
// architecture list and every source/checksum array, including
// architecture-qualified variants (source_x86_64, sha256sums_x86_64,
// ...), preserved verbatim (§6 "must preserve every source*/*sums*
// array verbatim").
type srcinfo struct {
	arch   []string
	arrays map[string][]string // key -> ordered values, insertion order preserved
	order  []string            // key insertion order, for deterministic script generation
}

// parseSrcinfo reads a .SRCINFO document (§6: "key = value lines, #
// comments, blank separators; repeated keys form lists; names
// depends_<arch> select architecture") and extracts arch plus every
// source*/  *sums* keyed array.
func parseSrcinfo(data []byte) *srcinfo {
	info := &srcinfo{arrays: make(map[string][]string)}

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])

		if key == "arch" {
			info.arch = append(info.arch, val)
			continue
		}
		if isSourceKey(key) {
			if _, seen := info.arrays[key]; !seen {
				info.order = append(info.order, key)
			}
			info.arrays[key] = append(info.arrays[key], val)
		}
	}
	return info
}

// isSourceKey reports whether key is one of the source/checksum arrays
// that must carry through into the synthesized build script verbatim,
// including architecture-qualified variants like source_x86_64.
func isSourceKey(key string) bool {
	base := key
	for _, suffix := range architectureSuffixes {
		if strings.HasSuffix(key, suffix) {
			base = strings.TrimSuffix(key, suffix)
			break
		}
	}
	switch base {
	case "source":
		return true
	}
	return strings.HasSuffix(base, "sums")
}

var architectureSuffixes = []string{"_x86_64", "_i686", "_aarch64", "_armv7h", "_any"}
