package pacman

import (
	"strconv"
	"strings"
)

// NativeCompare implements the epoch:pkgver-pkgrel version ordering
// algorithm natively, for use when the vercmp binary is unavailable.
// Segments are split into alternating numeric/alphabetic runs; numeric
// segments compare numerically, alphabetic segments compare
// byte-for-byte, and '~' sorts before the empty string (so "1.0~beta"
// is older than "1.0").
func NativeCompare(a, b string) Ordering {
	ea, va := splitEpoch(a)
	eb, vb := splitEpoch(b)
	if ea != eb {
		if ea < eb {
			return Less
		}
		return Greater
	}

	pa, ra := splitRelease(va)
	pb, rb := splitRelease(vb)

	if c := compareSegment(pa, pb); c != Equal {
		return c
	}
	if ra == "" || rb == "" {
		// A version without a pkgrel component is considered equal on
		// that axis; callers that always carry a pkgrel won't hit this.
		return Equal
	}
	return compareSegment(ra, rb)
}

func splitEpoch(v string) (int, string) {
	if i := strings.IndexByte(v, ':'); i >= 0 {
		n, err := strconv.Atoi(v[:i])
		if err == nil {
			return n, v[i+1:]
		}
	}
	return 0, v
}

func splitRelease(v string) (pkgver, pkgrel string) {
	if i := strings.LastIndexByte(v, '-'); i >= 0 {
		return v[:i], v[i+1:]
	}
	return v, ""
}

// compareSegment implements alnum-segment comparison with '~' sorting
// before everything, including the empty string.
func compareSegment(a, b string) Ordering {
	for {
		a, b = skipSeparators(a), skipSeparators(b)
		switch {
		case a == "" && b == "":
			return Equal
		case strings.HasPrefix(a, "~") && !strings.HasPrefix(b, "~"):
			return Less
		case !strings.HasPrefix(a, "~") && strings.HasPrefix(b, "~"):
			return Greater
		case strings.HasPrefix(a, "~") && strings.HasPrefix(b, "~"):
			a, b = a[1:], b[1:]
			continue
		case a == "":
			return Less
		case b == "":
			return Greater
		}

		ta, resta := takeRun(a)
		tb, restb := takeRun(b)

		if c := compareRun(ta, tb); c != Equal {
			return c
		}
		a, b = resta, restb
	}
}

// takeRun consumes a maximal run of the same character class (digits or
// letters) from the front of s; a separator or '~' ends the run.
func takeRun(s string) (run, rest string) {
	if s == "" {
		return "", ""
	}
	isDigit := isDigitByte(s[0])
	i := 1
	for i < len(s) && isAlnumByte(s[i]) && isDigitByte(s[i]) == isDigit {
		i++
	}
	return s[:i], s[i:]
}

// skipSeparators drops leading characters that are neither letters,
// digits nor '~' (such as '.', '_' or '+').
func skipSeparators(s string) string {
	for s != "" && s[0] != '~' && !isAlnumByte(s[0]) {
		s = s[1:]
	}
	return s
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnumByte(c byte) bool {
	return isDigitByte(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func compareRun(a, b string) Ordering {
	aDigit := a != "" && isDigitByte(a[0])
	bDigit := b != "" && isDigitByte(b[0])

	if aDigit && bDigit {
		na := strings.TrimLeft(a, "0")
		nb := strings.TrimLeft(b, "0")
		if len(na) != len(nb) {
			if len(na) < len(nb) {
				return Less
			}
			return Greater
		}
		switch {
		case na < nb:
			return Less
		case na > nb:
			return Greater
		default:
			return Equal
		}
	}

	if aDigit != bDigit {
		// A numeric segment always outranks an alphabetic one at the
		// same position (pacman's vercmp semantics).
		if aDigit {
			return Greater
		}
		return Less
	}

	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}
