// Package normalize implements the Name Normalizer (§4.1): stripping
// version constraints from a dependency atom and validating the result
// against the recipe-repo name grammar.
package normalize

import "regexp"

// nameGrammar matches a valid NormalizedName: starts with a lowercase
// letter, digit, or one of @_+, followed by any run of those characters
// plus '.' and '-'.
var nameGrammar = regexp.MustCompile(`^[a-z0-9@_+][a-z0-9@_+.-]*$`)

// cutChars are the characters that begin a version constraint suffix.
// The first occurrence of any of these, and everything after it, is
// stripped before validation.
const cutChars = "=<>"

// Name is a string guaranteed to match the recipe-repo grammar.
type Name string

// Clean strips a version-constraint suffix from a raw dependency atom,
// lowercases the result, and validates it against the name grammar.
// It returns ("", false) if the cleaned name fails the grammar check —
// callers must treat that as fatal, per §4.1.
func Clean(atom string) (Name, bool) {
	cut := len(atom)
	for i, c := range atom {
		if c == '=' || c == '<' || c == '>' {
			cut = i
			break
		}
	}
	cleaned := toLowerASCII(atom[:cut])

	if !nameGrammar.MatchString(cleaned) {
		return "", false
	}
	return Name(cleaned), true
}

// toLowerASCII lowercases only ASCII letters, leaving any other byte
// (including non-ASCII UTF-8 continuation bytes) untouched so that a
// name like "german_ö" is preserved verbatim for the grammar check to
// reject, rather than being mangled by a locale-aware lowercasing pass.
func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
