// Package normalize prepares free-text input for fuzzy matching. All text
// entering the matcher or completer passes through here exactly once, so
// that scores computed against the store's normalised name columns stay
// comparable.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes to NFD, strips combining marks and recomposes.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Text lowercases s, strips diacritics, replaces punctuation with spaces
// and collapses whitespace. The result is suitable for trigram comparison
// against the store's name index.
func Text(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits s into normalised tokens at whitespace boundaries.
func Tokens(s string) []string {
	normalized := Text(s)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// IsBlank reports whether s normalises to nothing useful.
func IsBlank(s string) bool {
	return Text(s) == ""
}
