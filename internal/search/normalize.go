package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// FoldDiacritics strips combining marks from a string so accented and
// unaccented spellings index and match identically.
// "Schrödinger" -> "Schrodinger".
func FoldDiacritics(s string) string {
	// Decompose so combining marks become separate runes.
	s = norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue // Drop combining marks.
		}
		b.WriteRune(r)
	}

	return norm.NFC.String(b.String())
}
