package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Label returns the matching key of a row label: NFKC-folded, trimmed,
// with internal whitespace collapsed to single spaces and case folded.
// Qualifier words are kept; two labels match only if their keys are equal.
func Label(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	// Casers carry state and are not shared between goroutines
	return cases.Fold().String(s)
}

// Whitespace widths in indent units.
const (
	tabWidth         = 4
	ideographicWidth = 2
)

// IndentWidth counts the leading whitespace units of s. A tab counts as
// four units and an ideographic space (U+3000) as two; every other space
// character counts as one.
func IndentWidth(s string) int {
	width := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			break
		}
		switch r {
		case '\t':
			width += tabWidth
		case '　':
			width += ideographicWidth
		default:
			width++
		}
	}
	return width
}
