// Package normalize converts raw extracted text into typed cells, matching
// labels and indent widths.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// plainNumber matches an optionally signed base-10 number with an optional
// decimal point. Exponents are not accepted.
var plainNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// Cell normalizes raw cell text.
//
// Blank text yields an empty cell. Text that parses as a number after
// removing whitespace, currency symbols and thousands separators yields a
// numeric cell; "(N)" yields -N. Anything else is kept as trimmed text.
func Cell(raw string) models.Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.EmptyCell()
	}

	// full-width digits and punctuation fold to ASCII before parsing
	if d, ok := parseAccounting(norm.NFKC.String(trimmed)); ok {
		return models.NumericCell(d)
	}
	return models.TextCell(trimmed)
}

// Number parses raw cell text the way Cell does and reports whether it
// was numeric.
func Number(raw string) (decimal.Decimal, bool) {
	return Cell(raw).Decimal()
}

// parseAccounting parses s as an accounting-formatted number.
func parseAccounting(s string) (decimal.Decimal, bool) {
	s = stripNoise(s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
		// "(-5)" and "(+5)" are not accounting negatives
		if s == "" || s[0] == '-' || s[0] == '+' {
			return decimal.Zero, false
		}
		negative = true
	}

	if !plainNumber.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// stripNoise removes whitespace, currency symbols and thousands separators.
func stripNoise(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case unicode.Is(unicode.Sc, r):
		case r == ',':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
