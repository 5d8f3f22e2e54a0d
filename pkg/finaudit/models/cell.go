// Package models defines data structures for financial-statement verification.
package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CellKind distinguishes the three normalized cell variants.
type CellKind int

const (
	// CellEmpty is a blank or whitespace-only cell.
	CellEmpty CellKind = iota
	// CellNumeric is a cell whose text parsed as a number.
	CellNumeric
	// CellText is any other non-blank cell.
	CellText
)

func (k CellKind) String() string {
	switch k {
	case CellNumeric:
		return "numeric"
	case CellText:
		return "text"
	default:
		return "empty"
	}
}

// Cell is a normalized cell value. Only the field matching Kind is meaningful.
type Cell struct {
	// Kind is the variant tag.
	Kind CellKind
	// Number holds the value of a CellNumeric cell.
	Number decimal.Decimal
	// Text holds the trimmed text of a CellText cell.
	Text string
}

// EmptyCell returns a CellEmpty cell.
func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

// NumericCell returns a CellNumeric cell holding d.
func NumericCell(d decimal.Decimal) Cell {
	return Cell{Kind: CellNumeric, Number: d}
}

// TextCell returns a CellText cell holding s.
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// IsEmpty reports whether the cell is CellEmpty.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// IsNumeric reports whether the cell is CellNumeric.
func (c Cell) IsNumeric() bool {
	return c.Kind == CellNumeric
}

// Decimal returns the numeric value and true for CellNumeric cells.
func (c Cell) Decimal() (decimal.Decimal, bool) {
	if c.Kind != CellNumeric {
		return decimal.Zero, false
	}
	return c.Number, true
}

// String renders the cell for reports.
func (c Cell) String() string {
	switch c.Kind {
	case CellNumeric:
		return c.Number.String()
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// MarshalJSON encodes numeric cells as JSON numbers, text cells as strings
// and empty cells as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellNumeric:
		return []byte(c.Number.String()), nil
	case CellText:
		return json.Marshal(c.Text)
	default:
		return []byte("null"), nil
	}
}
