// Package crossref compares line items that appear in more than one table.
package crossref

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/normalize"
)

// Pair is an unordered pair of table indexes with I < J.
type Pair struct {
	I, J int
}

// Pairs returns every pair of n tables once, in lexicographic order.
func Pairs(n int) []Pair {
	var pairs []Pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, Pair{I: i, J: j})
		}
	}
	return pairs
}

// Index maps normalized labels to the first row carrying them.
type Index map[string]models.Row

// NewIndex indexes the rows of t by normalized label. Rows whose label
// normalizes to "" are left out.
func NewIndex(t *models.Table) Index {
	idx := make(Index, len(t.Rows))
	for _, row := range t.Rows {
		key := normalize.Label(row.Label)
		if key == "" {
			continue
		}
		if prev, ok := idx[key]; ok && prev.SourceIndex < row.SourceIndex {
			continue
		}
		idx[key] = row
	}
	return idx
}

// Compare matches rows of a and b by normalized label and reports every
// numeric column position, numeric in both tables, where the two values
// differ by more than tolerance. Agreeing values produce nothing.
func Compare(a, b *models.Table, tolerance decimal.Decimal) []models.Finding {
	return CompareIndexed(a, NewIndex(a), b, NewIndex(b), tolerance)
}

// CompareIndexed is Compare with prebuilt indexes, for callers comparing
// one table against many.
func CompareIndexed(a *models.Table, ia Index, b *models.Table, ib Index, tolerance decimal.Decimal) []models.Finding {
	cols := sharedNumericColumns(a, b)
	if len(cols) == 0 {
		return nil
	}

	var findings []models.Finding
	// walk a's rows so the output follows source order
	for _, row := range a.Rows {
		key := normalize.Label(row.Label)
		if key == "" {
			continue
		}
		first, ok := ia[key]
		if !ok || first.SourceIndex != row.SourceIndex {
			continue
		}
		other, ok := ib[key]
		if !ok {
			continue
		}

		for _, col := range cols {
			va, okA := row.Value(col).Decimal()
			vb, okB := other.Value(col).Decimal()
			if !okA || !okB {
				continue
			}
			if va.Sub(vb).Abs().GreaterThan(tolerance) {
				findings = append(findings, mismatch(a, row, b, other, col, va, vb))
			}
		}
	}
	return findings
}

func sharedNumericColumns(a, b *models.Table) []int {
	inB := make(map[int]bool)
	for _, col := range b.NumericColumns() {
		inB[col] = true
	}
	var cols []int
	for _, col := range a.NumericColumns() {
		if inB[col] {
			cols = append(cols, col)
		}
	}
	return cols
}

func mismatch(a *models.Table, ra models.Row, b *models.Table, rb models.Row, col int, va, vb decimal.Decimal) models.Finding {
	return models.Finding{
		Kind:       models.CrossReferenceMismatch,
		Table:      a.Name,
		OtherTable: b.Name,
		RowRefs:    []int{ra.SourceIndex, rb.SourceIndex},
		Column:     a.ColumnLabel(col),
		Expected:   models.DecimalPtr(va),
		Actual:     models.DecimalPtr(vb),
		Detail: fmt.Sprintf("%q column %d: %s=%s, %s=%s",
			ra.Label, col+1, a.Name, va.String(), b.Name, vb.String()),
	}
}
