// Package reconcile verifies total rows against the sums of their
// subordinate rows.
//
// The table is walked once in source order with one running sum per depth
// and column. A leaf adds its value at its own depth. A total at depth d is
// compared with the depth d+1 sum accumulated since the last total at depth
// d or shallower (a depth-0 grand total takes every deeper sum); the deeper
// sums are then cleared and the total's reported value is added at depth d,
// so an enclosing total sees verified subtotals instead of the leaves
// beneath them.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// DefaultTolerance is the absolute difference below which a total and its
// computed sum are considered equal.
var DefaultTolerance = decimal.RequireFromString("0.01")

// accumulator holds the running sum of one depth for every column.
type accumulator struct {
	sums []decimal.Decimal
	seen []bool
}

func newAccumulator(cols int) *accumulator {
	return &accumulator{
		sums: make([]decimal.Decimal, cols),
		seen: make([]bool, cols),
	}
}

func (a *accumulator) add(col int, d decimal.Decimal) {
	a.sums[col] = a.sums[col].Add(d)
	a.seen[col] = true
}

func (a *accumulator) reset() {
	for i := range a.sums {
		a.sums[i] = decimal.Zero
		a.seen[i] = false
	}
}

// stack is the per-depth accumulator set, grown on demand.
type stack struct {
	cols   int
	levels []*accumulator
}

func (s *stack) at(depth int) *accumulator {
	for len(s.levels) <= depth {
		s.levels = append(s.levels, newAccumulator(s.cols))
	}
	return s.levels[depth]
}

// below returns the computed sum a total at depth compares against for col
// and whether it received any value. A total at depth d > 0 reads only the
// depth d+1 accumulator; rows further down reach it through the subtotal
// that closes them. A grand total at depth 0 reads every deeper accumulator,
// so rows never closed by a subtotal still count.
func (s *stack) below(depth, col int) (decimal.Decimal, bool) {
	if depth > 0 {
		if depth+1 >= len(s.levels) || !s.levels[depth+1].seen[col] {
			return decimal.Zero, false
		}
		return s.levels[depth+1].sums[col], true
	}

	sum := decimal.Zero
	seen := false
	for d := 1; d < len(s.levels); d++ {
		if s.levels[d].seen[col] {
			sum = sum.Add(s.levels[d].sums[col])
			seen = true
		}
	}
	return sum, seen
}

// clearBelow resets every accumulator deeper than depth.
func (s *stack) clearBelow(depth int) {
	for d := depth + 1; d < len(s.levels); d++ {
		s.levels[d].reset()
	}
}

// Reconcile checks every total row of t against the rows it encloses and
// returns a SumMismatch finding per total row and column whose reported
// value differs from the computed sum by more than tolerance.
//
// Empty or text cells are never compared. A table without total rows
// yields no findings.
func Reconcile(t *models.Table, levels models.LevelAssignment, tolerance decimal.Decimal) []models.Finding {
	rows := make([]models.Row, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SourceIndex < rows[j].SourceIndex
	})

	cols := t.ColumnCount()
	st := &stack{cols: cols}
	var findings []models.Finding

	for _, row := range rows {
		depth := levels.Depth[row.SourceIndex]
		if depth < 0 {
			depth = 0
		}

		if !levels.IsTotal[row.SourceIndex] {
			acc := st.at(depth)
			for col := 0; col < cols; col++ {
				if v, ok := row.Value(col).Decimal(); ok {
					acc.add(col, v)
				}
			}
			continue
		}

		contributions := make([]*decimal.Decimal, cols)
		for col := 0; col < cols; col++ {
			computed, hasChildren := st.below(depth, col)
			reported, hasReported := row.Value(col).Decimal()

			switch {
			case hasReported:
				contributions[col] = models.DecimalPtr(reported)
			case hasChildren:
				contributions[col] = models.DecimalPtr(computed)
			}

			if !hasReported || !hasChildren {
				continue
			}
			if reported.Sub(computed).Abs().GreaterThan(tolerance) {
				findings = append(findings, mismatch(t, row, col, computed, reported))
			}
		}

		st.clearBelow(depth)
		acc := st.at(depth)
		for col, c := range contributions {
			if c != nil {
				acc.add(col, *c)
			}
		}
	}

	return findings
}

func mismatch(t *models.Table, row models.Row, col int, computed, reported decimal.Decimal) models.Finding {
	column := t.ColumnLabel(col)
	return models.Finding{
		Kind:     models.SumMismatch,
		Table:    t.Name,
		RowRefs:  []int{row.SourceIndex},
		Column:   column,
		Expected: models.DecimalPtr(computed),
		Actual:   models.DecimalPtr(reported),
		Detail: fmt.Sprintf("total %q column %q: computed %s, reported %s (difference %s)",
			row.Label, column, computed.String(), reported.String(), reported.Sub(computed).String()),
	}
}
