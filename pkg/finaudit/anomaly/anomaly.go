// Package anomaly flags statistical irregularities in a single table.
//
// The checks look at one table at a time and never consult the inferred
// hierarchy or other tables.
package anomaly

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/normalize"
)

// Thresholds configures the ratio checks.
type Thresholds struct {
	// ExcessiveSignRatio flags a column when negatives exceed this fraction
	// of positives.
	ExcessiveSignRatio decimal.Decimal
	// SparseColumnRatio flags a column when the fraction of empty cells
	// exceeds it.
	SparseColumnRatio decimal.Decimal
}

// DefaultThresholds returns the 50% / 50% defaults.
func DefaultThresholds() Thresholds {
	half := decimal.RequireFromString("0.5")
	return Thresholds{
		ExcessiveSignRatio: half,
		SparseColumnRatio:  half,
	}
}

// Detect runs every check on t.
func Detect(t *models.Table, th Thresholds) []models.Finding {
	var findings []models.Finding
	findings = append(findings, DuplicateLabels(t)...)
	findings = append(findings, ExcessiveSigns(t, th.ExcessiveSignRatio)...)
	findings = append(findings, SparseColumns(t, th.SparseColumnRatio)...)
	return findings
}

// DuplicateLabels reports each normalized label carried by more than one
// row, once, listing every row carrying it.
func DuplicateLabels(t *models.Table) []models.Finding {
	groups := make(map[string][]int)
	labels := make(map[string]string)
	var order []string
	for _, row := range t.Rows {
		key := normalize.Label(row.Label)
		if key == "" {
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
			labels[key] = row.Label
		}
		groups[key] = append(groups[key], row.SourceIndex)
	}

	var findings []models.Finding
	for _, key := range order {
		refs := groups[key]
		if len(refs) < 2 {
			continue
		}
		sort.Ints(refs)
		findings = append(findings, models.Finding{
			Kind:    models.DuplicateLabel,
			Table:   t.Name,
			RowRefs: refs,
			Detail:  fmt.Sprintf("label %q appears %d times", labels[key], len(refs)),
		})
	}
	return findings
}

// ExcessiveSigns reports numeric columns whose count of negative values
// exceeds ratio times the count of positive values.
func ExcessiveSigns(t *models.Table, ratio decimal.Decimal) []models.Finding {
	var findings []models.Finding
	for _, col := range t.NumericColumns() {
		var negatives []int
		positives := 0
		for _, row := range t.Rows {
			v, ok := row.Value(col).Decimal()
			if !ok {
				continue
			}
			switch v.Sign() {
			case -1:
				negatives = append(negatives, row.SourceIndex)
			case 1:
				positives++
			}
		}

		if len(negatives) == 0 {
			continue
		}
		limit := ratio.Mul(decimal.NewFromInt(int64(positives)))
		if !decimal.NewFromInt(int64(len(negatives))).GreaterThan(limit) {
			continue
		}

		f := models.Finding{
			Kind:     models.ExcessiveSign,
			Table:    t.Name,
			RowRefs:  negatives,
			Column:   t.ColumnLabel(col),
			Expected: models.DecimalPtr(ratio),
		}
		if positives > 0 {
			observed := decimal.NewFromInt(int64(len(negatives))).
				DivRound(decimal.NewFromInt(int64(positives)), 4)
			f.Actual = models.DecimalPtr(observed)
			f.Detail = fmt.Sprintf("column %q: %d negative vs %d positive values (ratio %s > %s)",
				f.Column, len(negatives), positives, observed.String(), ratio.String())
		} else {
			f.Detail = fmt.Sprintf("column %q: %d negative and no positive values",
				f.Column, len(negatives))
		}
		findings = append(findings, f)
	}
	return findings
}

// SparseColumns reports value columns whose fraction of empty cells
// exceeds ratio.
func SparseColumns(t *models.Table, ratio decimal.Decimal) []models.Finding {
	if len(t.Rows) == 0 {
		return nil
	}

	total := decimal.NewFromInt(int64(len(t.Rows)))
	var findings []models.Finding
	for col := 0; col < t.ColumnCount(); col++ {
		empty := 0
		for _, row := range t.Rows {
			if row.Value(col).IsEmpty() {
				empty++
			}
		}
		if !decimal.NewFromInt(int64(empty)).GreaterThan(ratio.Mul(total)) {
			continue
		}
		fraction := decimal.NewFromInt(int64(empty)).DivRound(total, 4)
		findings = append(findings, models.Finding{
			Kind:     models.SparseColumn,
			Table:    t.Name,
			Column:   t.ColumnLabel(col),
			Expected: models.DecimalPtr(ratio),
			Actual:   models.DecimalPtr(fraction),
			Detail: fmt.Sprintf("column %q: %d of %d cells empty (%s%%)",
				t.ColumnLabel(col), empty, len(t.Rows), fraction.Shift(2).StringFixed(1)),
		})
	}
	return findings
}
