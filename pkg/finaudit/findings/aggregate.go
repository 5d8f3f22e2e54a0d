// Package findings merges engine output into the ordered verification report.
package findings

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// Aggregate concatenates groups, orders the result by table, kind and first
// row reference, and drops exact duplicates. Findings of different kinds on
// the same rows are all kept.
func Aggregate(groups ...[]models.Finding) []models.Finding {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	all := make([]models.Finding, 0, n)
	for _, g := range groups {
		all = append(all, g...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return Less(all[i], all[j])
	})

	out := make([]models.Finding, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, f := range all {
		k := Key(f)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}

// Less orders findings by table, kind and first row reference, then by
// column, other table, remaining references and detail.
func Less(a, b models.Finding) bool {
	if a.Table != b.Table {
		return a.Table < b.Table
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if ra, rb := a.FirstRowRef(), b.FirstRowRef(); ra != rb {
		return ra < rb
	}
	if a.Column != b.Column {
		return a.Column < b.Column
	}
	if a.OtherTable != b.OtherTable {
		return a.OtherTable < b.OtherTable
	}
	if c := compareRefs(a.RowRefs, b.RowRefs); c != 0 {
		return c < 0
	}
	return a.Detail < b.Detail
}

func compareRefs(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// Key identifies a finding for deduplication: kind, tables, row
// references, column and values.
func Key(f models.Finding) string {
	var b strings.Builder
	b.WriteString(f.Kind.String())
	b.WriteByte('\x00')
	b.WriteString(f.Table)
	b.WriteByte('\x00')
	b.WriteString(f.OtherTable)
	b.WriteByte('\x00')
	for i, r := range f.RowRefs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(r))
	}
	b.WriteByte('\x00')
	b.WriteString(f.Column)
	b.WriteByte('\x00')
	b.WriteString(decimalKey(f.Expected))
	b.WriteByte('\x00')
	b.WriteString(decimalKey(f.Actual))
	return b.String()
}

func decimalKey(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	// canonical form so 1.50 and 1.5 collide
	return d.String()
}
