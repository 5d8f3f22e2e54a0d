// Package levels infers the outline hierarchy of a financial statement
// table from label indentation and total keywords.
package levels

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// Keywords matches row labels against a set of total keywords.
// Latin keywords match case-insensitively.
type Keywords struct {
	folded []string
}

// NewKeywords prepares keywords for matching. Blank keywords are ignored.
func NewKeywords(keywords []string) Keywords {
	folder := cases.Fold()
	k := Keywords{folded: make([]string, 0, len(keywords))}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		k.folded = append(k.folded, folder.String(kw))
	}
	return k
}

// Len returns the number of usable keywords.
func (k Keywords) Len() int {
	return len(k.folded)
}

// Match reports whether label contains any keyword.
func (k Keywords) Match(label string) bool {
	if len(k.folded) == 0 {
		return false
	}
	folded := cases.Fold().String(strings.TrimSpace(label))
	for _, kw := range k.folded {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// UnitWidth returns the indent width of one depth level: the smallest
// positive indent in the table. It is 1 when no row is indented or when
// every row has the same indent.
func UnitWidth(t *models.Table) int {
	unit := 0
	uniform := true
	for i, row := range t.Rows {
		if i > 0 && row.IndentWidth != t.Rows[0].IndentWidth {
			uniform = false
		}
		if row.IndentWidth > 0 && (unit == 0 || row.IndentWidth < unit) {
			unit = row.IndentWidth
		}
	}
	if unit == 0 || uniform {
		return 1
	}
	return unit
}

// Infer assigns every row of t a depth and a total flag.
// Depth is IndentWidth / UnitWidth, rounded down.
func Infer(t *models.Table, keywords Keywords) models.LevelAssignment {
	unit := UnitWidth(t)
	a := models.LevelAssignment{
		Depth:     make(map[int]int, len(t.Rows)),
		IsTotal:   make(map[int]bool, len(t.Rows)),
		UnitWidth: unit,
	}
	for _, row := range t.Rows {
		a.Depth[row.SourceIndex] = row.IndentWidth / unit
		a.IsTotal[row.SourceIndex] = keywords.Match(row.Label)
	}
	return a
}

// DepthStat summarizes the rows of one depth.
type DepthStat struct {
	Depth int
	// Rows counts every row at the depth, totals included.
	Rows int
	// Totals counts the total rows at the depth.
	Totals int
	// Sum adds the non-total numeric values of the first numeric column.
	Sum decimal.Decimal
}

// Stats returns one DepthStat per depth present in t, shallowest first.
func Stats(t *models.Table, a models.LevelAssignment) []DepthStat {
	col := -1
	if numeric := t.NumericColumns(); len(numeric) > 0 {
		col = numeric[0]
	}

	byDepth := make(map[int]*DepthStat)
	for _, row := range t.Rows {
		depth := a.Depth[row.SourceIndex]
		st, ok := byDepth[depth]
		if !ok {
			st = &DepthStat{Depth: depth, Sum: decimal.Zero}
			byDepth[depth] = st
		}
		st.Rows++
		if a.IsTotal[row.SourceIndex] {
			st.Totals++
			continue
		}
		if v, ok := row.Value(col).Decimal(); ok {
			st.Sum = st.Sum.Add(v)
		}
	}

	stats := make([]DepthStat, 0, len(byDepth))
	for _, st := range byDepth {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Depth < stats[j].Depth })
	return stats
}
