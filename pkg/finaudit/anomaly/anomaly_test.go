package anomaly

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/table"
)

func mustBuild(t *testing.T, columns []string, rows ...models.RawRow) *models.Table {
	t.Helper()
	tbl, err := table.Build(models.RawTable{Name: "T", ColumnLabels: columns, Rows: rows})
	require.NoError(t, err)
	return &tbl
}

func row(label string, cells ...string) models.RawRow {
	return models.RawRow{Label: label, Cells: cells}
}

func TestDuplicateLabels(t *testing.T) {
	tbl := mustBuild(t, []string{"v"},
		row("매출", "1"),
		row("원가", "2"),
		row("  매출 ", "3"),
		row("기타", "4"),
		row("", "5"),
		row("", "6"),
	)

	findings := DuplicateLabels(tbl)
	require.Len(t, findings, 1)
	assert.Equal(t, models.DuplicateLabel, findings[0].Kind)
	assert.Equal(t, []int{0, 2}, findings[0].RowRefs)
}

func TestDuplicateLabels_OncePerLabel(t *testing.T) {
	tbl := mustBuild(t, []string{"v"},
		row("a", "1"), row("b", "1"), row("A", "1"), row("b", "1"), row("a", "1"),
	)

	findings := DuplicateLabels(tbl)
	require.Len(t, findings, 2)
	assert.Equal(t, []int{0, 2, 4}, findings[0].RowRefs)
	assert.Equal(t, []int{1, 3}, findings[1].RowRefs)
}

func TestExcessiveSigns(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		flagged  bool
		negRefs  []int
		observed string
	}{
		{"no negatives", []string{"1", "2", "3"}, false, nil, ""},
		{"at the limit", []string{"1", "2", "(3)"}, false, nil, ""},
		{"over the limit", []string{"1", "(2)", "(3)", "4"}, true, []int{1, 2}, "1"},
		{"majority negative", []string{"(1)", "(2)", "3"}, true, []int{0, 1}, "2"},
		{"all negative", []string{"-1", "-2"}, true, []int{0, 1}, ""},
		{"zeros ignored", []string{"0", "0", "(1)", "5", "6"}, false, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []models.RawRow
			for i, v := range tt.values {
				rows = append(rows, row(string(rune('a'+i)), v))
			}
			tbl := mustBuild(t, []string{"v"}, rows...)

			findings := ExcessiveSigns(tbl, decimal.RequireFromString("0.5"))
			if !tt.flagged {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, models.ExcessiveSign, findings[0].Kind)
			assert.Equal(t, "v", findings[0].Column)
			assert.Equal(t, tt.negRefs, findings[0].RowRefs)
			if tt.observed == "" {
				assert.Nil(t, findings[0].Actual)
			} else {
				require.NotNil(t, findings[0].Actual)
				assert.True(t, findings[0].Actual.Equal(decimal.RequireFromString(tt.observed)))
			}
		})
	}
}

func TestSparseColumns(t *testing.T) {
	tbl := mustBuild(t, []string{"dense", "sparse", "half"},
		row("a", "1", "", "1"),
		row("b", "2", "", ""),
		row("c", "3", "7", "1"),
		row("d", "4", "", ""),
	)

	findings := SparseColumns(tbl, decimal.RequireFromString("0.5"))
	require.Len(t, findings, 1)
	assert.Equal(t, models.SparseColumn, findings[0].Kind)
	assert.Equal(t, "sparse", findings[0].Column)
	assert.True(t, findings[0].Actual.Equal(decimal.RequireFromString("0.75")))
}

func TestSparseColumns_EmptyTable(t *testing.T) {
	tbl := mustBuild(t, []string{"v"})
	assert.Empty(t, SparseColumns(tbl, decimal.Zero))
}

func TestDetect(t *testing.T) {
	tbl := mustBuild(t, []string{"v", "w"},
		row("매출", "(1)", ""),
		row("매출", "(2)", ""),
		row("원가", "3", "1"),
	)

	findings := Detect(tbl, DefaultThresholds())
	kinds := make([]models.FindingKind, 0, len(findings))
	for _, f := range findings {
		kinds = append(kinds, f.Kind)
	}
	assert.Equal(t, []models.FindingKind{models.DuplicateLabel, models.ExcessiveSign, models.SparseColumn}, kinds)
}
