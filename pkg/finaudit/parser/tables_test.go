package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

func TestDataBounds(t *testing.T) {
	tests := []struct {
		name   string
		rows   [][]string
		want   models.Region
		wantOK bool
	}{
		{"empty", nil, models.Region{}, false},
		{"blank cells only", [][]string{{"", " "}, {""}}, models.Region{}, false},
		{"offset block", [][]string{
			{},
			{"", "", ""},
			{"", "a", "b"},
			{"", "c", "", "d"},
		}, models.Region{R1: 3, C1: 2, R2: 4, C2: 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DataBounds(tt.rows)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDense(t *testing.T) {
	rows := [][]string{
		{"a", "", "", ""},
		{"", "", "", ""},
		{"", "", "", "b"},
	}
	region := models.Region{R1: 1, C1: 1, R2: 3, C2: 4}

	assert.False(t, Dense(rows, region, DefaultTableParams()), "two cells are below the minimum")

	rows[1][1] = "c"
	assert.True(t, Dense(rows, region, DefaultTableParams()))
	assert.False(t, Dense(rows, region, TableDetectionParams{DensityMin: 0.5, MinNonemptyCells: 1}))
}

func TestSlice(t *testing.T) {
	rows := [][]string{
		{"a", "b", "c"},
		{"d"},
	}
	got := Slice(rows, models.Region{R1: 1, C1: 2, R2: 3, C2: 3})
	assert.Equal(t, [][]string{
		{"b", "c"},
		{"", ""},
		{"", ""},
	}, got)
}

func TestToRawTable(t *testing.T) {
	g := Grid{
		Name: "BS",
		Cells: [][]string{
			{"과목", "당기", "전기"},
			{"  현금", "100", "90"},
			{"", "", ""},
			{"예금", "50"},
			{"합계", "150", "90"},
		},
		LabelIndent: []int{0, 2, 0, 4, 0},
	}

	raw, ok := ToRawTable(g, 1)
	require.True(t, ok)
	assert.Equal(t, "BS", raw.Name)
	assert.Equal(t, []string{"당기", "전기"}, raw.ColumnLabels)
	require.Len(t, raw.Rows, 3, "the blank row is dropped")

	assert.Equal(t, models.RawRow{Label: "  현금", Indent: 2, Cells: []string{"100", "90"}}, raw.Rows[0])
	assert.Equal(t, models.RawRow{Label: "예금", Indent: 4, Cells: []string{"50", ""}}, raw.Rows[1])
	assert.Equal(t, "합계", raw.Rows[2].Label)
}

func TestToRawTable_Headers(t *testing.T) {
	g := Grid{Cells: [][]string{
		{"", "제10기", "제10기", "제9기"},
		{"과목", "금액", "", "금액"},
		{"매출", "1", "2", "3"},
	}}

	raw, ok := ToRawTable(g, 2)
	require.True(t, ok)
	assert.Equal(t, []string{"제10기 금액", "제10기", "제9기 금액"}, raw.ColumnLabels)
	require.Len(t, raw.Rows, 1)

	raw, ok = ToRawTable(g, 0)
	require.True(t, ok)
	assert.Nil(t, raw.ColumnLabels)
	assert.Len(t, raw.Rows, 3)
}

func TestToRawTable_TooSmall(t *testing.T) {
	tests := []struct {
		name  string
		cells [][]string
	}{
		{"single row", [][]string{{"a", "b", "c"}}},
		{"single column", [][]string{{"a"}, {"b"}, {"c"}}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ToRawTable(Grid{Cells: tt.cells}, 1)
			assert.False(t, ok)
		})
	}
}
