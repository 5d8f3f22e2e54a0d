package finaudit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

func writeWorkbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "statements.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExtractFile_Workbook(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"IS": {
			{"과목", "당기"},
			{"  매출", "1,000"},
			{"  매출원가", "(600)"},
			{"합계", "400"},
		},
	})

	tables, err := ExtractFile(path, DefaultExtractOptions())
	require.NoError(t, err)
	require.Len(t, tables, 1)

	raw := tables[0]
	assert.Equal(t, "IS", raw.Name)
	assert.Equal(t, []string{"당기"}, raw.ColumnLabels)
	require.Len(t, raw.Rows, 3)
	assert.Equal(t, models.RawRow{Label: "  매출", Cells: []string{"1,000"}}, raw.Rows[0])

	report, err := Verify(context.Background(), tables, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
}

func TestExtractFile_HeaderRows(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"BS": {
			{"현금", 10},
			{"예금", 20},
		},
	})

	zero := 0
	tables, err := ExtractFile(path, ExtractOptions{HeaderRows: &zero})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Nil(t, tables[0].ColumnLabels)
	assert.Len(t, tables[0].Rows, 2)
}

func TestExtractFile_HTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	doc := `<html><body>
<table><tr><th>과목</th><th>당기</th></tr>
<tr><td>&nbsp;&nbsp;현금</td><td>100</td></tr>
<tr><td>&nbsp;&nbsp;예금</td><td>50</td></tr>
<tr><td>합계</td><td>160</td></tr></table>
<table><tr><td>only one row</td><td>1</td></tr></table>
</body></html>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tables, err := ExtractFile(path, DefaultExtractOptions())
	require.NoError(t, err)
	require.Len(t, tables, 1, "single-row grids are skipped")
	assert.Equal(t, "Table_1", tables[0].Name)

	report, err := Verify(context.Background(), tables, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, models.SumMismatch, report.Findings[0].Kind)
}

func TestExtractFile_Errors(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "missing.xlsx"), DefaultExtractOptions())
	assert.True(t, errors.Is(err, ErrFileNotFound))

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	_, err = ExtractFile(path, DefaultExtractOptions())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	broken := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(broken, []byte("not a zip"), 0o644))
	_, err = ExtractFile(broken, DefaultExtractOptions())
	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "workbook", extErr.Component)
}

func TestExtractOptions_Defaults(t *testing.T) {
	opts := DefaultExtractOptions()
	assert.Equal(t, 1, opts.HeaderRowCount())
	assert.True(t, opts.ShouldIncludePrintAreas())

	off := false
	two := 2
	opts = ExtractOptions{IncludePrintAreas: &off, HeaderRows: &two}
	assert.Equal(t, 2, opts.HeaderRowCount())
	assert.False(t, opts.ShouldIncludePrintAreas())
}
