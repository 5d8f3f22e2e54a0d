package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/normalize"
)

// ResultSheet is the name of the findings sheet in a report workbook.
const ResultSheet = "검증결과"

const maxSheetName = 31

var resultHeader = []any{"No", "유형", "테이블", "대상 테이블", "행", "열", "기대값", "실제값", "내용"}

// WriteWorkbook writes an xlsx workbook with one sheet per input table and a
// findings sheet. Rows referenced by a finding are highlighted.
func WriteWorkbook(w io.Writer, tables []models.RawTable, report *models.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return err
	}
	flagStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFF2CC"}},
	})
	if err != nil {
		return err
	}

	flagged := flaggedRows(report)
	names := newSheetNames()

	first := true
	for _, t := range tables {
		sheet := names.next(t.Name)
		if first {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := writeTableSheet(f, sheet, t, flagged[t.Name], headerStyle, flagStyle); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet, err)
		}
	}

	if first {
		if err := f.SetSheetName("Sheet1", ResultSheet); err != nil {
			return err
		}
	} else if _, err := f.NewSheet(ResultSheet); err != nil {
		return err
	}
	if err := writeResultSheet(f, report, headerStyle); err != nil {
		return fmt.Errorf("sheet %q: %w", ResultSheet, err)
	}

	_, err = f.WriteTo(w)
	return err
}

func writeTableSheet(f *excelize.File, sheet string, t models.RawTable, flagged map[int]bool, headerStyle, flagStyle int) error {
	width := len(t.ColumnLabels)
	for _, r := range t.Rows {
		width = max(width, len(r.Cells))
	}

	header := make([]any, width+1)
	header[0] = ""
	for i := 0; i < width; i++ {
		if i < len(t.ColumnLabels) && t.ColumnLabels[i] != "" {
			header[i+1] = t.ColumnLabels[i]
		} else {
			header[i+1] = "Col_" + strconv.Itoa(i+1)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := setRowStyle(f, sheet, 1, width+1, headerStyle); err != nil {
		return err
	}

	for i, r := range t.Rows {
		line := make([]any, width+1)
		line[0] = strings.Repeat(" ", r.Indent) + r.Label
		for col := 0; col < width; col++ {
			if col >= len(r.Cells) {
				line[col+1] = nil
				continue
			}
			if d, ok := normalize.Number(r.Cells[col]); ok {
				line[col+1] = d.InexactFloat64()
			} else {
				line[col+1] = r.Cells[col]
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return err
		}
		if flagged[i] {
			if err := setRowStyle(f, sheet, i+2, width+1, flagStyle); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(sheet, "A", "A", 32)
}

func writeResultSheet(f *excelize.File, report *models.Report, headerStyle int) error {
	if err := f.SetSheetRow(ResultSheet, "A1", &resultHeader); err != nil {
		return err
	}
	if err := setRowStyle(f, ResultSheet, 1, len(resultHeader), headerStyle); err != nil {
		return err
	}

	for i, fd := range report.Findings {
		line := []any{
			i + 1,
			fd.Kind.String(),
			fd.Table,
			fd.OtherTable,
			joinInts(fd.RowRefs),
			fd.Column,
			decimalCell(fd.Expected),
			decimalCell(fd.Actual),
			fd.Detail,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ResultSheet, cell, &line); err != nil {
			return err
		}
	}
	return f.SetColWidth(ResultSheet, "I", "I", 60)
}

func setRowStyle(f *excelize.File, sheet string, row, cols, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}

func decimalCell(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.InexactFloat64()
}

// flaggedRows maps table name to the row indexes referenced by findings.
// The second reference of a cross-reference finding belongs to the other
// table.
func flaggedRows(report *models.Report) map[string]map[int]bool {
	flagged := make(map[string]map[int]bool)
	mark := func(table string, row int) {
		if flagged[table] == nil {
			flagged[table] = make(map[int]bool)
		}
		flagged[table][row] = true
	}
	for _, fd := range report.Findings {
		if fd.Kind == models.CrossReferenceMismatch && len(fd.RowRefs) == 2 {
			mark(fd.Table, fd.RowRefs[0])
			mark(fd.OtherTable, fd.RowRefs[1])
			continue
		}
		for _, ref := range fd.RowRefs {
			mark(fd.Table, ref)
		}
	}
	return flagged
}

// sheetNames hands out unique, Excel-legal sheet names.
type sheetNames struct {
	used map[string]bool
}

func newSheetNames() *sheetNames {
	return &sheetNames{used: map[string]bool{strings.ToLower(ResultSheet): true}}
}

func (s *sheetNames) next(name string) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.Trim(name, "'"))
	if strings.TrimSpace(base) == "" {
		base = "Table"
	}
	base = truncateRunes(base, maxSheetName)

	candidate := base
	for n := 2; s.used[strings.ToLower(candidate)]; n++ {
		suffix := "_" + strconv.Itoa(n)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	s.used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
