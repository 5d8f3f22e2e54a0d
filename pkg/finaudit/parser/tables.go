// Package parser reads financial-statement grids out of workbooks and HTML
// documents and turns them into raw tables.
package parser

import (
	"strings"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// TableDetectionParams holds parameters for table detection.
type TableDetectionParams struct {
	DensityMin       float64
	MinNonemptyCells int
}

// DefaultTableParams returns default table detection parameters.
func DefaultTableParams() TableDetectionParams {
	return TableDetectionParams{
		DensityMin:       0.04,
		MinNonemptyCells: 3,
	}
}

// Grid is a rectangular block of cell text read from one source table.
type Grid struct {
	// Name identifies the grid (sheet name, Table_N, ...).
	Name string
	// Cells holds the cell text row by row. Rows may be ragged.
	Cells [][]string
	// LabelIndent holds the markup indent of each row's first cell, in
	// whitespace units. It is either nil or parallel to Cells.
	LabelIndent []int
}

// DataBounds returns the bounding box of non-empty cells in rows as a
// 1-based region. ok is false when every cell is blank.
func DataBounds(rows [][]string) (r models.Region, ok bool) {
	minRow, maxRow, minCol, maxCol := findDataBounds(rows)
	if minRow < 0 {
		return models.Region{}, false
	}
	return models.Region{R1: minRow + 1, C1: minCol + 1, R2: maxRow + 1, C2: maxCol + 1}, true
}

// Dense reports whether region r of rows holds enough non-empty cells to
// be treated as a table.
func Dense(rows [][]string, r models.Region, params TableDetectionParams) bool {
	totalCells := r.Rows() * r.Cols()
	if totalCells <= 0 {
		return false
	}
	nonEmpty := countNonEmptyCells(rows, r.R1-1, r.R2-1, r.C1-1, r.C2-1)
	if nonEmpty < params.MinNonemptyCells {
		return false
	}
	return float64(nonEmpty)/float64(totalCells) >= params.DensityMin
}

// Slice copies region r out of rows. Missing cells become "".
func Slice(rows [][]string, r models.Region) [][]string {
	out := make([][]string, 0, r.Rows())
	for rowIdx := r.R1 - 1; rowIdx <= r.R2-1; rowIdx++ {
		line := make([]string, r.Cols())
		if rowIdx >= 0 && rowIdx < len(rows) {
			row := rows[rowIdx]
			for colIdx := r.C1 - 1; colIdx <= r.C2-1; colIdx++ {
				if colIdx >= 0 && colIdx < len(row) {
					line[colIdx-(r.C1-1)] = row[colIdx]
				}
			}
		}
		out = append(out, line)
	}
	return out
}

// ToRawTable converts g into a raw table. The first headerRows rows become
// the column labels; the first column holds the row labels. Blank rows are
// dropped. ok is false for grids with at most one row or one column, which
// cannot carry a statement.
func ToRawTable(g Grid, headerRows int) (models.RawTable, bool) {
	width := 0
	for _, row := range g.Cells {
		if len(row) > width {
			width = len(row)
		}
	}
	if len(g.Cells) <= 1 || width <= 1 {
		return models.RawTable{}, false
	}
	if headerRows < 0 {
		headerRows = 0
	}
	if headerRows > len(g.Cells) {
		headerRows = len(g.Cells)
	}

	raw := models.RawTable{Name: g.Name}
	if headerRows > 0 {
		raw.ColumnLabels = headerLabels(g.Cells[:headerRows], width)
	}

	for i := headerRows; i < len(g.Cells); i++ {
		row := g.Cells[i]
		if isBlankRow(row) {
			continue
		}
		rr := models.RawRow{Cells: make([]string, width-1)}
		if len(row) > 0 {
			rr.Label = row[0]
		}
		for col := 1; col < len(row); col++ {
			rr.Cells[col-1] = row[col]
		}
		if i < len(g.LabelIndent) {
			rr.Indent = g.LabelIndent[i]
		}
		raw.Rows = append(raw.Rows, rr)
	}
	return raw, true
}

// headerLabels joins stacked header rows column-wise, skipping blanks and
// repeats of the cell above.
func headerLabels(header [][]string, width int) []string {
	labels := make([]string, width-1)
	for col := 1; col < width; col++ {
		var parts []string
		for _, row := range header {
			if col >= len(row) {
				continue
			}
			text := strings.Join(strings.Fields(row[col]), " ")
			if text == "" || (len(parts) > 0 && parts[len(parts)-1] == text) {
				continue
			}
			parts = append(parts, text)
		}
		labels[col-1] = strings.Join(parts, " ")
	}
	return labels
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// findDataBounds finds the bounding box of non-empty cells.
func findDataBounds(rows [][]string) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			if minRow < 0 || rowIdx < minRow {
				minRow = rowIdx
			}
			if maxRow < 0 || rowIdx > maxRow {
				maxRow = rowIdx
			}
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if maxCol < 0 || colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}

	return
}

// countNonEmptyCells counts non-empty cells within bounds.
func countNonEmptyCells(rows [][]string, minRow, maxRow, minCol, maxCol int) int {
	count := 0
	for rowIdx := minRow; rowIdx <= maxRow && rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		for colIdx := minCol; colIdx <= maxCol && colIdx < len(row); colIdx++ {
			if strings.TrimSpace(row[colIdx]) != "" {
				count++
			}
		}
	}
	return count
}
