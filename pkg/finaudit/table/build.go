// Package table builds immutable normalized tables from extracted grids.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/normalize"
)

// ColumnCountError reports a row wider than the table's declared columns.
type ColumnCountError struct {
	Table    string
	Row      int
	Cells    int
	Expected int
}

func (e *ColumnCountError) Error() string {
	return fmt.Sprintf("table %q row %d has %d value cells, expected at most %d",
		e.Table, e.Row, e.Cells, e.Expected)
}

// Build normalizes every cell of raw and returns the resulting table.
//
// The value column count is len(raw.ColumnLabels) when labels are given,
// otherwise the widest row; unnamed columns are labelled Col_N. Short rows
// are padded with empty cells. A row wider than the declared labels is an
// error.
func Build(raw models.RawTable) (models.Table, error) {
	width := len(raw.ColumnLabels)
	declared := width > 0
	for i, r := range raw.Rows {
		if len(r.Cells) <= width {
			continue
		}
		if declared {
			return models.Table{}, &ColumnCountError{
				Table:    raw.Name,
				Row:      i,
				Cells:    len(r.Cells),
				Expected: width,
			}
		}
		width = len(r.Cells)
	}

	labels := make([]string, width)
	for i := range labels {
		if i < len(raw.ColumnLabels) {
			labels[i] = strings.TrimSpace(raw.ColumnLabels[i])
		}
		if labels[i] == "" {
			labels[i] = "Col_" + strconv.Itoa(i+1)
		}
	}

	rows := make([]models.Row, len(raw.Rows))
	for i, r := range raw.Rows {
		values := make([]models.Cell, width)
		for col := range values {
			if col < len(r.Cells) {
				values[col] = normalize.Cell(r.Cells[col])
			}
		}
		indent := r.Indent
		if indent < 0 {
			indent = 0
		}
		rows[i] = models.Row{
			Label:       strings.TrimSpace(r.Label),
			IndentWidth: normalize.IndentWidth(r.Label) + indent,
			Values:      values,
			SourceIndex: i,
		}
	}

	return models.Table{
		Name:         raw.Name,
		Rows:         rows,
		ColumnLabels: labels,
	}, nil
}
