package models

// RawRow is one extracted row before normalization.
type RawRow struct {
	// Label is the untrimmed text of the label column.
	Label string `json:"label"`
	// Indent is a markup-equivalent indent in whitespace units (cell
	// alignment indent, CSS padding). It is added to the leading whitespace
	// of Label when the row's indent width is measured.
	Indent int `json:"indent,omitempty"`
	// Cells holds the raw text of the value columns, in column order.
	Cells []string `json:"cells"`
}

// RawTable is an extracted grid whose cells have not been normalized yet.
type RawTable struct {
	// Name identifies the table in findings (sheet name, Table_N, ...).
	Name string `json:"name"`
	// ColumnLabels names the value columns (the label column excluded).
	ColumnLabels []string `json:"column_labels,omitempty"`
	// Rows holds the data rows in source order.
	Rows []RawRow `json:"rows"`
}

// Row is a normalized table row. Rows are immutable once built.
type Row struct {
	// Label is the trimmed label text.
	Label string `json:"label"`
	// IndentWidth is the count of leading whitespace units before trimming.
	IndentWidth int `json:"indent_width"`
	// Values holds one normalized cell per value column.
	Values []Cell `json:"values"`
	// SourceIndex is the row's position in the originating table.
	SourceIndex int `json:"source_index"`
}

// Value returns the cell at value column col, or an empty cell when the row
// has no such column.
func (r Row) Value(col int) Cell {
	if col < 0 || col >= len(r.Values) {
		return EmptyCell()
	}
	return r.Values[col]
}

// Table is a normalized table. It is never mutated after construction.
type Table struct {
	// Name identifies the table in findings.
	Name string `json:"name"`
	// Rows holds the rows in source order.
	Rows []Row `json:"rows"`
	// ColumnLabels names the value columns.
	ColumnLabels []string `json:"column_labels"`
}

// ColumnCount returns the number of value columns.
func (t *Table) ColumnCount() int {
	return len(t.ColumnLabels)
}

// ColumnLabel returns the label of value column col, or "" if out of range.
func (t *Table) ColumnLabel(col int) string {
	if col < 0 || col >= len(t.ColumnLabels) {
		return ""
	}
	return t.ColumnLabels[col]
}

// NumericColumns returns the indexes of columns holding at least one
// numeric cell, in ascending order.
func (t *Table) NumericColumns() []int {
	var cols []int
	for col := range t.ColumnLabels {
		for _, row := range t.Rows {
			if row.Value(col).IsNumeric() {
				cols = append(cols, col)
				break
			}
		}
	}
	return cols
}
