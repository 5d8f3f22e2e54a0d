package models

// TableSummary holds per-table counts for the report.
type TableSummary struct {
	// Name is the table name.
	Name string `json:"name"`
	// Rows is the number of data rows.
	Rows int `json:"rows"`
	// Columns is the number of value columns.
	Columns int `json:"columns"`
	// NumericColumns is the number of columns holding a numeric cell.
	NumericColumns int `json:"numeric_columns"`
	// TotalRowsDetected is the number of rows flagged as totals.
	TotalRowsDetected int `json:"total_rows_detected"`
}

// ProcessingError is a table-scoped failure note. The table it names was
// excluded from verification; other tables were not affected.
type ProcessingError struct {
	// Table is the name of the failed table.
	Table string `json:"table"`
	// Stage is the pipeline stage that failed ("build", "levels", ...).
	Stage string `json:"stage"`
	// Message describes the failure.
	Message string `json:"message"`
}

// TraceEntry is one structured diagnostic record of a run.
type TraceEntry struct {
	// Level is the slog level name.
	Level string `json:"level"`
	// Table is the table the record belongs to ("" for run-level records).
	Table string `json:"table,omitempty"`
	// Message is the log message.
	Message string `json:"message"`
	// Attrs holds the record attributes, flattened with dotted group keys.
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Report is the result of one verification run.
type Report struct {
	// Findings is the ordered, deduplicated finding list.
	Findings []Finding `json:"findings"`
	// Tables summarizes every successfully built table, in input order.
	Tables []TableSummary `json:"tables"`
	// Errors lists table-scoped processing failures.
	Errors []ProcessingError `json:"errors,omitempty"`
	// Trace holds the per-run diagnostic records.
	Trace []TraceEntry `json:"trace,omitempty"`
}

// CountByKind tallies findings per kind.
func (r *Report) CountByKind() map[FindingKind]int {
	counts := make(map[FindingKind]int)
	for _, f := range r.Findings {
		counts[f.Kind]++
	}
	return counts
}
