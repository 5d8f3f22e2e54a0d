package output

import (
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{"kind", "table", "other_table", "rows", "column", "expected", "actual", "detail"}

// ProcessingErrorKind is the kind column of a table that failed processing.
const ProcessingErrorKind = "ProcessingError"

// WriteCSV writes one record per finding, in report order, followed by one
// ProcessingErrorKind record per table that could not be verified. The
// detail of an error record is "stage: message".
func WriteCSV(w io.Writer, report *models.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, f := range report.Findings {
		record := []string{
			f.Kind.String(),
			f.Table,
			f.OtherTable,
			joinInts(f.RowRefs),
			f.Column,
			decimalString(f.Expected),
			decimalString(f.Actual),
			f.Detail,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	for _, e := range report.Errors {
		record := []string{ProcessingErrorKind, e.Table, "", "", "", "", "", e.Stage + ": " + e.Message}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decimalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
