package finaudit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/parser"
)

// ExtractOptions configures table extraction from source files.
type ExtractOptions struct {
	// HeaderRows is the number of leading grid rows holding column labels.
	// If nil, defaults to 1.
	HeaderRows *int
	// IncludePrintAreas reads each workbook print area as its own table.
	// If nil, defaults to true.
	IncludePrintAreas *bool
	// Sheets restricts workbook extraction to the named sheets.
	Sheets []string
}

// DefaultExtractOptions returns default extraction options.
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{}
}

// HeaderRowCount returns the number of header rows.
func (o ExtractOptions) HeaderRowCount() int {
	if o.HeaderRows != nil && *o.HeaderRows >= 0 {
		return *o.HeaderRows
	}
	return 1
}

// ShouldIncludePrintAreas returns whether print areas split sheets.
func (o ExtractOptions) ShouldIncludePrintAreas() bool {
	if o.IncludePrintAreas != nil {
		return *o.IncludePrintAreas
	}
	return true
}

// ExtractFile reads the statement tables of a workbook (.xlsx, .xlsm) or
// HTML document (.html, .htm). Grids too small to hold a statement are
// skipped.
func ExtractFile(path string, opts ExtractOptions) ([]models.RawTable, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, NewExtractionError(path, "file", err)
	}

	var grids []parser.Grid
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, NewExtractionError(path, "workbook", err)
		}
		defer f.Close()

		grids, err = parser.ReadWorkbook(f, parser.WorkbookOptions{
			PrintAreas: opts.ShouldIncludePrintAreas(),
			Sheets:     opts.Sheets,
			Params:     parser.DefaultTableParams(),
		})
		if err != nil {
			return nil, NewExtractionError(path, "sheet", err)
		}
	case ".html", ".htm":
		file, err := os.Open(path)
		if err != nil {
			return nil, NewExtractionError(path, "html", err)
		}
		defer file.Close()

		grids, err = parser.ReadHTML(file)
		if err != nil {
			return nil, NewExtractionError(path, "html", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	tables := make([]models.RawTable, 0, len(grids))
	for _, g := range grids {
		if raw, ok := parser.ToRawTable(g, opts.HeaderRowCount()); ok {
			tables = append(tables, raw)
		}
	}
	return tables, nil
}
