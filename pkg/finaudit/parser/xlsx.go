package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// excelIndentUnits is the whitespace width of one cell alignment indent
// level.
const excelIndentUnits = 2

// WorkbookOptions configures workbook reading.
type WorkbookOptions struct {
	// PrintAreas reads each defined print area as its own grid instead of
	// the whole sheet.
	PrintAreas bool
	// Sheets restricts reading to the named sheets. Empty means all.
	Sheets []string
	// Params gates which cropped regions count as tables.
	Params TableDetectionParams
}

// ReadWorkbook reads one grid per sheet, or one per print area when
// requested and defined. Sheets without a dense enough region are skipped.
func ReadWorkbook(f *excelize.File, opts WorkbookOptions) ([]Grid, error) {
	var areas map[string][]models.Region
	if opts.PrintAreas {
		areas = PrintAreas(f)
	}
	wanted := make(map[string]bool, len(opts.Sheets))
	for _, s := range opts.Sheets {
		wanted[s] = true
	}

	var grids []Grid
	for _, sheetName := range f.GetSheetList() {
		if len(wanted) > 0 && !wanted[sheetName] {
			continue
		}
		sheetGrids, err := ReadSheet(f, sheetName, areas[sheetName], opts.Params)
		if err != nil {
			return nil, err
		}
		grids = append(grids, sheetGrids...)
	}
	return grids, nil
}

// ReadSheet reads the grids of one sheet. With no regions the whole sheet is
// one candidate; otherwise each region is. Every candidate is cropped to its
// non-empty cells before the density check.
func ReadSheet(f *excelize.File, sheetName string, regions []models.Region, params TableDetectionParams) ([]Grid, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	whole := len(regions) == 0
	if whole {
		bounds, ok := DataBounds(rows)
		if !ok {
			return nil, nil
		}
		regions = []models.Region{bounds}
	}

	indents := &styleIndents{f: f, sheet: sheetName, cache: make(map[int]int)}
	var grids []Grid
	for _, region := range regions {
		cropped, ok := cropRegion(rows, region)
		if !ok || !Dense(rows, cropped, params) {
			continue
		}

		name := sheetName
		if len(regions) > 1 {
			name = sheetName + "!" + rangeName(region)
		}
		cells := Slice(rows, cropped)
		labelIndent := make([]int, len(cells))
		for i := range cells {
			labelIndent[i] = indents.at(cropped.C1, cropped.R1+i)
		}
		grids = append(grids, Grid{Name: name, Cells: cells, LabelIndent: labelIndent})
	}
	return grids, nil
}

// cropRegion shrinks region to the non-empty cells it contains.
func cropRegion(rows [][]string, region models.Region) (models.Region, bool) {
	inner, ok := DataBounds(Slice(rows, region))
	if !ok {
		return models.Region{}, false
	}
	return models.Region{
		R1: region.R1 + inner.R1 - 1,
		C1: region.C1 + inner.C1 - 1,
		R2: region.R1 + inner.R2 - 1,
		C2: region.C1 + inner.C2 - 1,
	}, true
}

// styleIndents resolves cell alignment indents, caching per style.
type styleIndents struct {
	f     *excelize.File
	sheet string
	cache map[int]int
}

// at returns the indent of the 1-based cell (col, row) in whitespace units.
// Unreadable styles count as no indent.
func (s *styleIndents) at(col, row int) int {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return 0
	}
	styleID, err := s.f.GetCellStyle(s.sheet, cell)
	if err != nil || styleID == 0 {
		return 0
	}
	if units, ok := s.cache[styleID]; ok {
		return units
	}

	units := 0
	style, err := s.f.GetStyle(styleID)
	if err == nil && style != nil && style.Alignment != nil && style.Alignment.Indent > 0 {
		units = style.Alignment.Indent * excelIndentUnits
	}
	s.cache[styleID] = units
	return units
}
