package parser

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// PrintAreas returns the print areas defined in a workbook, keyed by sheet
// name. A sheet-scoped definition wins over a workbook-scoped one naming the
// same sheet.
func PrintAreas(f *excelize.File) map[string][]models.Region {
	result := make(map[string][]models.Region)
	scoped := make(map[string]bool)

	for _, dn := range f.GetDefinedName() {
		if !strings.EqualFold(dn.Name, "_xlnm.Print_Area") {
			continue
		}
		sheetName, areas := parsePrintAreaReference(dn.RefersTo)
		if sheetName == "" || len(areas) == 0 {
			continue
		}
		sheetScoped := dn.Scope != "" && !strings.EqualFold(dn.Scope, "Workbook")
		switch {
		case sheetScoped && !scoped[sheetName]:
			result[sheetName] = areas
			scoped[sheetName] = true
		case sheetScoped == scoped[sheetName]:
			result[sheetName] = append(result[sheetName], areas...)
		}
	}

	return result
}

// parsePrintAreaReference parses a print area reference string.
// Format: 'SheetName'!$A$1:$D$10 or SheetName!$A$1:$D$10, comma separated.
func parsePrintAreaReference(ref string) (string, []models.Region) {
	var areas []models.Region
	var sheetName string

	for _, part := range strings.Split(strings.TrimPrefix(ref, "="), ",") {
		part = strings.TrimSpace(part)
		idx := strings.LastIndex(part, "!")
		if idx < 0 {
			continue
		}

		sheet := strings.Trim(part[:idx], "'")
		sheet = strings.ReplaceAll(sheet, "''", "'")
		if sheetName == "" {
			sheetName = sheet
		}
		if area, ok := parseRange(part[idx+1:]); ok {
			areas = append(areas, area)
		}
	}

	return sheetName, areas
}

// parseRange parses a range like $A$1:$D$10. A single cell is a one-cell
// range.
func parseRange(rangeStr string) (models.Region, bool) {
	rangeStr = strings.ReplaceAll(rangeStr, "$", "")
	parts := strings.Split(rangeStr, ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return models.Region{}, false
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return models.Region{}, false
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return models.Region{}, false
	}
	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}
	if endCol < startCol {
		startCol, endCol = endCol, startCol
	}

	return models.Region{R1: startRow, C1: startCol, R2: endRow, C2: endCol}, true
}

// rangeName renders r in A1:D10 notation.
func rangeName(r models.Region) string {
	start, err := excelize.CoordinatesToCellName(r.C1, r.R1)
	if err != nil {
		return r.String()
	}
	end, err := excelize.CoordinatesToCellName(r.C2, r.R2)
	if err != nil {
		return r.String()
	}
	return start + ":" + end
}
