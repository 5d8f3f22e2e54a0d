package models

// LevelAssignment is the inferred hierarchy of one table, keyed by row
// source index. It is derived data and never stored on Row.
type LevelAssignment struct {
	// Depth maps source index to hierarchy depth (0 = outermost).
	Depth map[int]int `json:"depth"`
	// IsTotal maps source index to whether the row is a total row.
	IsTotal map[int]bool `json:"is_total"`
	// UnitWidth is the indent width of one depth level.
	UnitWidth int `json:"unit_width"`
}

// TotalRows returns the number of rows flagged as totals.
func (a LevelAssignment) TotalRows() int {
	n := 0
	for _, total := range a.IsTotal {
		if total {
			n++
		}
	}
	return n
}
