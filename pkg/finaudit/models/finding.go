package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FindingKind enumerates the discrepancy and anomaly types. The declared
// order is the order findings of one table are reported in.
type FindingKind int

const (
	SumMismatch FindingKind = iota
	DuplicateLabel
	CrossReferenceMismatch
	ExcessiveSign
	SparseColumn
)

var findingKindNames = [...]string{
	SumMismatch:            "SumMismatch",
	DuplicateLabel:         "DuplicateLabel",
	CrossReferenceMismatch: "CrossReferenceMismatch",
	ExcessiveSign:          "ExcessiveSign",
	SparseColumn:           "SparseColumn",
}

func (k FindingKind) String() string {
	if k < 0 || int(k) >= len(findingKindNames) {
		return fmt.Sprintf("FindingKind(%d)", int(k))
	}
	return findingKindNames[k]
}

// ParseFindingKind is the inverse of FindingKind.String.
func ParseFindingKind(s string) (FindingKind, error) {
	for i, name := range findingKindNames {
		if name == s {
			return FindingKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown finding kind %q", s)
}

// MarshalJSON encodes the kind by name.
func (k FindingKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *FindingKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFindingKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Finding is a single reported discrepancy or anomaly.
type Finding struct {
	// Kind is the finding type.
	Kind FindingKind `json:"kind"`
	// Table is the name of the table the finding belongs to.
	Table string `json:"table"`
	// OtherTable is the second table of a CrossReferenceMismatch.
	OtherTable string `json:"other_table,omitempty"`
	// RowRefs lists the source indexes of the rows involved.
	RowRefs []int `json:"row_refs"`
	// Column is the label of the column involved, if any.
	Column string `json:"column,omitempty"`
	// Expected is the computed or reference value, if any.
	Expected *decimal.Decimal `json:"expected,omitempty"`
	// Actual is the reported or observed value, if any.
	Actual *decimal.Decimal `json:"actual,omitempty"`
	// Detail is a human-readable description.
	Detail string `json:"detail"`
}

// DecimalPtr returns a pointer to a copy of d, for Finding.Expected and
// Finding.Actual.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// FirstRowRef returns the first row reference, or -1 if there is none.
func (f Finding) FirstRowRef() int {
	if len(f.RowRefs) == 0 {
		return -1
	}
	return f.RowRefs[0]
}
