package schedule

import "strings"

// Field identifies one semantic column of a schedule sheet.
type Field int

const (
	FieldArea Field = iota
	FieldProduct
	FieldLine
	FieldAttribute
	FieldFrequency
	FieldLastInspected
	FieldSampleID
	FieldNextDue

	numFields
)

// Key returns the config key for the field, as used in
// schedule.columns.
func (f Field) Key() string {
	switch f {
	case FieldArea:
		return "area"
	case FieldProduct:
		return "product"
	case FieldLine:
		return "line"
	case FieldAttribute:
		return "attribute"
	case FieldFrequency:
		return "frequency"
	case FieldLastInspected:
		return "last_inspected"
	case FieldSampleID:
		return "sample_id"
	case FieldNextDue:
		return "next_due"
	default:
		return "unknown"
	}
}

// Columns maps each semantic field to its 0-based column index.
type Columns [numFields]int

// ResolveColumns maps a header row to column indices. A field whose
// configured label appears in the header (exact match on trimmed text)
// takes that position; every other field keeps its positional default,
// fields in declaration order starting at the first column. Resolution
// never fails: downstream code needs only a missing-value branch per
// row, not a missing-column branch.
func ResolveColumns(header []string, labels map[string]string) Columns {
	var cols Columns
	for f := Field(0); f < numFields; f++ {
		cols[f] = int(f)
		label := strings.TrimSpace(labels[f.Key()])
		if label == "" {
			continue
		}
		for i, h := range header {
			if strings.TrimSpace(h) == label {
				cols[f] = i
				break
			}
		}
	}
	return cols
}
