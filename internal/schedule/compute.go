package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status classifies one schedule row after computation.
type Status int

const (
	// StatusScheduled marks a row whose next inspection lies in the
	// future.
	StatusScheduled Status = iota
	// StatusDue marks a row whose next inspection date is today or
	// earlier.
	StatusDue
	// StatusSkipped marks a row excluded from computation for a
	// data-quality reason; the row is left untouched.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "Scheduled"
	case StatusDue:
		return "Due"
	case StatusSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// Item is one tracked row of a schedule sheet.
//
// ParseRow fills the identity fields from the raw cells; Compute adds
// the classification. Text fields hold the cell content as entered
// (trimmed), so what operators typed is what notifications show.
type Item struct {
	Row   int    // 1-based sheet row
	Sheet string // source sheet name
	Label string // check-type label for this sheet

	Area      string
	Product   string
	Line      string
	Attribute string
	Frequency string // raw day count as entered
	Last      string // last-inspection date as entered
	SampleID  string

	NextDue    string // wire-formatted, empty for skipped rows
	DaysUntil  int
	Status     Status
	SkipReason string // set only when Status is StatusSkipped
}

// ParseRow extracts the semantic fields of one data row. Short rows
// read as empty values past their end.
func ParseRow(cells []string, cols Columns, rowNum int) Item {
	return Item{
		Row:       rowNum,
		Area:      cellAt(cells, cols[FieldArea]),
		Product:   cellAt(cells, cols[FieldProduct]),
		Line:      cellAt(cells, cols[FieldLine]),
		Attribute: cellAt(cells, cols[FieldAttribute]),
		Frequency: cellAt(cells, cols[FieldFrequency]),
		Last:      cellAt(cells, cols[FieldLastInspected]),
		SampleID:  cellAt(cells, cols[FieldSampleID]),
	}
}

// Compute classifies a parsed row against today.
//
// Rows missing area, product, last-inspection date or frequency are
// Skipped, as are rows whose frequency is not a strictly positive
// integer or whose date parses with none of the accepted formats.
// Computed rows always carry the formatted next-due date; the schedule
// cell is refreshed every run whether the item is due or not. A next
// date of today counts as due.
func Compute(it Item, today time.Time) Item {
	var missing []string
	if it.Area == "" {
		missing = append(missing, "area")
	}
	if it.Product == "" {
		missing = append(missing, "product")
	}
	if it.Last == "" {
		missing = append(missing, "last inspection date")
	}
	if it.Frequency == "" {
		missing = append(missing, "frequency")
	}
	if len(missing) > 0 {
		it.Status = StatusSkipped
		it.SkipReason = "missing " + strings.Join(missing, ", ")
		return it
	}

	freq, err := strconv.Atoi(it.Frequency)
	if err != nil || freq <= 0 {
		it.Status = StatusSkipped
		it.SkipReason = fmt.Sprintf("frequency %q is not a positive day count", it.Frequency)
		return it
	}
	last, ok := ParseDate(it.Last)
	if !ok {
		it.Status = StatusSkipped
		it.SkipReason = fmt.Sprintf("unrecognized date %q", it.Last)
		return it
	}

	next := last.AddDate(0, 0, freq)
	it.NextDue = FormatDate(next)
	it.DaysUntil = DaysBetween(today, next)
	if it.DaysUntil <= 0 {
		it.Status = StatusDue
	} else {
		it.Status = StatusScheduled
	}
	return it
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}
