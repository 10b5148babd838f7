package schedule

import (
	"strings"
	"time"
)

// WireDateFormat is the one format the engine writes and displays:
// day first, four-digit year.
const WireDateFormat = "02/01/2006"

// Accepted read formats, tried in order. First match wins.
var dateLayouts = []string{
	WireDateFormat,
	"2006-01-02",
	"January 2, 2006",
}

// ParseDate parses a free-form date cell. The bool is false for empty
// or unrecognized text; a bad date is a data-quality condition for the
// caller to log and skip, never an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t in the wire format.
func FormatDate(t time.Time) string {
	return t.Format(WireDateFormat)
}

// DaysBetween returns the calendar-day distance from a to b, ignoring
// the time of day and location of both ends.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad) / (24 * time.Hour))
}
