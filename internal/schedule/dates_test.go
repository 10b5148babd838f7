package schedule

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want string // wire format; empty means no parse
	}{
		{name: "day first", raw: "14/02/2026", want: "14/02/2026"},
		{name: "iso", raw: "2026-02-14", want: "14/02/2026"},
		{name: "long month", raw: "February 14, 2026", want: "14/02/2026"},
		{name: "padded", raw: "  14/02/2026  ", want: "14/02/2026"},
		{name: "day first wins ambiguity", raw: "01/02/2026", want: "01/02/2026"},
		{name: "empty", raw: "", want: ""},
		{name: "blank", raw: "   ", want: ""},
		{name: "gibberish", raw: "porridge", want: ""},
		{name: "impossible day", raw: "31/02/2026", want: ""},
		{name: "two digit year", raw: "14/02/26", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			if tt.want == "" {
				if ok {
					t.Fatalf("ParseDate(%q) = %v, want no parse", tt.raw, got)
				}
				return
			}
			if !ok {
				t.Fatalf("ParseDate(%q) failed", tt.raw)
			}
			if s := FormatDate(got); s != tt.want {
				t.Fatalf("ParseDate(%q) = %s, want %s", tt.raw, s, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()
	date := func(y int, m time.Month, d, hour int) time.Time {
		return time.Date(y, m, d, hour, 30, 0, 0, time.UTC)
	}
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{name: "same day", a: date(2026, 2, 14, 9), b: date(2026, 2, 14, 23), want: 0},
		{name: "next day", a: date(2026, 2, 14, 23), b: date(2026, 2, 15, 1), want: 1},
		{name: "past", a: date(2026, 2, 14, 0), b: date(2026, 2, 9, 12), want: -5},
		{name: "across month", a: date(2024, 1, 1, 0), b: date(2024, 2, 5, 0), want: 35},
		{name: "leap february", a: date(2024, 2, 28, 0), b: date(2024, 3, 1, 0), want: 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Fatalf("DaysBetween = %d, want %d", got, tt.want)
			}
		})
	}
}
