package schedule

import (
	"strings"
	"testing"
	"time"
)

func testItem() Item {
	return Item{
		Row:       2,
		Area:      "HCM",
		Product:   "Juice",
		Frequency: "30",
		Last:      "01/01/2024",
	}
}

func TestComputeDue(t *testing.T) {
	t.Parallel()
	today := time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC)

	it := Compute(testItem(), today)
	if it.Status != StatusDue {
		t.Fatalf("status = %v, want Due", it.Status)
	}
	if it.NextDue != "31/01/2024" {
		t.Errorf("next due = %q, want 31/01/2024", it.NextDue)
	}
	if it.DaysUntil != -5 {
		t.Errorf("days until = %d, want -5", it.DaysUntil)
	}
}

func TestComputeDueOnTheDay(t *testing.T) {
	t.Parallel()
	today := time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)

	it := Compute(testItem(), today)
	if it.Status != StatusDue {
		t.Fatalf("status = %v, want Due on days_until == 0", it.Status)
	}
	if it.DaysUntil != 0 {
		t.Errorf("days until = %d, want 0", it.DaysUntil)
	}
}

func TestComputeScheduled(t *testing.T) {
	t.Parallel()
	today := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)

	it := Compute(testItem(), today)
	if it.Status != StatusScheduled {
		t.Fatalf("status = %v, want Scheduled", it.Status)
	}
	if it.DaysUntil != 1 {
		t.Errorf("days until = %d, want 1", it.DaysUntil)
	}
	if it.NextDue != "31/01/2024" {
		t.Errorf("next due = %q; the cell is refreshed for not-due rows too", it.NextDue)
	}
}

func TestComputeSkips(t *testing.T) {
	t.Parallel()
	today := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*Item)
		reason string
	}{
		{name: "frequency not a number", mutate: func(it *Item) { it.Frequency = "abc" }, reason: "frequency"},
		{name: "frequency zero", mutate: func(it *Item) { it.Frequency = "0" }, reason: "frequency"},
		{name: "frequency negative", mutate: func(it *Item) { it.Frequency = "-7" }, reason: "frequency"},
		{name: "missing area", mutate: func(it *Item) { it.Area = "" }, reason: "missing area"},
		{name: "missing product", mutate: func(it *Item) { it.Product = "" }, reason: "missing product"},
		{name: "missing date", mutate: func(it *Item) { it.Last = "" }, reason: "missing last inspection date"},
		{name: "missing frequency", mutate: func(it *Item) { it.Frequency = "" }, reason: "missing frequency"},
		{name: "bad date", mutate: func(it *Item) { it.Last = "soon" }, reason: "unrecognized date"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			it := testItem()
			tt.mutate(&it)
			got := Compute(it, today)
			if got.Status != StatusSkipped {
				t.Fatalf("status = %v, want Skipped", got.Status)
			}
			if !strings.Contains(got.SkipReason, tt.reason) {
				t.Errorf("reason = %q, want it to mention %q", got.SkipReason, tt.reason)
			}
			if got.NextDue != "" {
				t.Errorf("skipped row carries next due %q", got.NextDue)
			}
		})
	}
}

func TestComputeCollectsAllMissingFields(t *testing.T) {
	t.Parallel()
	it := Compute(Item{Row: 3}, time.Now())
	if it.Status != StatusSkipped {
		t.Fatalf("status = %v, want Skipped", it.Status)
	}
	for _, field := range []string{"area", "product", "last inspection date", "frequency"} {
		if !strings.Contains(it.SkipReason, field) {
			t.Errorf("reason %q does not mention %s", it.SkipReason, field)
		}
	}
}

func TestParseRow(t *testing.T) {
	t.Parallel()
	cols := ResolveColumns([]string{"Area", "Product"}, nil)

	it := ParseRow([]string{" North ", "Widget", "L1", "pH", "14", "01/01/2024", "S-100", "old"}, cols, 7)
	if it.Row != 7 || it.Area != "North" || it.SampleID != "S-100" {
		t.Fatalf("parsed = %+v", it)
	}

	// Short rows read as empty values past their end.
	short := ParseRow([]string{"North", "Widget"}, cols, 8)
	if short.Frequency != "" || short.SampleID != "" {
		t.Fatalf("short row = %+v", short)
	}
}
