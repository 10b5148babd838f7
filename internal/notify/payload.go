// Package notify assembles the due-items notification and delivers it
// through the configured channels. Assembly is pure; delivery is
// best-effort and never fails a run.
package notify

import (
	"time"

	"samplewatch/internal/schedule"
)

// AreaCount is one bar of the per-area breakdown.
type AreaCount struct {
	Area  string
	Count int
}

// Group collects the due items of one schedule sheet label.
type Group struct {
	Label string
	Items []schedule.Item
}

// Payload is everything a delivery channel needs to render the
// notification. A nil *Payload means "nothing due": a successful run
// with no notification to send.
type Payload struct {
	RunDate time.Time
	Total   int

	// Areas preserves first-seen order over the due items, which is the
	// sheet order operators know.
	Areas []AreaCount

	// Groups is populated only when the due items span more than one
	// sheet label.
	Groups []Group

	Items    []schedule.Item
	Upcoming []schedule.Item // due within the configured window, not yet due

	ChartPNG []byte // optional, filled by the chart renderer
}

// Assemble builds the notification payload. An empty due set yields
// nil, the explicit no-notification outcome. Item order is preserved
// everywhere; per-area counts and label groups appear in first-seen
// order.
func Assemble(due, upcoming []schedule.Item, runDate time.Time) *Payload {
	if len(due) == 0 {
		return nil
	}

	p := &Payload{
		RunDate:  runDate,
		Total:    len(due),
		Items:    due,
		Upcoming: upcoming,
	}

	areaIdx := map[string]int{}
	labelIdx := map[string]int{}
	labels := 0
	for _, it := range due {
		if i, ok := areaIdx[it.Area]; ok {
			p.Areas[i].Count++
		} else {
			areaIdx[it.Area] = len(p.Areas)
			p.Areas = append(p.Areas, AreaCount{Area: it.Area, Count: 1})
		}
		if i, ok := labelIdx[it.Label]; ok {
			p.Groups[i].Items = append(p.Groups[i].Items, it)
		} else {
			labelIdx[it.Label] = len(p.Groups)
			p.Groups = append(p.Groups, Group{Label: it.Label, Items: []schedule.Item{it}})
			labels++
		}
	}
	if labels <= 1 {
		p.Groups = nil
	}
	return p
}

// UpcomingWithin filters the computed rows down to the "coming up"
// window: scheduled items due within the next window days. A window of
// zero disables the section.
func UpcomingWithin(items []schedule.Item, window int) []schedule.Item {
	if window <= 0 {
		return nil
	}
	var out []schedule.Item
	for _, it := range items {
		if it.Status == schedule.StatusScheduled && it.DaysUntil <= window {
			out = append(out, it)
		}
	}
	return out
}
