// Package summary rebuilds the roll-up worksheet: one row per tracked
// item with its current classification, replaced wholesale every run.
// The sheet is derived data; a failed rebuild degrades the run but
// never fails it.
package summary

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"samplewatch/internal/rowtable"
	"samplewatch/internal/schedule"
	logx "samplewatch/pkg/logx"
)

var header = []string{
	"Sheet", "Area", "Product", "Line", "Attribute",
	"Frequency (days)", "Last Inspected", "Next Due", "Status", "Days Until",
}

type Builder struct {
	log logx.Logger
}

func NewBuilder(log logx.Logger) *Builder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Builder{log: log}
}

// Rebuild clears the sheet and writes the current snapshot: header,
// one row per computed item in sheet order, and a dated footer.
// Skipped rows are not part of the roll-up.
func (b *Builder) Rebuild(ctx context.Context, sheet rowtable.Sheet, items []schedule.Item, today time.Time) error {
	if err := sheet.Clear(ctx); err != nil {
		return fmt.Errorf("clear %s: %w", sheet.Name(), err)
	}

	rows := make([][]string, 0, len(items)+2)
	rows = append(rows, header)
	n := 0
	for _, it := range items {
		if it.Status == schedule.StatusSkipped {
			continue
		}
		name := it.Label
		if name == "" {
			name = it.Sheet
		}
		rows = append(rows, []string{
			name,
			it.Area,
			it.Product,
			it.Line,
			it.Attribute,
			it.Frequency,
			it.Last,
			it.NextDue,
			it.Status.String(),
			strconv.Itoa(it.DaysUntil),
		})
		n++
	}
	rows = append(rows, []string{"Updated " + schedule.FormatDate(today)})

	if err := sheet.AppendRows(ctx, rows); err != nil {
		return fmt.Errorf("append to %s: %w", sheet.Name(), err)
	}
	b.log.Info("summary rebuilt",
		logx.String("sheet", sheet.Name()),
		logx.Int("items", n),
	)
	return nil
}
