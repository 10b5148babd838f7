package schedule

import (
	"context"
	"fmt"
	"time"

	"samplewatch/internal/rowtable"
	logx "samplewatch/pkg/logx"
)

// Outcome is the result of one sheet sweep.
type Outcome struct {
	Rows     int    // data rows seen
	Computed int    // rows that produced a refreshed next-due date
	Skipped  int    // rows excluded for data-quality reasons
	Due      []Item // the due subset, sheet order
	All      []Item // every data row including skipped ones, sheet order
}

// Updater sweeps schedule sheets: computes next-due per row, writes the
// refreshed dates back in a single batch, and collects the due subset.
type Updater struct {
	log logx.Logger
}

func NewUpdater(log logx.Logger) *Updater {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Updater{log: log}
}

// Refresh runs one sweep over the sheet. Row order is the sheet order
// and is preserved end to end; it is the ordering operators see.
//
// Every computed row gets its next-due cell rewritten, even when the
// value is unchanged, so repeated runs produce identical cells. The
// write-back is flushed as one batched call after the sweep. Skipped
// rows are logged and left untouched.
func (u *Updater) Refresh(ctx context.Context, sheet rowtable.Sheet, label string, columns map[string]string, today time.Time) (Outcome, error) {
	rows, err := sheet.Rows(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("read %s: %w", sheet.Name(), err)
	}
	if len(rows) <= 1 {
		u.log.Info("schedule sheet has no data rows", logx.String("sheet", sheet.Name()))
		return Outcome{}, nil
	}

	cols := ResolveColumns(rows[0], columns)
	var (
		out     Outcome
		updates []rowtable.CellUpdate
	)
	for i, cells := range rows[1:] {
		rowNum := i + 2
		it := Compute(ParseRow(cells, cols, rowNum), today)
		it.Sheet = sheet.Name()
		it.Label = label
		out.Rows++
		out.All = append(out.All, it)

		if it.Status == StatusSkipped {
			out.Skipped++
			u.log.Warn("row skipped",
				logx.String("sheet", sheet.Name()),
				logx.Int("row", rowNum),
				logx.String("reason", it.SkipReason),
			)
			continue
		}

		out.Computed++
		updates = append(updates, rowtable.CellUpdate{
			Row:   rowNum,
			Col:   cols[FieldNextDue] + 1,
			Value: it.NextDue,
		})
		if it.Status == StatusDue {
			out.Due = append(out.Due, it)
		}
	}

	if err := sheet.UpdateCells(ctx, updates); err != nil {
		return Outcome{}, fmt.Errorf("write next-due dates to %s: %w", sheet.Name(), err)
	}
	u.log.Info("schedule refreshed",
		logx.String("sheet", sheet.Name()),
		logx.Int("rows", out.Rows),
		logx.Int("computed", out.Computed),
		logx.Int("due", len(out.Due)),
		logx.Int("skipped", out.Skipped),
	)
	return out, nil
}
