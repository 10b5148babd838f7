// Package history maintains the append-only ledger of observed sample
// identifiers. Entries are only ever appended, never mutated or
// deleted; the sample ID is the natural key and set membership decides
// what is new.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"samplewatch/internal/rowtable"
	"samplewatch/internal/schedule"
	logx "samplewatch/pkg/logx"
)

// Header is written to a fresh history sheet. The dedup set is built
// from the Sample ID column, so its position is part of the layout.
var Header = []string{"Area", "Product", "Line", "Attribute", "Inspected On", "Sample ID", "Recorded On"}

const sampleIDCol = 5 // 0-based position of Sample ID in Header

type Ledger struct {
	log logx.Logger
}

func NewLedger(log logx.Logger) *Ledger {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Ledger{log: log}
}

// Reconcile compares the tracked schedule rows against the history
// sheet and appends one entry per sample ID not seen before, stamped
// with today's date. The appended count is returned.
//
// A schedule row qualifies when sample ID, area, product, frequency
// and the last-inspection date are all non-empty; row classification
// does not matter, so a row skipped over an unparsable frequency still
// records its sample. Newly appended IDs join the in-memory set immediately, which
// collapses duplicates within a run: the first occurrence wins. All new
// entries go out in a single append at the end.
func (l *Ledger) Reconcile(ctx context.Context, sheet rowtable.Sheet, items []schedule.Item, today time.Time) (int, error) {
	rows, err := sheet.Rows(ctx)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", sheet.Name(), err)
	}
	if len(rows) == 0 {
		if err := sheet.AppendRows(ctx, [][]string{Header}); err != nil {
			return 0, fmt.Errorf("write %s header: %w", sheet.Name(), err)
		}
	}

	existing := make(map[string]struct{}, len(rows))
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) <= sampleIDCol {
			continue
		}
		if id := strings.TrimSpace(row[sampleIDCol]); id != "" {
			existing[id] = struct{}{}
		}
	}

	stamp := schedule.FormatDate(today)
	var fresh [][]string
	for _, it := range items {
		if it.SampleID == "" || it.Area == "" || it.Product == "" || it.Frequency == "" || it.Last == "" {
			continue
		}
		if _, seen := existing[it.SampleID]; seen {
			continue
		}
		existing[it.SampleID] = struct{}{}
		fresh = append(fresh, []string{it.Area, it.Product, it.Line, it.Attribute, it.Last, it.SampleID, stamp})
	}

	if len(fresh) == 0 {
		l.log.Info("no new sample ids", logx.String("sheet", sheet.Name()))
		return 0, nil
	}
	if err := sheet.AppendRows(ctx, fresh); err != nil {
		return 0, fmt.Errorf("append to %s: %w", sheet.Name(), err)
	}
	l.log.Info("history appended",
		logx.String("sheet", sheet.Name()),
		logx.Int("entries", len(fresh)),
	)
	return len(fresh), nil
}
