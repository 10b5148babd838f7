package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"samplewatch/internal/rowtable"
	"samplewatch/internal/schedule"
	logx "samplewatch/pkg/logx"
)

var runDate = time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC)

func summarySheet(t *testing.T) rowtable.Sheet {
	t.Helper()
	sh, err := rowtable.NewMemory().EnsureSheet(context.Background(), "Summary", 100, 20)
	if err != nil {
		t.Fatalf("EnsureSheet: %v", err)
	}
	return sh
}

func dueItem() schedule.Item {
	return schedule.Item{
		Row: 2, Sheet: "Physico", Label: "Physico-chemical",
		Area: "HCM", Product: "Juice", Line: "L1", Attribute: "pH",
		Frequency: "30", Last: "01/01/2024",
		NextDue: "31/01/2024", DaysUntil: -5, Status: schedule.StatusDue,
	}
}

func TestRebuildReplacesSheet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sh := summarySheet(t)
	_ = sh.AppendRows(ctx, [][]string{{"stale"}, {"rows"}, {"here"}})

	scheduled := dueItem()
	scheduled.Row = 3
	scheduled.NextDue = "20/03/2024"
	scheduled.DaysUntil = 44
	scheduled.Status = schedule.StatusScheduled

	err := NewBuilder(logx.Nop()).Rebuild(ctx, sh, []schedule.Item{dueItem(), scheduled}, runDate)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	rows, _ := sh.Rows(ctx)
	// Header, two items, dated footer. Nothing stale survives.
	if len(rows) != 4 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "Sheet" || rows[0][8] != "Status" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Physico-chemical" || rows[1][8] != "Due" || rows[1][9] != "-5" {
		t.Errorf("due row = %v", rows[1])
	}
	if rows[2][7] != "20/03/2024" || rows[2][8] != "Scheduled" {
		t.Errorf("scheduled row = %v", rows[2])
	}
	if rows[3][0] != "Updated 05/02/2024" {
		t.Errorf("footer = %v", rows[3])
	}
}

func TestRebuildExcludesSkippedRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sh := summarySheet(t)

	skipped := dueItem()
	skipped.Frequency = "x"
	skipped.NextDue = ""
	skipped.Status = schedule.StatusSkipped
	skipped.SkipReason = `frequency "x" is not a positive day count`

	err := NewBuilder(logx.Nop()).Rebuild(ctx, sh, []schedule.Item{skipped}, runDate)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	rows, _ := sh.Rows(ctx)
	if len(rows) != 2 {
		t.Fatalf("rows = %v, want header and footer only", rows)
	}
}

func TestRebuildFallsBackToSheetName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sh := summarySheet(t)

	it := dueItem()
	it.Label = ""

	if err := NewBuilder(logx.Nop()).Rebuild(ctx, sh, []schedule.Item{it}, runDate); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	rows, _ := sh.Rows(ctx)
	if rows[1][0] != "Physico" {
		t.Errorf("name column = %q, want sheet name", rows[1][0])
	}
}

type brokenSheet struct {
	rowtable.Sheet
	clearErr  error
	appendErr error
}

func (b *brokenSheet) Clear(ctx context.Context) error {
	if b.clearErr != nil {
		return b.clearErr
	}
	return b.Sheet.Clear(ctx)
}

func (b *brokenSheet) AppendRows(ctx context.Context, rows [][]string) error {
	if b.appendErr != nil {
		return b.appendErr
	}
	return b.Sheet.AppendRows(ctx, rows)
}

func TestRebuildStoreFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewBuilder(logx.Nop())
	items := []schedule.Item{dueItem()}

	clearFail := &brokenSheet{Sheet: summarySheet(t), clearErr: errors.New("clear boom")}
	if err := b.Rebuild(ctx, clearFail, items, runDate); !errors.Is(err, clearFail.clearErr) {
		t.Fatalf("clear failure err = %v", err)
	}

	appendFail := &brokenSheet{Sheet: summarySheet(t), appendErr: errors.New("append boom")}
	if err := b.Rebuild(ctx, appendFail, items, runDate); !errors.Is(err, appendFail.appendErr) {
		t.Fatalf("append failure err = %v", err)
	}
}
