package schedule

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"samplewatch/internal/rowtable"
	logx "samplewatch/pkg/logx"
)

func seedPlan(t *testing.T) rowtable.Sheet {
	t.Helper()
	ctx := context.Background()
	st := rowtable.NewMemory()
	sh, err := st.EnsureSheet(ctx, "Plan", 0, 0)
	if err != nil {
		t.Fatalf("EnsureSheet: %v", err)
	}
	rows := [][]string{
		{"Area", "Product", "Line", "Attribute", "Frequency", "Last Inspected", "Sample ID", "Next Due"},
		{"HCM", "Juice", "L1", "pH", "30", "01/01/2024", "S-1", "STALE"},
		{"HN", "Milk", "L2", "Micro", "60", "20/01/2024", "S-2", ""},
		{"DN", "Tea", "L3", "pH", "x", "01/01/2024", "S-3", "KEEP"},
		{"DN", "", "L3", "pH", "30", "01/01/2024", "", ""},
	}
	if err := sh.AppendRows(ctx, rows); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	return sh
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sh := seedPlan(t)
	today := time.Date(2024, 2, 5, 8, 0, 0, 0, time.UTC)

	out, err := NewUpdater(logx.Nop()).Refresh(ctx, sh, "Physical", nil, today)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if out.Rows != 4 || out.Computed != 2 || out.Skipped != 2 {
		t.Fatalf("counts = %d/%d/%d, want 4/2/2", out.Rows, out.Computed, out.Skipped)
	}
	if len(out.Due) != 1 || out.Due[0].Product != "Juice" || out.Due[0].Row != 2 {
		t.Fatalf("due = %+v", out.Due)
	}
	if out.Due[0].Sheet != "Plan" || out.Due[0].Label != "Physical" {
		t.Errorf("due item origin = %s/%s", out.Due[0].Sheet, out.Due[0].Label)
	}
	if len(out.All) != 4 || out.All[1].Status != StatusScheduled {
		t.Fatalf("all = %+v", out.All)
	}

	rows, _ := sh.Rows(ctx)
	if rows[1][7] != "31/01/2024" {
		t.Errorf("due row cell = %q, want 31/01/2024", rows[1][7])
	}
	if rows[2][7] != "20/03/2024" {
		t.Errorf("scheduled row cell = %q, want 20/03/2024", rows[2][7])
	}
	if rows[3][7] != "KEEP" {
		t.Errorf("skipped row cell = %q, must stay untouched", rows[3][7])
	}
}

func TestRefreshIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sh := seedPlan(t)
	today := time.Date(2024, 2, 5, 8, 0, 0, 0, time.UTC)
	u := NewUpdater(logx.Nop())

	first, err := u.Refresh(ctx, sh, "Physical", nil, today)
	if err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	afterFirst, _ := sh.Rows(ctx)

	second, err := u.Refresh(ctx, sh, "Physical", nil, today)
	if err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	afterSecond, _ := sh.Rows(ctx)

	if !reflect.DeepEqual(afterFirst, afterSecond) {
		t.Errorf("cells changed between identical runs:\n%v\n%v", afterFirst, afterSecond)
	}
	if !reflect.DeepEqual(first.Due, second.Due) {
		t.Errorf("due sets differ between identical runs")
	}
}

func TestRefreshEmptySheet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := rowtable.NewMemory()
	sh, _ := st.EnsureSheet(ctx, "Empty", 0, 0)

	out, err := NewUpdater(logx.Nop()).Refresh(ctx, sh, "", nil, time.Now())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if out.Rows != 0 || len(out.Due) != 0 {
		t.Fatalf("outcome = %+v, want empty", out)
	}

	// Header only, still nothing to do.
	_ = sh.AppendRows(ctx, [][]string{{"Area", "Product"}})
	out, err = NewUpdater(logx.Nop()).Refresh(ctx, sh, "", nil, time.Now())
	if err != nil || out.Rows != 0 {
		t.Fatalf("header-only outcome = %+v, err = %v", out, err)
	}
}

type brokenSheet struct {
	rowtable.Sheet
	readErr  error
	writeErr error
}

func (b *brokenSheet) Rows(ctx context.Context) ([][]string, error) {
	if b.readErr != nil {
		return nil, b.readErr
	}
	return b.Sheet.Rows(ctx)
}

func (b *brokenSheet) UpdateCells(ctx context.Context, updates []rowtable.CellUpdate) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	return b.Sheet.UpdateCells(ctx, updates)
}

func TestRefreshStoreFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	today := time.Date(2024, 2, 5, 8, 0, 0, 0, time.UTC)
	u := NewUpdater(logx.Nop())

	readFail := &brokenSheet{Sheet: seedPlan(t), readErr: errors.New("read boom")}
	if _, err := u.Refresh(ctx, readFail, "", nil, today); !errors.Is(err, readFail.readErr) {
		t.Fatalf("read failure err = %v", err)
	}

	writeFail := &brokenSheet{Sheet: seedPlan(t), writeErr: errors.New("write boom")}
	if _, err := u.Refresh(ctx, writeFail, "", nil, today); !errors.Is(err, writeFail.writeErr) {
		t.Fatalf("write failure err = %v", err)
	}
}
