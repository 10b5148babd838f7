package rowtable

import (
	"context"
	"errors"
	"testing"

	logx "samplewatch/pkg/logx"
)

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemory()

	sh, err := st.EnsureSheet(ctx, "Plan", 100, 20)
	if err != nil {
		t.Fatalf("EnsureSheet: %v", err)
	}
	if err := sh.AppendRows(ctx, [][]string{
		{"Area", "Product"},
		{"North", "Widget"},
	}); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}

	rows, err := sh.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "North" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestMemorySheetNotFound(t *testing.T) {
	t.Parallel()
	_, err := NewMemory().Sheet(context.Background(), "missing")
	if !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("err = %v, want ErrSheetNotFound", err)
	}
}

func TestMemoryUsedRangeTrimming(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemory()
	sh, _ := st.EnsureSheet(ctx, "Plan", 0, 0)

	// Writing a far-away cell then blanking it must not leave ghost rows.
	if err := sh.UpdateCell(ctx, 5, 3, "x"); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	rows, _ := sh.Rows(ctx)
	if len(rows) != 5 || len(rows[4]) != 3 || rows[4][2] != "x" {
		t.Fatalf("rows = %v", rows)
	}
	if len(rows[0]) != 0 {
		t.Fatalf("row 1 should be empty, got %v", rows[0])
	}

	if err := sh.UpdateCell(ctx, 5, 3, ""); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	rows, _ = sh.Rows(ctx)
	if len(rows) != 0 {
		t.Fatalf("rows after blanking = %v", rows)
	}
}

func TestMemoryAppendAfterUsedRange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemory()
	sh, _ := st.EnsureSheet(ctx, "History", 0, 0)

	if err := sh.AppendRows(ctx, [][]string{{"header"}}); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	// Grow the grid with an empty tail, then append again.
	if err := sh.UpdateCell(ctx, 4, 1, ""); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	if err := sh.AppendRows(ctx, [][]string{{"second"}}); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}

	rows, _ := sh.Rows(ctx)
	if len(rows) != 2 || rows[1][0] != "second" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestMemoryBatchUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemory()
	sh, _ := st.EnsureSheet(ctx, "Plan", 0, 0)
	_ = sh.AppendRows(ctx, [][]string{{"h"}, {"a"}, {"b"}})

	err := sh.UpdateCells(ctx, []CellUpdate{
		{Row: 2, Col: 8, Value: "29/08/2026"},
		{Row: 3, Col: 8, Value: "01/09/2026"},
	})
	if err != nil {
		t.Fatalf("UpdateCells: %v", err)
	}
	rows, _ := sh.Rows(ctx)
	if rows[1][7] != "29/08/2026" || rows[2][7] != "01/09/2026" {
		t.Fatalf("rows = %v", rows)
	}

	if err := sh.UpdateCells(ctx, []CellUpdate{{Row: 0, Col: 1}}); err == nil {
		t.Fatal("expected error for 0-based row")
	}
}

func TestMemoryClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemory()
	sh, _ := st.EnsureSheet(ctx, "Summary", 0, 0)
	_ = sh.AppendRows(ctx, [][]string{{"a"}, {"b"}})

	if err := sh.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	rows, _ := sh.Rows(ctx)
	if len(rows) != 0 {
		t.Fatalf("rows after clear = %v", rows)
	}
}

func TestOpenDrivers(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{}, logx.Nop()); err == nil {
		t.Error("empty driver should be rejected")
	}
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Error("unknown driver should be rejected")
	}
	st, err := Open(Config{Driver: "memory"}, logx.Nop())
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	defer st.Close()
	if _, err := st.EnsureSheet(context.Background(), "x", 0, 0); err != nil {
		t.Errorf("EnsureSheet: %v", err)
	}
}
