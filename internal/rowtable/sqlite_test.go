package rowtable

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	logx "samplewatch/pkg/logx"
)

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plan.db")

	st, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := st.Sheet(ctx, "Plan"); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("Sheet on empty db: %v, want ErrSheetNotFound", err)
	}

	sh, err := st.EnsureSheet(ctx, "Plan", 100, 20)
	if err != nil {
		t.Fatalf("EnsureSheet: %v", err)
	}
	if err := sh.AppendRows(ctx, [][]string{
		{"Area", "Product", "Frequency"},
		{"North", "Widget", "14"},
	}); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	if err := sh.UpdateCells(ctx, []CellUpdate{{Row: 2, Col: 4, Value: "29/08/2026"}}); err != nil {
		t.Fatalf("UpdateCells: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and confirm everything survived.
	st, err = Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	sh, err = st.Sheet(ctx, "Plan")
	if err != nil {
		t.Fatalf("Sheet: %v", err)
	}
	rows, err := sh.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[1][3] != "29/08/2026" {
		t.Errorf("updated cell = %q", rows[1][3])
	}
	if rows[0][2] != "Frequency" {
		t.Errorf("header = %v", rows[0])
	}

	if err := sh.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	rows, _ = sh.Rows(ctx)
	if len(rows) != 0 {
		t.Fatalf("rows after clear = %v", rows)
	}
}
