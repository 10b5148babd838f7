package rowtable

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrSheetNotFound = errors.New("sheet not found")

func errInvalidCell(sheet string, row, col int) error {
	return fmt.Errorf("sheet %q: cell (%d,%d) out of range, indices are 1-based", sheet, row, col)
}

// Config configures the storage layer.
//
// Driver values:
//   - "sheets": Google Sheets spreadsheet over the REST v4 API
//   - "sqlite": SQLite database file
//   - "memory": in-memory tables (tests, dry runs)
//
// Driver is required; there is no disabled mode.
type Config struct {
	Driver string

	// Sheets driver.
	SpreadsheetID string
	TokenFile     string
	TokenEnv      string
	Endpoint      string // override for tests; empty means the public API
	RatePerSec    float64
	RetryMax      int
	RetryBase     time.Duration
	Timeout       time.Duration

	// SQLite driver.
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// CellUpdate addresses a single cell write. Row and Col are 1-based,
// matching what operators see in a spreadsheet UI; row 1 is the header.
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// Store is a named collection of sheets.
type Store interface {
	// Sheet returns a handle for an existing sheet, or ErrSheetNotFound.
	Sheet(ctx context.Context, name string) (Sheet, error)
	// EnsureSheet returns a handle for the named sheet, creating it with
	// the given grid size if it does not exist. Drivers without a grid
	// notion ignore the size hints.
	EnsureSheet(ctx context.Context, name string, rows, cols int) (Sheet, error)
	Close() error
}

// Sheet is one rectangular table of string cells.
//
// Rows returns the used range only: trailing empty rows are absent and
// each row stops at its last non-empty cell, so callers must treat short
// rows as having empty values past the end.
type Sheet interface {
	Name() string
	Rows(ctx context.Context) ([][]string, error)
	UpdateCell(ctx context.Context, row, col int, value string) error
	UpdateCells(ctx context.Context, updates []CellUpdate) error
	AppendRows(ctx context.Context, rows [][]string) error
	Clear(ctx context.Context) error
}
