package rowtable

import (
	"context"
	"strings"
	"sync"
)

// memoryStore is a dependency-free backend. It mirrors the used-range
// semantics of the sheets driver so tests exercise the same edge cases:
// trailing empty rows and cells are invisible to Rows.
type memoryStore struct {
	mu     sync.Mutex
	sheets map[string]*memorySheet
}

type memorySheet struct {
	st   *memoryStore
	name string
	grid [][]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() Store {
	return &memoryStore{sheets: map[string]*memorySheet{}}
}

func (s *memoryStore) Sheet(ctx context.Context, name string) (Sheet, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.sheets[name]
	if !ok {
		return nil, ErrSheetNotFound
	}
	return sh, nil
}

func (s *memoryStore) EnsureSheet(ctx context.Context, name string, rows, cols int) (Sheet, error) {
	_, _, _ = ctx, rows, cols
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.sheets[name]
	if !ok {
		sh = &memorySheet{st: s, name: name}
		s.sheets[name] = sh
	}
	return sh, nil
}

func (s *memoryStore) Close() error { return nil }

func (t *memorySheet) Name() string { return t.name }

func (t *memorySheet) Rows(ctx context.Context) ([][]string, error) {
	_ = ctx
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	used := lastUsedRow(t.grid)
	out := make([][]string, 0, used)
	for _, row := range t.grid[:used] {
		out = append(out, trimRow(row))
	}
	return out, nil
}

func (t *memorySheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	return t.UpdateCells(ctx, []CellUpdate{{Row: row, Col: col, Value: value}})
}

func (t *memorySheet) UpdateCells(ctx context.Context, updates []CellUpdate) error {
	_ = ctx
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	for _, u := range updates {
		if u.Row < 1 || u.Col < 1 {
			return errInvalidCell(t.name, u.Row, u.Col)
		}
		for len(t.grid) < u.Row {
			t.grid = append(t.grid, nil)
		}
		row := t.grid[u.Row-1]
		for len(row) < u.Col {
			row = append(row, "")
		}
		row[u.Col-1] = u.Value
		t.grid[u.Row-1] = row
	}
	return nil
}

func (t *memorySheet) AppendRows(ctx context.Context, rows [][]string) error {
	_ = ctx
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	t.grid = t.grid[:lastUsedRow(t.grid)]
	for _, row := range rows {
		t.grid = append(t.grid, append([]string(nil), row...))
	}
	return nil
}

func (t *memorySheet) Clear(ctx context.Context) error {
	_ = ctx
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	t.grid = nil
	return nil
}

func lastUsedRow(grid [][]string) int {
	for i := len(grid); i > 0; i-- {
		if len(trimRow(grid[i-1])) > 0 {
			return i
		}
	}
	return 0
}

func trimRow(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	out := make([]string, end)
	copy(out, row[:end])
	return out
}
