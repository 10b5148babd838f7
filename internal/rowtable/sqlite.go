package rowtable

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	logx "samplewatch/pkg/logx"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("store.path is required for sqlite driver")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Sheet(ctx context.Context, name string) (Sheet, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM sheets WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", name, ErrSheetNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sqliteSheet{st: s, id: id, name: name}, nil
}

func (s *sqliteStore) EnsureSheet(ctx context.Context, name string, rows, cols int) (Sheet, error) {
	// Grid size hints are meaningless for a sparse cell table.
	_, _ = rows, cols
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sheets(name) VALUES(?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return nil, err
	}
	return s.Sheet(ctx, name)
}

type sqliteSheet struct {
	st   *sqliteStore
	id   int64
	name string
}

func (t *sqliteSheet) Name() string { return t.name }

func (t *sqliteSheet) Rows(ctx context.Context) ([][]string, error) {
	rows, err := t.st.db.QueryContext(ctx,
		`SELECT row, col, value FROM cells WHERE sheet_id = ? ORDER BY row, col`, t.id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grid [][]string
	for rows.Next() {
		var r, c int
		var v string
		if err := rows.Scan(&r, &c, &v); err != nil {
			return nil, err
		}
		if r < 1 || c < 1 {
			continue
		}
		for len(grid) < r {
			grid = append(grid, nil)
		}
		row := grid[r-1]
		for len(row) < c {
			row = append(row, "")
		}
		row[c-1] = v
		grid[r-1] = row
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	used := lastUsedRow(grid)
	out := make([][]string, 0, used)
	for _, row := range grid[:used] {
		out = append(out, trimRow(row))
	}
	return out, nil
}

func (t *sqliteSheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	return t.UpdateCells(ctx, []CellUpdate{{Row: row, Col: col, Value: value}})
}

func (t *sqliteSheet) UpdateCells(ctx context.Context, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := t.st.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, u := range updates {
		if u.Row < 1 || u.Col < 1 {
			return errInvalidCell(t.name, u.Row, u.Col)
		}
		if strings.TrimSpace(u.Value) == "" {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM cells WHERE sheet_id = ? AND row = ? AND col = ?`,
				t.id, u.Row, u.Col)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO cells(sheet_id, row, col, value) VALUES(?,?,?,?)
				 ON CONFLICT(sheet_id, row, col) DO UPDATE SET value=excluded.value`,
				t.id, u.Row, u.Col, u.Value)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (t *sqliteSheet) AppendRows(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := t.st.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var base sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(row) FROM cells WHERE sheet_id = ?`, t.id).Scan(&base); err != nil {
		return err
	}
	next := int(base.Int64) + 1

	for i, row := range rows {
		for j, v := range row {
			if strings.TrimSpace(v) == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cells(sheet_id, row, col, value) VALUES(?,?,?,?)
				 ON CONFLICT(sheet_id, row, col) DO UPDATE SET value=excluded.value`,
				t.id, next+i, j+1, v); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (t *sqliteSheet) Clear(ctx context.Context) error {
	_, err := t.st.db.ExecContext(ctx, `DELETE FROM cells WHERE sheet_id = ?`, t.id)
	return err
}
