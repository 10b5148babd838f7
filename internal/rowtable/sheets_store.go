package rowtable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"samplewatch/internal/rowtable/sheets"
	logx "samplewatch/pkg/logx"
	"strings"
	"time"
)

type sheetsStore struct {
	c   *sheets.Client
	log logx.Logger
}

func openSheets(cfg Config, log logx.Logger) (Store, error) {
	tokens, err := sheetsTokens(cfg)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c, err := sheets.NewClient(sheets.Options{
		SpreadsheetID: cfg.SpreadsheetID,
		Tokens:        tokens,
		Endpoint:      cfg.Endpoint,
		HTTPClient:    &http.Client{Timeout: timeout},
		RatePerSec:    cfg.RatePerSec,
		RetryMax:      cfg.RetryMax,
		RetryBase:     cfg.RetryBase,
		Log:           log,
	})
	if err != nil {
		return nil, err
	}
	return &sheetsStore{c: c, log: log}, nil
}

func sheetsTokens(cfg Config) (sheets.TokenSource, error) {
	if strings.TrimSpace(cfg.TokenFile) != "" {
		return sheets.FileToken(cfg.TokenFile), nil
	}
	if strings.TrimSpace(cfg.TokenEnv) != "" {
		return sheets.EnvToken(cfg.TokenEnv), nil
	}
	return nil, errors.New("sheets driver needs store.token_file or store.token_env")
}

func (s *sheetsStore) Sheet(ctx context.Context, name string) (Sheet, error) {
	titles, err := s.c.SheetTitles(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range titles {
		if t == name {
			return &sheetsSheet{st: s, name: name}, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrSheetNotFound)
}

func (s *sheetsStore) EnsureSheet(ctx context.Context, name string, rows, cols int) (Sheet, error) {
	sh, err := s.Sheet(ctx, name)
	if err == nil {
		return sh, nil
	}
	if !errors.Is(err, ErrSheetNotFound) {
		return nil, err
	}
	if rows <= 0 {
		rows = 100
	}
	if cols <= 0 {
		cols = 20
	}
	if err := s.c.AddSheet(ctx, name, rows, cols); err != nil {
		return nil, err
	}
	s.log.Info("sheet created",
		logx.String("sheet", name),
		logx.Int("rows", rows),
		logx.Int("cols", cols),
	)
	return &sheetsSheet{st: s, name: name}, nil
}

func (s *sheetsStore) Close() error { return nil }

type sheetsSheet struct {
	st   *sheetsStore
	name string
}

func (t *sheetsSheet) Name() string { return t.name }

func (t *sheetsSheet) Rows(ctx context.Context) ([][]string, error) {
	return t.st.c.Values(ctx, t.name)
}

func (t *sheetsSheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	return t.UpdateCells(ctx, []CellUpdate{{Row: row, Col: col, Value: value}})
}

func (t *sheetsSheet) UpdateCells(ctx context.Context, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	data := make([]sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		if u.Row < 1 || u.Col < 1 {
			return errInvalidCell(t.name, u.Row, u.Col)
		}
		data = append(data, sheets.ValueRange{
			Range:  sheets.CellRange(t.name, u.Row, u.Col),
			Values: [][]string{{u.Value}},
		})
	}
	return t.st.c.BatchUpdate(ctx, data)
}

func (t *sheetsSheet) AppendRows(ctx context.Context, rows [][]string) error {
	return t.st.c.Append(ctx, t.name, rows)
}

func (t *sheetsSheet) Clear(ctx context.Context) error {
	return t.st.c.Clear(ctx, t.name)
}
