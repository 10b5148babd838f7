package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	logx "samplewatch/pkg/logx"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultEndpoint = "https://sheets.googleapis.com"

// Options configures a Client.
type Options struct {
	SpreadsheetID string
	Tokens        TokenSource
	Endpoint      string        // override for tests; empty means the public API
	HTTPClient    *http.Client  // nil means a default client with a 30s timeout
	RatePerSec    float64       // outbound request pacing; <=0 means 1
	RetryMax      int           // total attempts per request; <=0 means 5
	RetryBase     time.Duration // first retry delay; <=0 means 2s
	Log           logx.Logger
}

// Client talks to the Google Sheets REST v4 API.
//
// Every request is paced through a shared rate limiter and retried on
// quota exhaustion (HTTP 429) and server errors (5xx) with exponential
// backoff. Callers see only the final error.
type Client struct {
	base   string
	id     string
	tokens TokenSource
	http   *http.Client
	lim    *rate.Limiter
	log    logx.Logger

	retryMax  int
	retryBase time.Duration
}

// ValueRange addresses one block of cells for a batch write.
type ValueRange struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

func NewClient(o Options) (*Client, error) {
	if strings.TrimSpace(o.SpreadsheetID) == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	if o.Tokens == nil {
		return nil, errors.New("sheets: token source is required")
	}
	base := strings.TrimRight(strings.TrimSpace(o.Endpoint), "/")
	if base == "" {
		base = defaultEndpoint
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	rps := o.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	retryMax := o.RetryMax
	if retryMax <= 0 {
		retryMax = 5
	}
	retryBase := o.RetryBase
	if retryBase <= 0 {
		retryBase = 2 * time.Second
	}
	log := o.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		base:      base,
		id:        o.SpreadsheetID,
		tokens:    o.Tokens,
		http:      hc,
		lim:       rate.NewLimiter(rate.Limit(rps), burst),
		log:       log,
		retryMax:  retryMax,
		retryBase: retryBase,
	}, nil
}

// SheetTitles lists the titles of the sheets in the spreadsheet.
func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	var out struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	q := url.Values{"fields": {"sheets.properties.title"}}
	if err := c.do(ctx, http.MethodGet, "/v4/spreadsheets/"+c.id, q, nil, &out); err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(out.Sheets))
	for _, s := range out.Sheets {
		titles = append(titles, s.Properties.Title)
	}
	return titles, nil
}

// AddSheet creates a new sheet with the given grid size.
func (c *Client) AddSheet(ctx context.Context, title string, rows, cols int) error {
	type gridProperties struct {
		RowCount    int `json:"rowCount"`
		ColumnCount int `json:"columnCount"`
	}
	type sheetProperties struct {
		Title          string         `json:"title"`
		GridProperties gridProperties `json:"gridProperties"`
	}
	type addSheet struct {
		Properties sheetProperties `json:"properties"`
	}
	body := struct {
		Requests []struct {
			AddSheet addSheet `json:"addSheet"`
		} `json:"requests"`
	}{
		Requests: []struct {
			AddSheet addSheet `json:"addSheet"`
		}{
			{AddSheet: addSheet{Properties: sheetProperties{
				Title:          title,
				GridProperties: gridProperties{RowCount: rows, ColumnCount: cols},
			}}},
		},
	}
	return c.do(ctx, http.MethodPost, "/v4/spreadsheets/"+c.id+":batchUpdate", nil, body, nil)
}

// Values reads the used range of one sheet as rows of strings.
func (c *Client) Values(ctx context.Context, sheet string) ([][]string, error) {
	var out struct {
		Values [][]any `json:"values"`
	}
	path := "/v4/spreadsheets/" + c.id + "/values/" + url.PathEscape(QuoteSheet(sheet))
	q := url.Values{"valueRenderOption": {"FORMATTED_VALUE"}}
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	rows := make([][]string, len(out.Values))
	for i, raw := range out.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = asString(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// BatchUpdate writes all the given ranges in a single request.
func (c *Client) BatchUpdate(ctx context.Context, data []ValueRange) error {
	if len(data) == 0 {
		return nil
	}
	body := struct {
		ValueInputOption string       `json:"valueInputOption"`
		Data             []ValueRange `json:"data"`
	}{"RAW", data}
	return c.do(ctx, http.MethodPost, "/v4/spreadsheets/"+c.id+"/values:batchUpdate", nil, body, nil)
}

// Append adds rows after the last used row of the sheet.
func (c *Client) Append(ctx context.Context, sheet string, values [][]string) error {
	if len(values) == 0 {
		return nil
	}
	body := struct {
		Values [][]string `json:"values"`
	}{values}
	path := "/v4/spreadsheets/" + c.id + "/values/" + url.PathEscape(QuoteSheet(sheet)) + ":append"
	q := url.Values{
		"valueInputOption": {"RAW"},
		"insertDataOption": {"INSERT_ROWS"},
	}
	return c.do(ctx, http.MethodPost, path, q, body, nil)
}

// Clear empties the used range of the sheet. The grid itself survives.
func (c *Client) Clear(ctx context.Context, sheet string) error {
	path := "/v4/spreadsheets/" + c.id + "/values/" + url.PathEscape(QuoteSheet(sheet)) + ":clear"
	return c.do(ctx, http.MethodPost, path, nil, struct{}{}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	attempt := 1
	for {
		if err := c.lim.Wait(ctx); err != nil {
			return err
		}
		err := c.doOnce(ctx, method, path, query, payload, out)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt >= c.retryMax {
			return err
		}
		d := c.retryDelay(attempt)
		c.log.Warn("sheets request failed, retrying",
			logx.String("path", path),
			logx.Int("attempt", attempt),
			logx.Duration("delay", d),
			logx.Err(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
		attempt++
	}
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		var envelope struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"error"`
		}
		_ = json.Unmarshal(b, &envelope)
		return &apiError{HTTPStatus: resp.StatusCode, Message: envelope.Error.Message}
	}
	if out != nil && len(b) > 0 {
		return json.Unmarshal(b, out)
	}
	return nil
}

func (c *Client) retryDelay(attempt int) time.Duration {
	// attempt starts at 1 (first attempt), delay is for the NEXT attempt.
	maxD := 60 * time.Second
	d := c.retryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxD {
			d = maxD
			break
		}
	}
	// Jitter 0.7..1.3
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	j := 0.7 + rng.Float64()*0.6
	d = time.Duration(float64(d) * j)
	if d < 0 {
		return 0
	}
	if d > maxD {
		d = maxD
	}
	return d
}

type apiError struct {
	HTTPStatus int
	Message    string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sheets api: http %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("sheets api: http %d", e.HTTPStatus)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.HTTPStatus == http.StatusTooManyRequests || ae.HTTPStatus >= 500
	}
	// Transport-level failure, worth another try.
	return true
}

func asString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// QuoteSheet wraps a sheet title in single quotes for use in A1 notation.
func QuoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// CellRange renders the A1 reference of a single cell. Row and col are
// 1-based.
func CellRange(sheet string, row, col int) string {
	return QuoteSheet(sheet) + "!" + ColName(col) + strconv.Itoa(row)
}

// ColName converts a 1-based column index to its letter form:
// 1 is A, 26 is Z, 27 is AA.
func ColName(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}
