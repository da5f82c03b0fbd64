package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrInvalidRecord is returned when a backend response decodes but fails validation
var ErrInvalidRecord = errors.New("invalid record")

// HTTPError is returned for any non-2xx backend response
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(e.Body))
}

// Client talks to the dashboard backend. It holds no state beyond its configuration
// and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire formats, as served by the backend

type wireTransaction struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	TxnType  string          `json:"txn_type"`
	Category string          `json:"category"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Bank     string          `json:"bank"`
	Voided   bool            `json:"voided"`
}

type wireMonthly struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type wireCategory struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

type wireDaily struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type wireMonthlyCategory struct {
	Month    string          `json:"month"`
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

type wireCategoryDef struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	Builtin bool   `json:"builtin"`
}

type wireStatus struct {
	Status       string `json:"status"`
	PrevCategory string `json:"prev_category"`
}

func (w wireTransaction) decode() (Transaction, error) {
	if w.ID == "" {
		return Transaction{}, fmt.Errorf("%w: transaction without id", ErrInvalidRecord)
	}
	day, err := ParseDay(w.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: transaction %s: %v", ErrInvalidRecord, w.ID, err)
	}
	return Transaction{
		ID:       w.ID,
		Date:     day,
		TxnType:  w.TxnType,
		Merchant: w.Merchant,
		Amount:   w.Amount,
		Category: w.Category,
		Bank:     w.Bank,
		Voided:   w.Voided,
	}, nil
}

func decodeTransactions(wire []wireTransaction) ([]Transaction, error) {
	txs := make([]Transaction, 0, len(wire))
	for _, w := range wire {
		tx, err := w.decode()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func monthQuery(month Month) url.Values {
	if month == AllMonths {
		return nil
	}
	return url.Values{"month": []string{string(month)}}
}

// Transactions lists expense transactions, optionally scoped to a month
func (c *Client) Transactions(ctx context.Context, month Month) ([]Transaction, error) {
	var wire []wireTransaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions", monthQuery(month), nil, &wire); err != nil {
		return nil, err
	}
	return decodeTransactions(wire)
}

// CreditTransactions lists income transactions, optionally scoped to a month
func (c *Client) CreditTransactions(ctx context.Context, month Month) ([]Transaction, error) {
	var wire []wireTransaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions/credits", monthQuery(month), nil, &wire); err != nil {
		return nil, err
	}
	return decodeTransactions(wire)
}

func (c *Client) MonthlySummary(ctx context.Context) ([]MonthlySummary, error) {
	var wire []wireMonthly
	if err := c.do(ctx, http.MethodGet, "/api/summary/monthly", nil, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]MonthlySummary, 0, len(wire))
	for _, w := range wire {
		m, err := ParseMonth(w.Month)
		if err != nil || m == AllMonths {
			return nil, fmt.Errorf("%w: monthly summary month %q", ErrInvalidRecord, w.Month)
		}
		out = append(out, MonthlySummary{Month: m, Total: w.Total, Count: w.Count})
	}
	return out, nil
}

func (c *Client) CategorySummary(ctx context.Context, month Month) ([]CategorySummary, error) {
	var wire []wireCategory
	if err := c.do(ctx, http.MethodGet, "/api/summary/category", monthQuery(month), nil, &wire); err != nil {
		return nil, err
	}
	out := make([]CategorySummary, 0, len(wire))
	for _, w := range wire {
		if w.Category == "" {
			return nil, fmt.Errorf("%w: category summary without category", ErrInvalidRecord)
		}
		out = append(out, CategorySummary{Category: w.Category, Total: w.Total, Count: w.Count})
	}
	return out, nil
}

func (c *Client) DailySummary(ctx context.Context, month Month) ([]DailySummary, error) {
	var wire []wireDaily
	if err := c.do(ctx, http.MethodGet, "/api/summary/daily", monthQuery(month), nil, &wire); err != nil {
		return nil, err
	}
	out := make([]DailySummary, 0, len(wire))
	for _, w := range wire {
		day, err := ParseDay(w.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: daily summary: %v", ErrInvalidRecord, err)
		}
		out = append(out, DailySummary{Date: day, Total: w.Total, Count: w.Count})
	}
	return out, nil
}

func (c *Client) MonthlyCategorySummary(ctx context.Context) ([]MonthlyCategorySummary, error) {
	var wire []wireMonthlyCategory
	if err := c.do(ctx, http.MethodGet, "/api/summary/monthly-categories", nil, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]MonthlyCategorySummary, 0, len(wire))
	for _, w := range wire {
		m, err := ParseMonth(w.Month)
		if err != nil || m == AllMonths {
			return nil, fmt.Errorf("%w: monthly category summary month %q", ErrInvalidRecord, w.Month)
		}
		out = append(out, MonthlyCategorySummary{Month: m, Category: w.Category, Total: w.Total})
	}
	return out, nil
}

func (c *Client) CategoryDefs(ctx context.Context) ([]CategoryDef, error) {
	var wire []wireCategoryDef
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]CategoryDef, 0, len(wire))
	for _, w := range wire {
		if w.Name == "" {
			return nil, fmt.Errorf("%w: category without name", ErrInvalidRecord)
		}
		out = append(out, CategoryDef{Name: w.Name, Color: w.Color, Builtin: w.Builtin})
	}
	return out, nil
}

// CreateCategory defines a new category. The caller is responsible for normalising the name.
func (c *Client) CreateCategory(ctx context.Context, name, color string) error {
	body := map[string]string{"name": name, "color": color}
	return c.do(ctx, http.MethodPost, "/api/categories", nil, body, nil)
}

// UpdateCategory reassigns a transaction's category. With remember set the backend
// also remaps every transaction of the same merchant.
func (c *Client) UpdateCategory(ctx context.Context, id, category string, remember bool) (CategoryUpdate, error) {
	body := struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Remember bool   `json:"remember"`
	}{id, category, remember}

	var resp wireStatus
	if err := c.do(ctx, http.MethodPost, "/api/transactions/update-category", nil, body, &resp); err != nil {
		return CategoryUpdate{}, err
	}
	return CategoryUpdate{Status: resp.Status, PrevCategory: resp.PrevCategory}, nil
}

func (c *Client) SetVoided(ctx context.Context, id string, voided bool) error {
	body := struct {
		ID     string `json:"id"`
		Voided bool   `json:"voided"`
	}{id, voided}
	return c.do(ctx, http.MethodPost, "/api/transactions/void", nil, body, nil)
}

// do performs one request and decodes the JSON response into out (if non-nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
