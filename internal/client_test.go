package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method    string
	Path      string
	Query     string
	Body      map[string]any
	RequestID string
}

// testServer serves canned backend responses and records what it was sent
type testServer struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (s *testServer) record(c *gin.Context) {
	rec := recordedRequest{
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		Query:     c.Request.URL.RawQuery,
		RequestID: c.GetHeader("X-Request-Id"),
	}
	if c.Request.Method == http.MethodPost {
		var body map[string]any
		_ = c.ShouldBindJSON(&body)
		rec.Body = body
	}
	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()
}

func (s *testServer) last() recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func newTestServer(t *testing.T) (*testServer, *Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ts := &testServer{}

	r := gin.New()
	r.Use(func(c *gin.Context) { ts.record(c); c.Next() })

	api := r.Group("/api")
	api.GET("/transactions", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{
			{"id": "t1", "date": "2025-01-03", "txn_type": "DEBIT", "category": "drinks", "merchant": "Blue Bottle Coffee", "amount": 5.4, "bank": "dbs", "voided": false},
			{"id": "t2", "date": "2025-01-05", "txn_type": "DEBIT", "category": "", "merchant": "Grab", "amount": "18.20", "bank": "dbs", "voided": true},
		})
	})
	api.GET("/transactions/credits", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte("null"))
	})
	api.GET("/summary/monthly", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"month": "2025-01", "total": 23.6, "count": 2}})
	})
	api.GET("/summary/category", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"category": "transport", "total": 18.2, "count": 1}})
	})
	api.GET("/summary/daily", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"date": "2025-01-03", "total": 5.4, "count": 1}})
	})
	api.GET("/summary/monthly-categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"month": "2025-01", "category": "drinks", "total": 5.4}})
	})
	api.GET("/categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"name": "food", "color": "#f97316", "builtin": true}})
	})
	api.POST("/categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.POST("/transactions/update-category", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "prev_category": "drinks"})
	})
	api.POST("/transactions/void", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return ts, NewClient(srv.URL + "/")
}

func TestClient_Transactions(t *testing.T) {
	ts, c := newTestServer(t)

	txs, err := c.Transactions(context.Background(), "2025-01")
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "2025-01-03", txs[0].Date.String())
	assert.Equal(t, "Blue Bottle Coffee", txs[0].Merchant)
	assert.True(t, txs[0].Amount.Equal(dec("5.4")))
	assert.Equal(t, "", txs[1].Category)
	assert.Equal(t, Uncategorised, CategoryLabel(txs[1]))
	assert.True(t, txs[1].Voided)
	assert.True(t, txs[1].Amount.Equal(dec("18.20")))

	req := ts.last()
	assert.Equal(t, "/api/transactions", req.Path)
	assert.Equal(t, "month=2025-01", req.Query)
	assert.NotEmpty(t, req.RequestID)
}

func TestClient_AllMonthsOmitsQuery(t *testing.T) {
	ts, c := newTestServer(t)

	_, err := c.CategorySummary(context.Background(), AllMonths)
	require.NoError(t, err)
	assert.Empty(t, ts.last().Query)
}

func TestClient_NullListIsEmpty(t *testing.T) {
	_, c := newTestServer(t)

	credits, err := c.CreditTransactions(context.Background(), AllMonths)
	require.NoError(t, err)
	assert.NotNil(t, credits)
	assert.Empty(t, credits)
}

func TestClient_Summaries(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	monthly, err := c.MonthlySummary(ctx)
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, Month("2025-01"), monthly[0].Month)
	assert.True(t, monthly[0].Total.Equal(dec("23.6")))
	assert.Equal(t, 2, monthly[0].Count)

	daily, err := c.DailySummary(ctx, "2025-01")
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, 3, daily[0].Date.Day())

	mc, err := c.MonthlyCategorySummary(ctx)
	require.NoError(t, err)
	require.Len(t, mc, 1)
	assert.Equal(t, "drinks", mc[0].Category)

	defs, err := c.CategoryDefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CategoryDef{{Name: "food", Color: "#f97316", Builtin: true}}, defs)
}

func TestClient_Mutations(t *testing.T) {
	ts, c := newTestServer(t)
	ctx := context.Background()

	res, err := c.UpdateCategory(ctx, "t1", "food", true)
	require.NoError(t, err)
	assert.Equal(t, CategoryUpdate{Status: "ok", PrevCategory: "drinks"}, res)
	assert.Equal(t, map[string]any{"id": "t1", "category": "food", "remember": true}, ts.last().Body)

	require.NoError(t, c.SetVoided(ctx, "t2", true))
	assert.Equal(t, "/api/transactions/void", ts.last().Path)
	assert.Equal(t, map[string]any{"id": "t2", "voided": true}, ts.last().Body)

	require.NoError(t, c.CreateCategory(ctx, "bars", "#ff0000"))
	assert.Equal(t, map[string]any{"name": "bars", "color": "#ff0000"}, ts.last().Body)
}

func TestClient_HTTPError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/transactions/update-category", func(c *gin.Context) {
		c.String(http.StatusBadRequest, "unknown category\n")
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, err := NewClient(srv.URL).UpdateCategory(context.Background(), "t1", "nope", false)
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "POST /api/transactions/update-category: status 400: unknown category", err.Error())
}

func TestClient_InvalidRecords(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		call func(*Client) error
	}{
		{
			name: "transaction without id",
			path: "/api/transactions",
			body: `[{"date": "2025-01-01", "amount": 1}]`,
			call: func(c *Client) error { _, err := c.Transactions(context.Background(), AllMonths); return err },
		},
		{
			name: "transaction with bad date",
			path: "/api/transactions",
			body: `[{"id": "t1", "date": "03/01/2025", "amount": 1}]`,
			call: func(c *Client) error { _, err := c.Transactions(context.Background(), AllMonths); return err },
		},
		{
			name: "monthly without month",
			path: "/api/summary/monthly",
			body: `[{"total": 1, "count": 1}]`,
			call: func(c *Client) error { _, err := c.MonthlySummary(context.Background()); return err },
		},
		{
			name: "category without name",
			path: "/api/categories",
			body: `[{"color": "#fff"}]`,
			call: func(c *Client) error { _, err := c.CategoryDefs(context.Background()); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.GET(tt.path, func(c *gin.Context) {
				c.Data(http.StatusOK, "application/json", []byte(tt.body))
			})
			srv := httptest.NewServer(r)
			defer srv.Close()

			err := tt.call(NewClient(srv.URL))
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestClient_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).MonthlySummary(context.Background())
	assert.Error(t, err)
}
