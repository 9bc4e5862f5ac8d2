package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/analytics"
	"fintrack/internal/ledger"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

const testUser = "user-1"

type capturingPublisher struct {
	published []string
}

func (p *capturingPublisher) PublishExportRequest(_ context.Context, userID, exportType string) error {
	p.published = append(p.published, userID+":"+exportType)
	return nil
}

func newTestServer(t *testing.T) (*Server, *ledger.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore()
	agg := analytics.NewAggregator(store)
	return NewServer(Options{
		Addr:         ":0",
		Store:        store,
		Service:      services.NewLedgerService(store, services.NewRecurrenceEngine()),
		Aggregator:   agg,
		Evaluator:    analytics.NewEvaluator(store, agg),
		Composer:     analytics.NewComposer(store),
		ExportWorker: worker.NewExportWorker(store, map[string]worker.Exporter{}),
	}), store
}

func doJSON(t *testing.T, s *Server, method, path string, body any, user string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func createTransaction(t *testing.T, s *Server, body map[string]any) map[string]any {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/transactions", body, testUser)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created
}

func TestRateLimitAppliesToWritesOnly(t *testing.T) {
	store := ledger.NewMemoryStore()
	agg := analytics.NewAggregator(store)
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 2})
	s := NewServer(Options{
		Addr:         ":0",
		Store:        store,
		Service:      services.NewLedgerService(store, services.NewRecurrenceEngine()),
		Aggregator:   agg,
		Evaluator:    analytics.NewEvaluator(store, agg),
		Composer:     analytics.NewComposer(store),
		ExportWorker: worker.NewExportWorker(store, map[string]worker.Exporter{}),
		Limiter:      limiter,
	})
	t.Cleanup(limiter.Stop)

	body := map[string]any{"amount": "10", "category": "food", "type": "expense"}
	for i := 0; i < 2; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/transactions", body, testUser)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", body, testUser)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are not limited and never consume the write budget.
	for i := 0; i < 5; i++ {
		rec = doJSON(t, s, http.MethodGet, "/api/transactions", nil, testUser)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec = doJSON(t, s, http.MethodPost, "/api/transactions", body, testUser)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMissingUserHeader(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/transactions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndGetTransaction(t *testing.T) {
	s, _ := newTestServer(t)

	created := createTransaction(t, s, map[string]any{
		"amount":   "42.50",
		"category": "food",
		"type":     "expense",
		"date":     "2024-03-10",
	})
	id := created["id"].(string)
	require.NotEmpty(t, id)

	rec := doJSON(t, s, http.MethodGet, "/api/transactions/"+id, nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "food", got["category"])
	assert.Equal(t, "42.5", got["amount"])
}

func TestCreateTransactionValidationError(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"amount":   "-5",
		"category": "food",
		"type":     "expense",
	}, testUser)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateTransactionMalformedBody(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString("{not json"))
	req.Header.Set("X-User-ID", testUser)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransactionMalformedDate(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"amount":   "10",
		"category": "food",
		"type":     "expense",
		"date":     "10/03/2024",
	}, testUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTransactionNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/transactions/nope", nil, testUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTransactionOtherUserHidden(t *testing.T) {
	s, _ := newTestServer(t)
	created := createTransaction(t, s, map[string]any{
		"amount":   "10",
		"category": "food",
		"type":     "expense",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/"+created["id"].(string), nil)
	req.Header.Set("X-User-ID", "user-2")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, "other users' rows look nonexistent")
}

func TestUpdateTransaction(t *testing.T) {
	s, _ := newTestServer(t)
	created := createTransaction(t, s, map[string]any{
		"amount":   "10",
		"category": "food",
		"type":     "expense",
	})
	id := created["id"].(string)

	rec := doJSON(t, s, http.MethodPut, "/api/transactions/"+id, map[string]any{
		"description": "weekly shop",
	}, testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "weekly shop", updated["description"])
	assert.Equal(t, "food", updated["category"], "untouched fields survive")
}

func TestUpdateTransactionInvalidPatch(t *testing.T) {
	s, _ := newTestServer(t)
	created := createTransaction(t, s, map[string]any{
		"amount":   "10",
		"category": "food",
		"type":     "expense",
	})

	rec := doJSON(t, s, http.MethodPut, "/api/transactions/"+created["id"].(string), map[string]any{
		"amount": "0",
	}, testUser)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeleteTransaction(t *testing.T) {
	s, _ := newTestServer(t)
	created := createTransaction(t, s, map[string]any{
		"amount":   "10",
		"category": "food",
		"type":     "expense",
	})
	id := created["id"].(string)

	rec := doJSON(t, s, http.MethodDelete, "/api/transactions/"+id, nil, testUser)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/"+id, nil, testUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTransactionsPagination(t *testing.T) {
	s, _ := newTestServer(t)
	for i := 0; i < 25; i++ {
		createTransaction(t, s, map[string]any{
			"amount":   "10",
			"category": "food",
			"type":     "expense",
			"date":     fmt.Sprintf("2024-03-%02d", i%28+1),
		})
	}

	rec := doJSON(t, s, http.MethodGet, "/api/transactions?page=3&per_page=10", nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Transactions, 5)
	assert.Equal(t, 25, resp.Total)

	// Out-of-range values clamp instead of erroring.
	rec = doJSON(t, s, http.MethodGet, "/api/transactions?page=0&per_page=500", nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 100, resp.PerPage)
}

func TestSearchRequiresQuery(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/transactions/search", nil, testUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	createTransaction(t, s, map[string]any{
		"amount":      "10",
		"category":    "food",
		"type":        "expense",
		"description": "pizza night",
	})
	rec = doJSON(t, s, http.MethodGet, "/api/transactions/search?q=pizza", nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Transactions, 1)
}

func TestBulkCreateRejectsWholeBatch(t *testing.T) {
	s, store := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions/bulk", []map[string]any{
		{"amount": "10", "category": "food", "type": "expense"},
		{"amount": "10", "category": "", "type": "expense"},
	}, testUser)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rows, err := store.List(context.Background(), testUser, ledger.Filters{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMonthlySummaryEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	createTransaction(t, s, map[string]any{
		"amount": "100", "category": "salary", "type": "income", "date": "2024-03-05",
	})
	createTransaction(t, s, map[string]any{
		"amount": "40", "category": "food", "type": "expense", "date": "2024-03-15",
	})
	createTransaction(t, s, map[string]any{
		"amount": "999", "category": "rent", "type": "expense", "date": "2024-04-01",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/summary/monthly?month=3&year=2024", nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var sum map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, "100", sum["total_income"])
	assert.Equal(t, "40", sum["total_expenses"])
	assert.Equal(t, "60", sum["net"])
}

func TestBudgetStatusEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	month := time.Now().UTC().Format("2006-01")

	rec := doJSON(t, s, http.MethodPost, "/api/budgets", map[string]any{
		"category":      "food",
		"target_amount": "200",
		"period":        "monthly",
	}, testUser)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	createTransaction(t, s, map[string]any{
		"amount": "170", "category": "food", "type": "expense",
		"date": month + "-01",
	})

	rec = doJSON(t, s, http.MethodGet, "/api/budgets/status", nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Budgets map[string]analytics.BudgetStatus `json:"budgets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Budgets, "food")
	assert.Equal(t, analytics.AlertWarning, resp.Budgets["food"].Status)
}

func TestBudgetStatusCacheInvalidatedOnWrite(t *testing.T) {
	s, _ := newTestServer(t)
	month := time.Now().UTC().Format("2006-01")

	rec := doJSON(t, s, http.MethodPost, "/api/budgets", map[string]any{
		"category":      "food",
		"target_amount": "100",
		"period":        "monthly",
	}, testUser)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/budgets/status", nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	createTransaction(t, s, map[string]any{
		"amount": "150", "category": "food", "type": "expense",
		"date": month + "-01",
	})

	rec = doJSON(t, s, http.MethodGet, "/api/budgets/status", nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Budgets map[string]analytics.BudgetStatus `json:"budgets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, analytics.AlertExceeded, resp.Budgets["food"].Status,
		"stale cached status must not survive a write")
}

func TestReportCacheInvalidatedOnWrite(t *testing.T) {
	s, _ := newTestServer(t)

	createTransaction(t, s, map[string]any{
		"amount": "100", "category": "salary", "type": "income", "date": "2024-03-05",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/reports", nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	createTransaction(t, s, map[string]any{
		"amount": "40", "category": "food", "type": "expense", "date": "2024-03-15",
	})

	rec = doJSON(t, s, http.MethodGet, "/api/reports", nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var rep struct {
		TransactionsNum int `json:"transactions_num"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 2, rep.TransactionsNum, "stale cached report must not survive a write")
}

func TestReportEndpointInvalidRange(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/reports?start_date=2024-06-01&end_date=2024-01-01", nil, testUser)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExportQueuedWhenPublisherConfigured(t *testing.T) {
	s, _ := newTestServer(t)
	pub := &capturingPublisher{}
	s.publisher = pub

	rec := doJSON(t, s, http.MethodPost, "/api/exports", map[string]any{"export_type": "csv"}, testUser)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{testUser + ":csv"}, pub.published)
}

func TestExportInlineFallback(t *testing.T) {
	s, store := newTestServer(t)

	// No exporters registered: the inline run fails but still logs.
	rec := doJSON(t, s, http.MethodPost, "/api/exports", map[string]any{"export_type": "csv"}, testUser)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	logs, err := store.ListExportLogs(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	rec = doJSON(t, s, http.MethodGet, "/api/exports", nil, testUser)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
