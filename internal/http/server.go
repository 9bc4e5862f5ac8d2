// Package http exposes the ledger over a JSON API. Handlers stay thin:
// identity comes from the X-User-ID header, bodies decode into request DTOs
// and the work happens in the service and analytics layers.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/ledger"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

// ExportPublisher enqueues export requests for the background worker.
type ExportPublisher interface {
	PublishExportRequest(ctx context.Context, userID, exportType string) error
}

type Server struct {
	http.Server

	store     ledger.Store
	svc       *services.LedgerService
	agg       *analytics.Aggregator
	evaluator *analytics.Evaluator
	composer  *analytics.Composer

	// publisher is nil when AMQP is not configured; exports then run inline
	// through exportWorker.
	publisher    ExportPublisher
	exportWorker *worker.ExportWorker

	limiter     *ratelimit.Limiter
	budgetCache *cache.LRUCache[map[string]analytics.BudgetStatus]
	reportCache *cache.LRUCache[analytics.Report]

	shutdownOnce sync.Once
}

type Options struct {
	Addr         string
	Store        ledger.Store
	Service      *services.LedgerService
	Aggregator   *analytics.Aggregator
	Evaluator    *analytics.Evaluator
	Composer     *analytics.Composer
	Publisher    ExportPublisher
	ExportWorker *worker.ExportWorker
	Limiter      *ratelimit.Limiter
}

func NewServer(opts Options) *Server {
	s := &Server{
		store:        opts.Store,
		svc:          opts.Service,
		agg:          opts.Aggregator,
		evaluator:    opts.Evaluator,
		composer:     opts.Composer,
		publisher:    opts.Publisher,
		exportWorker: opts.ExportWorker,
		limiter:      opts.Limiter,
		budgetCache:  cache.NewLRUCache[map[string]analytics.BudgetStatus](256, 5*time.Minute),
		reportCache:  cache.NewLRUCache[analytics.Report](256, 5*time.Minute),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/transactions", s.withUser(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.withUser(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/search", s.withUser(s.handleSearchTransactions))
	mux.HandleFunc("POST /api/transactions/bulk", s.withUser(s.handleBulkCreate))
	mux.HandleFunc("GET /api/transactions/{id}", s.withUser(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withUser(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withUser(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.withUser(s.handleListCategories))
	mux.HandleFunc("GET /api/summary/monthly", s.withUser(s.handleMonthlySummary))
	mux.HandleFunc("GET /api/summary/categories", s.withUser(s.handleCategorySummary))
	mux.HandleFunc("GET /api/summary/trends", s.withUser(s.handleTrends))
	mux.HandleFunc("GET /api/statistics", s.withUser(s.handleStatistics))
	mux.HandleFunc("GET /api/reports", s.withUser(s.handleReport))

	mux.HandleFunc("POST /api/budgets", s.withUser(s.handleCreateGoal))
	mux.HandleFunc("GET /api/budgets", s.withUser(s.handleListGoals))
	mux.HandleFunc("PUT /api/budgets/{id}", s.withUser(s.handleUpdateGoal))
	mux.HandleFunc("GET /api/budgets/status", s.withUser(s.handleBudgetStatus))

	mux.HandleFunc("POST /api/exports", s.withUser(s.handleRequestExport))
	mux.HandleFunc("GET /api/exports", s.withUser(s.handleListExports))

	var handler http.Handler = mux
	if s.limiter != nil {
		handler = limitWrites(s.limiter.Middleware(userKey), handler)
	}
	handler = trace.Middleware(handler)

	s.Addr = opts.Addr
	s.Handler = handler
	s.ReadTimeout = 15 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

func userKey(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// limitWrites rate-limits mutating methods only, so read polling cannot
// starve a user's own writes.
func limitWrites(limit func(http.Handler) http.Handler, next http.Handler) http.Handler {
	limited := limit(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// withUser rejects requests without an X-User-ID header. There is no token
// validation here; authentication is expected at the edge.
func (s *Server) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userKey(r)
		if userID == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		next(w, r, userID)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ready")
}

// budgetCacheKey scopes cached budget status to a user and month.
func budgetCacheKey(userID string, now time.Time) string {
	return userID + ":" + now.Format("2006-01")
}

// invalidateUser drops the user's cached analytics after any write.
func (s *Server) invalidateUser(userID string) {
	s.budgetCache.DeletePrefix(userID + ":")
	s.reportCache.DeletePrefix(userID + ":")
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
