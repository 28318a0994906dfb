// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"ledger/internal/cache"
	"ledger/internal/ledger"
	applog "ledger/internal/log"
	"ledger/internal/services"
)

type Server struct {
	http.Server

	store        *ledger.Store
	transactions *services.TransactionService
	monthWindow  int
	defaultPayer string
	logger       *applog.Logger

	// summaryCache memoizes month summaries; keys embed the store revision
	// so stale entries simply stop being asked for.
	summaryCache *cache.LRUCache[summaryResponse]
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, store *ledger.Store, transactions *services.TransactionService, monthWindow int, defaultPayer string, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:        store,
		transactions: transactions,
		monthWindow:  monthWindow,
		defaultPayer: defaultPayer,
		logger:       logger.WithComponent(applog.ComponentHTTP),
		summaryCache: cache.NewLRUCache[summaryResponse](64, 10*time.Minute),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           applog.RequestLogging(s.logger)(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("POST /api/transactions", s.handleAddTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleRemoveTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/months", s.handleMonths)

	mux.HandleFunc("PUT /api/budgets/{month}", s.handleSetBudgets)
	mux.HandleFunc("PUT /api/base-budget", s.handleSetBaseBudget)
	mux.HandleFunc("PUT /api/user", s.handleSetUser)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
