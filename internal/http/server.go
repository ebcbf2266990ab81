// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"contas/internal/cache"
	"contas/internal/log"
	"contas/internal/services"
)

type Server struct {
	http.Server

	store    services.Store
	ledger   *services.LedgerService
	invoices *services.InvoiceService
	reports  *services.ReportService
	bills    *services.BillService

	summaryCache *cache.LRU[summaryResponse]
	upcomingDays int
}

// Options carries the wiring for NewServer. Store is used directly for
// the read-only list endpoints; all writes go through the services.
type Options struct {
	Addr         string
	Store        services.Store
	Ledger       *services.LedgerService
	Invoices     *services.InvoiceService
	Reports      *services.ReportService
	Bills        *services.BillService
	CacheSize    int
	CacheTTL     time.Duration
	UpcomingDays int
}

func NewServer(opts Options) *Server {
	s := &Server{
		store:        opts.Store,
		ledger:       opts.Ledger,
		invoices:     opts.Invoices,
		reports:      opts.Reports,
		bills:        opts.Bills,
		summaryCache: cache.NewLRU[summaryResponse](opts.CacheSize, opts.CacheTTL),
		upcomingDays: opts.UpcomingDays,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/cards", s.handleCreateCard)
	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/debts", s.handleCreateDebt)
	mux.HandleFunc("GET /api/debts", s.handleListDebts)
	mux.HandleFunc("DELETE /api/debts/{id}", s.handleDeleteDebt)

	mux.HandleFunc("POST /api/invoices", s.handleGenerateInvoice)
	mux.HandleFunc("GET /api/invoices", s.handleListInvoices)
	mux.HandleFunc("GET /api/invoices/{id}/items", s.handleListInvoiceItems)
	mux.HandleFunc("POST /api/invoices/{id}/pay", s.handlePayInvoice)
	mux.HandleFunc("POST /api/invoices/{id}/close", s.handleCloseInvoice)
	mux.HandleFunc("POST /api/invoices/{id}/reopen", s.handleReopenInvoice)

	mux.HandleFunc("POST /api/bills", s.handleCreateBill)
	mux.HandleFunc("GET /api/bills", s.handleListBills)
	mux.HandleFunc("GET /api/bills/upcoming", s.handleUpcomingBills)
	mux.HandleFunc("PUT /api/bills/{id}/status", s.handleUpdateBillStatus)
	mux.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)

	mux.HandleFunc("POST /api/reports", s.handleGenerateReport)
	mux.HandleFunc("GET /api/reports", s.handleListReports)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /api/summary", s.handleSummary)

	s.Server = http.Server{
		Addr:         opts.Addr,
		Handler:      withRequestLog(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLog tags each request with an id, stores it in the
// context for handler-level log lines, and logs method, path, status
// and duration on completion.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := newRequestID()
		ctx := log.WithRequestID(r.Context(), requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		slog.InfoContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func newRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(buf)
}
