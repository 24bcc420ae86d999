// Package http exposes the ledger over JSON endpoints: journal entry
// lifecycle, the account registry, fiscal period control, and the reports
// with CSV export.
package http

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
)

// Handler wires the ledger endpoints.
type Handler struct {
	logger      *slog.Logger
	engine      *ledger.Service
	registry    *accounts.Service
	periods     *periods.Service
	reporter    *reports.Service
	reportCache *cache.JSONCache
	validate    *validator.Validate
	rateLimit   func(http.Handler) http.Handler
}

// NewHandler constructs the ledger handler. reportCache may be nil.
func NewHandler(logger *slog.Logger, engine *ledger.Service, registry *accounts.Service, periodCtl *periods.Service, reporter *reports.Service, reportCache *cache.JSONCache) *Handler {
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{
		logger:      logger,
		engine:      engine,
		registry:    registry,
		periods:     periodCtl,
		reporter:    reporter,
		reportCache: reportCache,
		validate:    validator.New(),
		rateLimit:   limiter,
	}
}

// MountRoutes registers HTTP routes for the ledger module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/entries", h.handleSubmitEntry)
		r.Post("/entries/draft", h.handleCreateDraft)
		r.Get("/entries", h.handleListEntries)
		r.Get("/entries/{id}", h.handleGetEntry)
		r.Post("/entries/{id}/post", h.handlePostEntry)
		r.Post("/entries/{id}/void", h.handleVoidEntry)
		r.Post("/entries/{id}/reverse", h.handleReverseEntry)

		r.Get("/accounts", h.handleListAccounts)
		r.Post("/accounts", h.handleCreateAccount)
		r.Get("/accounts/{code}/ledger", h.handleAccountLedger)

		r.Get("/reports/trial-balance", h.handleTrialBalance)

		r.Get("/periods", h.handleListPeriods)
		r.Get("/periods/{year}/{month}", h.handlePeriodStatus)
		r.Post("/periods/{year}/{month}/close", h.handleClosePeriod)
		r.Post("/periods/{year}/{month}/reopen", h.handleReopenPeriod)

		r.Group(func(r chi.Router) {
			r.Use(h.rateLimit)
			r.Get("/accounts/{code}/ledger/export.csv", h.handleAccountLedgerCSV)
			r.Get("/reports/trial-balance/export.csv", h.handleTrialBalanceCSV)
		})
	})
}
