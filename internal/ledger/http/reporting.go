package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// reportGroup collapses concurrent identical report requests into one
// computation.
var reportGroup singleflight.Group

func singleflightBuild(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	resultChan := reportGroup.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}

func (h *Handler) parseLedgerRange(w http.ResponseWriter, r *http.Request) (string, time.Time, time.Time, bool) {
	code := chi.URLParam(r, "code")
	q := r.URL.Query()
	from, err := time.Parse(dateLayout, q.Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be "+dateLayout)
		return "", time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateLayout, q.Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be "+dateLayout)
		return "", time.Time{}, time.Time{}, false
	}
	return code, from, to, true
}

func (h *Handler) buildAccountLedger(ctx context.Context, code string, from, to time.Time) (reports.AccountLedger, error) {
	key := "ledger:" + code + ":" + from.Format(dateLayout) + ":" + to.Format(dateLayout)
	if h.reportCache != nil {
		cacheKey, err := h.reportCache.BuildKey(ctx, key)
		if err == nil {
			var cached reports.AccountLedger
			if err := h.reportCache.FetchJSON(ctx, cacheKey, &cached, func(ctx context.Context) (interface{}, error) {
				report, err := singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
					return h.reporter.ForAccount(ctx, code, from, to)
				})
				if err != nil {
					return nil, err
				}
				return report, nil
			}); err != nil {
				return reports.AccountLedger{}, err
			}
			return cached, nil
		}
	}
	report, err := singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
		return h.reporter.ForAccount(ctx, code, from, to)
	})
	if err != nil {
		return reports.AccountLedger{}, err
	}
	return report.(reports.AccountLedger), nil
}

func (h *Handler) buildTrialBalance(ctx context.Context, asOf time.Time) (reports.TrialBalance, error) {
	key := "tb:" + asOf.Format(dateLayout)
	if h.reportCache != nil {
		cacheKey, err := h.reportCache.BuildKey(ctx, key)
		if err == nil {
			var cached reports.TrialBalance
			if err := h.reportCache.FetchJSON(ctx, cacheKey, &cached, func(ctx context.Context) (interface{}, error) {
				report, err := singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
					return h.reporter.TrialBalance(ctx, asOf)
				})
				if err != nil {
					return nil, err
				}
				return report, nil
			}); err != nil {
				return reports.TrialBalance{}, err
			}
			return cached, nil
		}
	}
	report, err := singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
		return h.reporter.TrialBalance(ctx, asOf)
	})
	if err != nil {
		return reports.TrialBalance{}, err
	}
	return report.(reports.TrialBalance), nil
}

func (h *Handler) handleAccountLedger(w http.ResponseWriter, r *http.Request) {
	code, from, to, ok := h.parseLedgerRange(w, r)
	if !ok {
		return
	}
	report, err := h.buildAccountLedger(r.Context(), code, from, to)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleAccountLedgerCSV(w http.ResponseWriter, r *http.Request) {
	code, from, to, ok := h.parseLedgerRange(w, r)
	if !ok {
		return
	}
	report, err := h.buildAccountLedger(r.Context(), code, from, to)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=account_ledger_`+code+`.csv`)
	if err := writeAccountLedgerCSV(w, report); err != nil {
		h.logger.Error("write account ledger csv", "error", err)
	}
}

func (h *Handler) parseAsOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), true
	}
	asOf, err := time.Parse(dateLayout, raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be "+dateLayout)
		return time.Time{}, false
	}
	return asOf, true
}

func (h *Handler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.parseAsOf(w, r)
	if !ok {
		return
	}
	report, err := h.buildTrialBalance(r.Context(), asOf)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleTrialBalanceCSV(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.parseAsOf(w, r)
	if !ok {
		return
	}
	report, err := h.buildTrialBalance(r.Context(), asOf)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=trial_balance_`+asOf.Format(dateLayout)+`.csv`)
	if err := writeTrialBalanceCSV(w, report); err != nil {
		h.logger.Error("write trial balance csv", "error", err)
	}
}
