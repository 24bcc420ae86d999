package http

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// respondDomainError maps ledger domain errors onto problem responses. Every
// invariant rejection carries the specific detail (amount difference, period
// key, unknown accounts) from the error itself.
func respondDomainError(w http.ResponseWriter, err error) {
	var drafts periods.DraftsRemainError
	switch {
	case errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, accounts.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ledger.ErrUnbalanced),
		errors.Is(err, ledger.ErrPeriodClosed),
		errors.Is(err, ledger.ErrNotPosted),
		errors.Is(err, ledger.ErrVoided):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invariant Violation", err.Error())
	case errors.Is(err, ledger.ErrAlreadyPosted),
		errors.Is(err, ledger.ErrConcurrencyConflict),
		errors.Is(err, periods.ErrConcurrencyConflict),
		errors.Is(err, accounts.ErrDuplicateCode),
		errors.Is(err, periods.ErrAlreadyClosed),
		errors.Is(err, periods.ErrNotClosed):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &drafts):
		httpx.Problem(w, http.StatusConflict, "Drafts Remain", err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrDateRequired),
		errors.Is(err, ledger.ErrTooFewLines),
		errors.Is(err, ledger.ErrInvalidLine),
		errors.Is(err, periods.ErrInvalidMonth),
		errors.Is(err, reports.ErrEmptyRange):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
