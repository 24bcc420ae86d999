package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

func periodFromURL(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 || year > 9999 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "year must be a four digit number")
		return 0, 0, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "month must be between 1 and 12")
		return 0, 0, false
	}
	return year, time.Month(month), true
}

type periodResponse struct {
	Period     string     `json:"period"`
	Status     string     `json:"status"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	ClosedBy   string     `json:"closed_by,omitempty"`
	ReopenedAt *time.Time `json:"reopened_at,omitempty"`
	ReopenedBy string     `json:"reopened_by,omitempty"`
}

func toPeriodResponse(p periods.Period) periodResponse {
	return periodResponse{
		Period:     periods.Key(p.Year, p.Month),
		Status:     string(p.Status),
		ClosedAt:   p.ClosedAt,
		ClosedBy:   p.ClosedBy,
		ReopenedAt: p.ReopenedAt,
		ReopenedBy: p.ReopenedBy,
	}
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	list, err := h.periods.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	out := make([]periodResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPeriodResponse(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": out})
}

func (h *Handler) handlePeriodStatus(w http.ResponseWriter, r *http.Request) {
	year, month, ok := periodFromURL(w, r)
	if !ok {
		return
	}
	status, err := h.periods.Status(r.Context(), year, month)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"period": periods.Key(year, month),
		"status": string(status),
	})
}

func (h *Handler) handleClosePeriod(w http.ResponseWriter, r *http.Request) {
	year, month, ok := periodFromURL(w, r)
	if !ok {
		return
	}
	var req closeRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	if err := h.periods.Close(r.Context(), year, month, req.Actor); err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"period": periods.Key(year, month),
		"status": string(periods.StatusClosed),
	})
}

func (h *Handler) handleReopenPeriod(w http.ResponseWriter, r *http.Request) {
	year, month, ok := periodFromURL(w, r)
	if !ok {
		return
	}
	var req reopenRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	if err := h.periods.Reopen(r.Context(), year, month, req.Actor, req.Reason); err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"period": periods.Key(year, month),
		"status": string(periods.StatusOpen),
	})
}
