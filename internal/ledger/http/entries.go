package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httpx.DecodeJSON(r, dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func entryIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "entry id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.engine.Submit(r.Context(), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.engine.CreateDraft(r.Context(), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) handlePostEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryIDFromURL(w, r)
	if !ok {
		return
	}
	var req closeRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	entry, err := h.engine.Post(r.Context(), id, req.Actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) handleVoidEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryIDFromURL(w, r)
	if !ok {
		return
	}
	var req voidRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	entry, err := h.engine.Void(r.Context(), id, req.Reason, req.Actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) handleReverseEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryIDFromURL(w, r)
	if !ok {
		return
	}
	var req reverseRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	var targetDate *time.Time
	if req.Date != "" {
		parsed, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be "+dateLayout)
			return
		}
		targetDate = &parsed
	}
	entry, err := h.engine.Reverse(r.Context(), id, targetDate, req.Actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryIDFromURL(w, r)
	if !ok {
		return
	}
	entry, err := h.engine.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.Filter{
		ReferenceContains: q.Get("reference"),
	}
	if status := q.Get("status"); status != "" {
		filter.Status = ledger.EntryStatus(status)
	}
	if from := q.Get("from"); from != "" {
		parsed, err := time.Parse(dateLayout, from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be "+dateLayout)
			return
		}
		filter.From = parsed
	}
	if to := q.Get("to"); to != "" {
		parsed, err := time.Parse(dateLayout, to)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be "+dateLayout)
			return
		}
		filter.To = parsed
	}
	if account := q.Get("account_id"); account != "" {
		id, err := strconv.ParseInt(account, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "account_id must be an integer")
			return
		}
		filter.AccountID = id
	}
	pageNo, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	page := shared.NewPagination(pageNo, perPage, 0)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	entries, err := h.engine.Find(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":  out,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}
