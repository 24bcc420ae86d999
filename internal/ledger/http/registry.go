package http

import (
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := accounts.ListFilter{
		Type:     accounts.AccountType(q.Get("type")),
		Category: q.Get("category"),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown account type "+string(filter.Type))
		return
	}
	list, err := h.registry.List(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAccountResponse(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	account, err := h.registry.Create(r.Context(), accounts.Account{
		Code:     req.Code,
		Name:     req.Name,
		Type:     accounts.AccountType(req.Type),
		Category: req.Category,
		IsActive: true,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(account))
}
