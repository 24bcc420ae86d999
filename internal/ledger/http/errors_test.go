package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

func TestRespondDomainError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantTitle  string
	}{
		{"entry not found", ledger.ErrEntryNotFound, http.StatusNotFound, "Not Found"},
		{"account not found", accounts.ErrNotFound, http.StatusNotFound, "Not Found"},
		{"unbalanced", ledger.UnbalancedError{Debit: decimal.NewFromInt(100), Credit: decimal.NewFromInt(99)}, http.StatusUnprocessableEntity, "Invariant Violation"},
		{"period closed", ledger.PeriodClosedError{Year: 2026, Month: time.January}, http.StatusUnprocessableEntity, "Invariant Violation"},
		{"not posted", ledger.ErrNotPosted, http.StatusUnprocessableEntity, "Invariant Violation"},
		{"voided", ledger.ErrVoided, http.StatusUnprocessableEntity, "Invariant Violation"},
		{"already posted", ledger.ErrAlreadyPosted, http.StatusConflict, "Conflict"},
		{"duplicate code", accounts.ErrDuplicateCode, http.StatusConflict, "Conflict"},
		{"already closed", periods.ErrAlreadyClosed, http.StatusConflict, "Conflict"},
		{"drafts remain", periods.DraftsRemainError{Year: 2026, Month: time.February, Drafts: 3}, http.StatusConflict, "Drafts Remain"},
		{"unknown line account", ledger.AccountNotFoundError{AccountIDs: []int64{9}}, http.StatusBadRequest, "Validation Failed"},
		{"too few lines", ledger.ErrTooFewLines, http.StatusBadRequest, "Validation Failed"},
		{"empty range", reports.ErrEmptyRange, http.StatusBadRequest, "Validation Failed"},
		{"integrity fault", ledger.IntegrityFaultError{Detail: "entry does not balance"}, http.StatusInternalServerError, "Internal Error"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Internal Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondDomainError(rec, tc.err)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var problem struct {
				Title  string `json:"title"`
				Status int    `json:"status"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("decode problem: %v", err)
			}
			if problem.Title != tc.wantTitle {
				t.Fatalf("title = %q, want %q", problem.Title, tc.wantTitle)
			}
			if problem.Status != tc.wantStatus {
				t.Fatalf("body status = %d, want %d", problem.Status, tc.wantStatus)
			}
		})
	}
}
