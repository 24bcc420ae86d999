package http

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

const dateLayout = "2006-01-02"

// Amounts travel as decimal strings on the wire; floats would lose cents.
type lineRequest struct {
	AccountID int64  `json:"account_id" validate:"required"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
	Memo      string `json:"memo"`
}

type entryRequest struct {
	Date        string        `json:"date" validate:"required"`
	Description string        `json:"description" validate:"required"`
	Reference   string        `json:"reference"`
	Actor       string        `json:"actor" validate:"required"`
	Lines       []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

func parseAmount(s, field string, lineNo int) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("line %d: %s is not a valid amount", lineNo, field)
	}
	return v, nil
}

func (req entryRequest) toInput() (ledger.EntryInput, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return ledger.EntryInput{}, fmt.Errorf("date must be %s", dateLayout)
	}
	lines := make([]ledger.LineInput, 0, len(req.Lines))
	for i, line := range req.Lines {
		debit, err := parseAmount(line.Debit, "debit", i+1)
		if err != nil {
			return ledger.EntryInput{}, err
		}
		credit, err := parseAmount(line.Credit, "credit", i+1)
		if err != nil {
			return ledger.EntryInput{}, err
		}
		lines = append(lines, ledger.LineInput{
			AccountID: line.AccountID,
			Debit:     debit,
			Credit:    credit,
			Memo:      line.Memo,
		})
	}
	return ledger.EntryInput{
		Date:        date,
		Description: req.Description,
		Reference:   req.Reference,
		CreatedBy:   req.Actor,
		Lines:       lines,
	}, nil
}

type voidRequest struct {
	Reason string `json:"reason" validate:"required"`
	Actor  string `json:"actor" validate:"required"`
}

type reverseRequest struct {
	Date  string `json:"date"`
	Actor string `json:"actor" validate:"required"`
}

type accountRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Category string `json:"category"`
}

type closeRequest struct {
	Actor string `json:"actor" validate:"required"`
}

type reopenRequest struct {
	Actor  string `json:"actor" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type lineResponse struct {
	LineNo    int    `json:"line_no"`
	AccountID int64  `json:"account_id"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
	Memo      string `json:"memo,omitempty"`
}

type entryResponse struct {
	ID          string         `json:"id"`
	Number      string         `json:"number"`
	Date        string         `json:"date"`
	Description string         `json:"description"`
	Reference   string         `json:"reference,omitempty"`
	Status      string         `json:"status"`
	CreatedBy   string         `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	PostedAt    *time.Time     `json:"posted_at,omitempty"`
	VoidReason  string         `json:"void_reason,omitempty"`
	Lines       []lineResponse `json:"lines,omitempty"`
}

func toEntryResponse(e ledger.JournalEntry) entryResponse {
	resp := entryResponse{
		ID:          e.ID.String(),
		Number:      ledger.FormatEntryNumber(e.Number),
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
		Reference:   e.Reference,
		Status:      string(e.Status),
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		PostedAt:    e.PostedAt,
		VoidReason:  e.VoidReason,
	}
	for _, line := range e.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			LineNo:    line.LineNo,
			AccountID: line.AccountID,
			Debit:     line.Debit.StringFixed(2),
			Credit:    line.Credit.StringFixed(2),
			Memo:      line.Memo,
		})
	}
	return resp
}

type accountResponse struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`
	IsActive bool   `json:"is_active"`
}

func toAccountResponse(a accounts.Account) accountResponse {
	return accountResponse{
		ID:       a.ID,
		Code:     a.Code,
		Name:     a.Name,
		Type:     string(a.Type),
		Category: a.Category,
		IsActive: a.IsActive,
	}
}
