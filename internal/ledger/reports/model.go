// Package reports derives read models from posted journal lines: per-account
// ledgers with running balances and the point-in-time trial balance. Only
// POSTED entries contribute; drafts and voided entries are invisible here.
package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// LedgerRow is one posted line as it appears on an account ledger.
type LedgerRow struct {
	EntryID     uuid.UUID       `json:"entry_id"`
	Number      string          `json:"number"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Memo        string          `json:"memo,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountLedger is the statement of one account over a date range.
type AccountLedger struct {
	Account accounts.Account `json:"account"`
	From    time.Time        `json:"from"`
	To      time.Time        `json:"to"`
	Opening decimal.Decimal  `json:"opening_balance"`
	Rows    []LedgerRow      `json:"rows"`
	Closing decimal.Decimal  `json:"closing_balance"`
}

// TrialBalanceRow aggregates one account's posted activity up to a date.
type TrialBalanceRow struct {
	AccountID   int64                `json:"account_id"`
	AccountCode string               `json:"account_code"`
	AccountName string               `json:"account_name"`
	AccountType accounts.AccountType `json:"account_type"`
	Debit       decimal.Decimal      `json:"debit"`
	Credit      decimal.Decimal      `json:"credit"`
}

// TrialBalance lists every account with posted activity as of a date. For a
// consistent ledger TotalDebit always equals TotalCredit.
type TrialBalance struct {
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}
