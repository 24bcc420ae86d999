// Package ledger implements the general ledger posting engine: journal entry
// lifecycle (DRAFT, POSTED, VOIDED), balance and period validation, and the
// void/reverse correction paths. History is append-only; no operation ever
// mutates the lines of a posted entry.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
)

// BalanceTolerance is the maximum allowed |debit-credit| difference for a
// posted entry. 0.01 currency units, defined once for the whole engine.
var BalanceTolerance = decimal.New(1, -2)

// EntryStatus enumerates journal lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "DRAFT"
	EntryStatusPosted EntryStatus = "POSTED"
	EntryStatusVoided EntryStatus = "VOIDED"
)

// JournalEntry captures one double-entry transaction.
type JournalEntry struct {
	ID          uuid.UUID
	Number      int64
	Date        time.Time
	Description string
	Reference   string
	Status      EntryStatus
	CreatedBy   string
	CreatedAt   time.Time
	PostedAt    *time.Time
	VoidReason  string
	UpdatedAt   time.Time
	Lines       []JournalLine
}

// JournalLine stores a debit or credit amount for an account. Exactly one of
// the pair is nonzero on a valid line.
type JournalLine struct {
	ID        int64
	EntryID   uuid.UUID
	LineNo    int
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Memo      string
}

// FormatEntryNumber renders the human-readable sequential entry number.
func FormatEntryNumber(number int64) string {
	return fmt.Sprintf("JE-%06d", number)
}

var (
	// ErrDateRequired indicates an entry without an entry date.
	ErrDateRequired = errors.New("ledger: entry date required")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: entry requires at least two lines")
	// ErrInvalidLine indicates a line violating the one-side-nonzero rule.
	ErrInvalidLine = errors.New("ledger: line must carry exactly one of debit or credit")
	// ErrEntryNotFound indicates a missing entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
	// ErrAlreadyPosted indicates the entry is no longer a draft.
	ErrAlreadyPosted = errors.New("ledger: entry already posted")
	// ErrNotPosted indicates void/reverse on a non-posted entry.
	ErrNotPosted = errors.New("ledger: entry is not posted")
	// ErrVoided indicates an operation on a voided entry.
	ErrVoided = errors.New("ledger: entry is voided")
	// ErrConcurrencyConflict indicates the caller lost a race on the entry.
	ErrConcurrencyConflict = errors.New("ledger: concurrent update conflict")
	// ErrUnbalanced is the sentinel matched by UnbalancedError.
	ErrUnbalanced = errors.New("ledger: entry does not balance")
	// ErrPeriodClosed is the sentinel matched by PeriodClosedError.
	ErrPeriodClosed = errors.New("ledger: fiscal period is closed")
	// ErrAccountNotFound is the sentinel matched by AccountNotFoundError.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrIntegrityFault is the sentinel matched by IntegrityFaultError.
	ErrIntegrityFault = errors.New("ledger: stored entry violates posting invariants")
)

// UnbalancedError reports which side is heavier and by how much, so callers
// can explain a refused posting instead of guessing.
type UnbalancedError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e UnbalancedError) Error() string {
	diff := e.Debit.Sub(e.Credit)
	side := "debit"
	if diff.IsNegative() {
		side = "credit"
		diff = diff.Neg()
	}
	return fmt.Sprintf("ledger: entry does not balance: debits %s, credits %s (%s side heavier by %s)",
		e.Debit.StringFixed(2), e.Credit.StringFixed(2), side, diff.StringFixed(2))
}

// Is lets errors.Is match the ErrUnbalanced sentinel.
func (e UnbalancedError) Is(target error) bool { return target == ErrUnbalanced }

// PeriodClosedError names the period that rejected the operation.
type PeriodClosedError struct {
	Year  int
	Month time.Month
}

func (e PeriodClosedError) Error() string {
	return fmt.Sprintf("ledger: fiscal period %s is closed", periods.Key(e.Year, e.Month))
}

// Is lets errors.Is match the ErrPeriodClosed sentinel.
func (e PeriodClosedError) Is(target error) bool { return target == ErrPeriodClosed }

// AccountNotFoundError lists the account ids an entry references that do not
// exist in the registry.
type AccountNotFoundError struct {
	AccountIDs []int64
}

func (e AccountNotFoundError) Error() string {
	return fmt.Sprintf("ledger: unknown accounts %v", e.AccountIDs)
}

// Is lets errors.Is match the ErrAccountNotFound sentinel.
func (e AccountNotFoundError) Is(target error) bool { return target == ErrAccountNotFound }

// IntegrityFaultError marks a stored inconsistency (a POSTED entry that does
// not balance). It is fatal to the request and never auto-corrected.
type IntegrityFaultError struct {
	EntryID uuid.UUID
	Detail  string
}

func (e IntegrityFaultError) Error() string {
	return fmt.Sprintf("ledger: integrity fault on entry %s: %s", e.EntryID, e.Detail)
}

// Is lets errors.Is match the ErrIntegrityFault sentinel.
func (e IntegrityFaultError) Is(target error) bool { return target == ErrIntegrityFault }
