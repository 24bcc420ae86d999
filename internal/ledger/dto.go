package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LineInput describes one journal line of a posting request.
type LineInput struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Memo      string
}

// EntryInput groups the fields required to create a journal entry.
type EntryInput struct {
	Date        time.Time
	Description string
	Reference   string
	CreatedBy   string
	Lines       []LineInput
}

var hundred = decimal.NewFromInt(100)

// hasCentPrecision reports whether v carries at most two decimal places.
func hasCentPrecision(v decimal.Decimal) bool {
	scaled := v.Mul(hundred)
	return scaled.Equal(scaled.Floor())
}

// ValidateStructural enforces the draft-level rules: at least two lines,
// non-negative amounts at cent precision, and exactly one side per line.
// Balance is deliberately not required here so UIs can build drafts
// incrementally.
func (in EntryInput) ValidateStructural() error {
	if in.Date.IsZero() {
		return ErrDateRequired
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("line %d missing account: %w", idx+1, ErrInvalidLine)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("line %d has a negative amount: %w", idx+1, ErrInvalidLine)
		}
		if line.Debit.IsZero() == line.Credit.IsZero() {
			return fmt.Errorf("line %d: %w", idx+1, ErrInvalidLine)
		}
		if !hasCentPrecision(line.Debit) || !hasCentPrecision(line.Credit) {
			return fmt.Errorf("line %d amount has more than 2 decimal places: %w", idx+1, ErrInvalidLine)
		}
	}
	return nil
}

// sumSides totals the debit and credit columns.
func sumSides(lines []LineInput) (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// ValidateBalanced checks the debit==credit invariant within BalanceTolerance.
func (in EntryInput) ValidateBalanced() error {
	debit, credit := sumSides(in.Lines)
	if debit.Sub(credit).Abs().GreaterThan(BalanceTolerance) {
		return UnbalancedError{Debit: debit, Credit: credit}
	}
	return nil
}

// accountIDs returns the distinct account ids referenced by the input.
func (in EntryInput) accountIDs() []int64 {
	seen := make(map[int64]struct{}, len(in.Lines))
	ids := make([]int64, 0, len(in.Lines))
	for _, line := range in.Lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}
	return ids
}

// linesToInput converts stored lines back into posting inputs, used by the
// post-time revalidation and by reversal.
func linesToInput(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
			Memo:      line.Memo,
		})
	}
	return out
}

// reverseLines swaps the debit and credit side of every line.
func reverseLines(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
			Memo:      line.Memo,
		})
	}
	return out
}

// Filter narrows entry listings. Zero values mean "any".
type Filter struct {
	Status            EntryStatus
	From              time.Time
	To                time.Time
	AccountID         int64
	ReferenceContains string
	Limit             int
	Offset            int
}
