package reports

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// ErrEmptyRange indicates from is after to.
var ErrEmptyRange = errors.New("reports: from must not be after to")

// ReaderPort is the aggregation surface the service reads from.
type ReaderPort interface {
	OpeningSums(ctx context.Context, accountID int64, from time.Time) (decimal.Decimal, decimal.Decimal, error)
	LedgerRows(ctx context.Context, accountID int64, from, to time.Time) ([]LedgerRow, error)
	TrialBalanceRows(ctx context.Context, asOf time.Time) ([]TrialBalanceRow, error)
}

// AccountsPort resolves registry accounts for report headers.
type AccountsPort interface {
	GetByCode(ctx context.Context, code string) (accounts.Account, error)
}

// MetricsPort counts detected stored inconsistencies.
type MetricsPort interface {
	RecordIntegrityFault()
}

// Service computes account ledgers and trial balances. It never mutates: a
// detected inconsistency is logged and counted, not repaired.
type Service struct {
	reader   ReaderPort
	registry AccountsPort
	metrics  MetricsPort
	log      *slog.Logger
}

// NewService constructs the reporter.
func NewService(reader ReaderPort, registry AccountsPort, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{reader: reader, registry: registry, log: log}
}

// WithMetrics attaches an integrity fault counter.
func (s *Service) WithMetrics(m MetricsPort) { s.metrics = m }

// ForAccount renders the ledger of one account over [from, to]. The opening
// balance is the signed sum of all posted lines strictly before from; each row
// advances the running balance by the account's normal-side delta.
func (s *Service) ForAccount(ctx context.Context, code string, from, to time.Time) (AccountLedger, error) {
	if from.After(to) {
		return AccountLedger{}, ErrEmptyRange
	}
	account, err := s.registry.GetByCode(ctx, code)
	if err != nil {
		return AccountLedger{}, err
	}
	openDebit, openCredit, err := s.reader.OpeningSums(ctx, account.ID, from)
	if err != nil {
		return AccountLedger{}, err
	}
	opening := accounts.SignedAmount(account.Type, openDebit, openCredit)
	rows, err := s.reader.LedgerRows(ctx, account.ID, from, to)
	if err != nil {
		return AccountLedger{}, err
	}
	balance := opening
	for i := range rows {
		balance = balance.Add(accounts.SignedAmount(account.Type, rows[i].Debit, rows[i].Credit))
		rows[i].Balance = balance
	}
	return AccountLedger{
		Account: account,
		From:    from,
		To:      to,
		Opening: opening,
		Rows:    rows,
		Closing: balance,
	}, nil
}

// TrialBalance aggregates posted activity per account as of a date. A
// consistent ledger always sums to zero across debits and credits; a nonzero
// difference is an integrity fault and is surfaced, never corrected.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	rows, err := s.reader.TrialBalanceRows(ctx, asOf)
	if err != nil {
		return TrialBalance{}, err
	}
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, row := range rows {
		totalDebit = totalDebit.Add(row.Debit)
		totalCredit = totalCredit.Add(row.Credit)
	}
	if !totalDebit.Equal(totalCredit) {
		s.log.Error("trial balance out of balance",
			"as_of", asOf.Format("2006-01-02"),
			"total_debit", totalDebit.StringFixed(2),
			"total_credit", totalCredit.StringFixed(2),
		)
		if s.metrics != nil {
			s.metrics.RecordIntegrityFault()
		}
	}
	return TrialBalance{
		AsOf:        asOf,
		Rows:        rows,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
	}, nil
}
