package reports

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

type stubReader struct {
	openDebit  decimal.Decimal
	openCredit decimal.Decimal
	rows       []LedgerRow
	tbRows     []TrialBalanceRow
}

func (s *stubReader) OpeningSums(ctx context.Context, accountID int64, from time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return s.openDebit, s.openCredit, nil
}

func (s *stubReader) LedgerRows(ctx context.Context, accountID int64, from, to time.Time) ([]LedgerRow, error) {
	return s.rows, nil
}

func (s *stubReader) TrialBalanceRows(ctx context.Context, asOf time.Time) ([]TrialBalanceRow, error) {
	return s.tbRows, nil
}

type stubRegistry struct {
	account accounts.Account
}

func (s *stubRegistry) GetByCode(ctx context.Context, code string) (accounts.Account, error) {
	if code != s.account.Code {
		return accounts.Account{}, accounts.ErrNotFound
	}
	return s.account, nil
}

type faultCounter struct{ faults int }

func (f *faultCounter) RecordIntegrityFault() { f.faults++ }

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestForAccountRunningBalance(t *testing.T) {
	reader := &stubReader{
		openDebit:  dec(t, "500.00"),
		openCredit: dec(t, "100.00"),
		rows: []LedgerRow{
			{Number: "JE-000001", Debit: dec(t, "250.00"), Credit: decimal.Zero},
			{Number: "JE-000002", Debit: decimal.Zero, Credit: dec(t, "75.00")},
		},
	}
	registry := &stubRegistry{account: accounts.Account{ID: 1, Code: "10000", Name: "Cash", Type: accounts.AccountTypeAsset}}
	svc := NewService(reader, registry, slog.Default())

	from := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	ledger, err := svc.ForAccount(context.Background(), "10000", from, to)
	if err != nil {
		t.Fatalf("ForAccount: %v", err)
	}
	if !ledger.Opening.Equal(dec(t, "400.00")) {
		t.Fatalf("opening = %s", ledger.Opening)
	}
	if !ledger.Rows[0].Balance.Equal(dec(t, "650.00")) {
		t.Fatalf("row 1 balance = %s", ledger.Rows[0].Balance)
	}
	if !ledger.Rows[1].Balance.Equal(dec(t, "575.00")) {
		t.Fatalf("row 2 balance = %s", ledger.Rows[1].Balance)
	}
	if !ledger.Closing.Equal(dec(t, "575.00")) {
		t.Fatalf("closing = %s", ledger.Closing)
	}
}

// A credit-normal account nets to zero after a contribution and its reversal.
func TestForAccountCreditNormalReversalNetsToZero(t *testing.T) {
	reader := &stubReader{
		rows: []LedgerRow{
			{Number: "JE-000010", Description: "Owner contribution", Debit: decimal.Zero, Credit: dec(t, "50000.00")},
			{Number: "JE-000011", Description: "Reversal of JE-000010", Debit: dec(t, "50000.00"), Credit: decimal.Zero},
		},
	}
	registry := &stubRegistry{account: accounts.Account{ID: 5, Code: "30000", Name: "Owner Equity", Type: accounts.AccountTypeEquity}}
	svc := NewService(reader, registry, slog.Default())

	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	ledger, err := svc.ForAccount(context.Background(), "30000", from, to)
	if err != nil {
		t.Fatalf("ForAccount: %v", err)
	}
	if !ledger.Rows[0].Balance.Equal(dec(t, "50000.00")) {
		t.Fatalf("balance after contribution = %s", ledger.Rows[0].Balance)
	}
	if !ledger.Closing.IsZero() {
		t.Fatalf("closing should net to zero, got %s", ledger.Closing)
	}
}

func TestForAccountEmptyRange(t *testing.T) {
	svc := NewService(&stubReader{}, &stubRegistry{}, slog.Default())
	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.ForAccount(context.Background(), "10000", from, to); !errors.Is(err, ErrEmptyRange) {
		t.Fatalf("got %v, want ErrEmptyRange", err)
	}
}

func TestForAccountUnknownCode(t *testing.T) {
	registry := &stubRegistry{account: accounts.Account{Code: "10000"}}
	svc := NewService(&stubReader{}, registry, slog.Default())
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.ForAccount(context.Background(), "99999", from, from); !errors.Is(err, accounts.ErrNotFound) {
		t.Fatalf("got %v, want accounts.ErrNotFound", err)
	}
}

func TestTrialBalanceTotals(t *testing.T) {
	reader := &stubReader{tbRows: []TrialBalanceRow{
		{AccountCode: "10000", Debit: dec(t, "62500.00"), Credit: dec(t, "3000.00")},
		{AccountCode: "30000", Debit: decimal.Zero, Credit: dec(t, "50000.00")},
		{AccountCode: "40000", Debit: decimal.Zero, Credit: dec(t, "12500.00")},
		{AccountCode: "60000", Debit: dec(t, "3000.00"), Credit: decimal.Zero},
	}}
	counter := &faultCounter{}
	svc := NewService(reader, &stubRegistry{}, slog.Default())
	svc.WithMetrics(counter)

	tb, err := svc.TrialBalance(context.Background(), time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("TrialBalance: %v", err)
	}
	if !tb.TotalDebit.Equal(dec(t, "65500.00")) || !tb.TotalCredit.Equal(dec(t, "65500.00")) {
		t.Fatalf("totals %s / %s", tb.TotalDebit, tb.TotalCredit)
	}
	if counter.faults != 0 {
		t.Fatalf("balanced report counted %d faults", counter.faults)
	}
}

func TestTrialBalanceSurfacesImbalance(t *testing.T) {
	reader := &stubReader{tbRows: []TrialBalanceRow{
		{AccountCode: "10000", Debit: dec(t, "100.00"), Credit: decimal.Zero},
		{AccountCode: "40000", Debit: decimal.Zero, Credit: dec(t, "99.00")},
	}}
	counter := &faultCounter{}
	svc := NewService(reader, &stubRegistry{}, slog.Default())
	svc.WithMetrics(counter)

	tb, err := svc.TrialBalance(context.Background(), time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("imbalance must be reported, not turned into an error: %v", err)
	}
	if counter.faults != 1 {
		t.Fatalf("faults = %d, want 1", counter.faults)
	}
	// The figures come back untouched.
	if !tb.TotalDebit.Equal(dec(t, "100.00")) || !tb.TotalCredit.Equal(dec(t, "99.00")) {
		t.Fatalf("totals %s / %s", tb.TotalDebit, tb.TotalCredit)
	}
}
