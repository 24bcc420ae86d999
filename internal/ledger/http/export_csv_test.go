package http

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
)

func amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestWriteAccountLedgerCSV(t *testing.T) {
	report := reports.AccountLedger{
		Account: accounts.Account{Code: "10000", Name: "Cash", Type: accounts.AccountTypeAsset},
		From:    time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC),
		Opening: amount(t, "0"),
		Rows: []reports.LedgerRow{
			{
				Date:        time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
				Number:      "JE-000001",
				Description: "Owner contribution",
				Debit:       amount(t, "50000.00"),
				Credit:      decimal.Zero,
				Balance:     amount(t, "50000.00"),
			},
			{
				Date:        time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC),
				Number:      "JE-000002",
				Description: "Cash sale",
				Memo:        "invoice 44",
				Debit:       amount(t, "12500.00"),
				Credit:      decimal.Zero,
				Balance:     amount(t, "62500.00"),
			},
		},
		Closing: amount(t, "62500.00"),
	}

	var buf bytes.Buffer
	if err := writeAccountLedgerCSV(&buf, report); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "# Report: Account Ledger 10000 Cash" {
		t.Fatalf("title = %q", lines[0])
	}
	if lines[1] != "# Range: 2026-01-01 .. 2026-01-31 | Opening: 0.00" {
		t.Fatalf("range = %q", lines[1])
	}
	if lines[2] != "Date,Entry,Description,Memo,Debit,Credit,Balance" {
		t.Fatalf("header = %q", lines[2])
	}
	if lines[4] != "2026-01-20,JE-000002,Cash sale,invoice 44,12500.00,0.00,62500.00" {
		t.Fatalf("data row = %q", lines[4])
	}
	if lines[5] != ",,Closing Balance,,,,62500.00" {
		t.Fatalf("closing row = %q", lines[5])
	}
}

func TestWriteTrialBalanceCSV(t *testing.T) {
	report := reports.TrialBalance{
		AsOf: time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
		Rows: []reports.TrialBalanceRow{
			{AccountCode: "10000", AccountName: "Cash", AccountType: accounts.AccountTypeAsset, Debit: amount(t, "59500.00"), Credit: decimal.Zero},
			{AccountCode: "30000", AccountName: "Owner Equity", AccountType: accounts.AccountTypeEquity, Debit: decimal.Zero, Credit: amount(t, "50000.00")},
			{AccountCode: "40000", AccountName: "Sales Revenue", AccountType: accounts.AccountTypeRevenue, Debit: decimal.Zero, Credit: amount(t, "12500.00")},
			{AccountCode: "60000", AccountName: "Rent Expense", AccountType: accounts.AccountTypeExpense, Debit: amount(t, "3000.00"), Credit: decimal.Zero},
		},
		TotalDebit:  amount(t, "62500.00"),
		TotalCredit: amount(t, "62500.00"),
	}

	var buf bytes.Buffer
	if err := writeTrialBalanceCSV(&buf, report); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "# Report: Trial Balance as of 2026-02-28" {
		t.Fatalf("title = %q", lines[0])
	}
	if lines[1] != "Account Code,Account Name,Type,Debit,Credit" {
		t.Fatalf("header = %q", lines[1])
	}
	if lines[3] != "30000,Owner Equity,EQUITY,0.00,50000.00" {
		t.Fatalf("equity row = %q", lines[3])
	}
	if lines[6] != "Totals,,,62500.00,62500.00" {
		t.Fatalf("totals row = %q", lines[6])
	}
}
