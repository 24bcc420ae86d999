package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// Repository runs the read-only aggregation queries behind the reports. All
// queries restrict to entries with status POSTED.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func parseAmount(s, what string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reports: corrupt %s amount: %w", what, err)
	}
	return v, nil
}

// OpeningSums totals debits and credits on an account strictly before from.
func (r *Repository) OpeningSums(ctx context.Context, accountID int64, from time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit),0)::text, COALESCE(SUM(l.credit),0)::text
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status = 'POSTED' AND l.account_id = $1 AND e.entry_date < $2`, accountID, from).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	d, err := parseAmount(debit, "debit")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	c, err := parseAmount(credit, "credit")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return d, c, nil
}

// LedgerRows returns posted lines for an account inside [from, to], ordered by
// entry date then entry number so the running balance is deterministic.
func (r *Repository) LedgerRows(ctx context.Context, accountID int64, from, to time.Time) ([]LedgerRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT e.id, e.number, e.entry_date, e.description, l.memo, l.debit::text, l.credit::text
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status = 'POSTED' AND l.account_id = $1 AND e.entry_date >= $2 AND e.entry_date <= $3
ORDER BY e.entry_date, e.number, l.line_no`, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerRow
	for rows.Next() {
		var row LedgerRow
		var number int64
		var debit, credit string
		if err := rows.Scan(&row.EntryID, &number, &row.Date, &row.Description, &row.Memo, &debit, &credit); err != nil {
			return nil, err
		}
		row.Number = ledger.FormatEntryNumber(number)
		if row.Debit, err = parseAmount(debit, "debit"); err != nil {
			return nil, err
		}
		if row.Credit, err = parseAmount(credit, "credit"); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// TrialBalanceRows aggregates posted activity per account up to and including
// asOf. Accounts with no posted lines are omitted.
func (r *Repository) TrialBalanceRows(ctx context.Context, asOf time.Time) ([]TrialBalanceRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.code, a.name, a.type, COALESCE(SUM(l.debit),0)::text, COALESCE(SUM(l.credit),0)::text
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.status = 'POSTED' AND e.entry_date <= $1
GROUP BY a.id, a.code, a.name, a.type
ORDER BY a.code`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrialBalanceRows(rows)
}

func scanTrialBalanceRows(rows pgx.Rows) ([]TrialBalanceRow, error) {
	var out []TrialBalanceRow
	for rows.Next() {
		var row TrialBalanceRow
		var debit, credit string
		if err := rows.Scan(&row.AccountID, &row.AccountCode, &row.AccountName, &row.AccountType, &debit, &credit); err != nil {
			return nil, err
		}
		var err error
		if row.Debit, err = parseAmount(debit, "debit"); err != nil {
			return nil, err
		}
		if row.Credit, err = parseAmount(credit, "credit"); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
