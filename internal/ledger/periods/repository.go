package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

const periodColumns = `year, month, status, closed_at, COALESCE(closed_by,''), reopened_at, COALESCE(reopened_by,''), created_at, updated_at`

// Repository persists fiscal period rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrConcurrencyConflict indicates the transaction lost a serialization race
// against a concurrent posting or close; the caller may retry.
var ErrConcurrencyConflict = errors.New("periods: concurrent update conflict")

// WithTx executes fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	if r == nil || r.pool == nil {
		return errors.New("periods: repository not initialised")
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
	if db.IsSerializationFailure(err) {
		return ErrConcurrencyConflict
	}
	return err
}

func scanPeriod(row pgx.Row) (Period, bool, error) {
	var p Period
	var month int
	err := row.Scan(&p.Year, &month, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.ReopenedAt, &p.ReopenedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, false, nil
		}
		return Period{}, false, err
	}
	p.Month = time.Month(month)
	return p, true, nil
}

// Get loads a period row; found is false when the period was never created.
func (r *Repository) Get(ctx context.Context, year int, month time.Month) (Period, bool, error) {
	return scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE year=$1 AND month=$2`, year, int(month)))
}

// LockPeriod materializes the period row if it was never created (with the
// caller-resolved implicit status) and locks it. Close and posting both go
// through this materialize-then-lock sequence, so a first-time close and a
// posting into the same undefined period always contend on one row.
func (r *Repository) LockPeriod(ctx context.Context, tx pgx.Tx, year int, month time.Month, implicit Status) (Period, error) {
	if _, err := tx.Exec(ctx, `INSERT INTO fiscal_periods (year, month, status) VALUES ($1,$2,$3)
ON CONFLICT (year, month) DO NOTHING`, year, int(month), implicit); err != nil {
		return Period{}, err
	}
	period, found, err := scanPeriod(tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE year=$1 AND month=$2 FOR UPDATE`, year, int(month)))
	if err != nil {
		return Period{}, err
	}
	if !found {
		return Period{}, pgx.ErrNoRows
	}
	return period, nil
}

// List returns all stored periods ordered chronologically.
func (r *Repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods ORDER BY year, month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var periods []Period
	for rows.Next() {
		var p Period
		var month int
		if err := rows.Scan(&p.Year, &month, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.ReopenedAt, &p.ReopenedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Month = time.Month(month)
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// SetClosed flips the locked period row to CLOSED. The row is guaranteed to
// exist because every close goes through LockPeriod first.
func (r *Repository) SetClosed(ctx context.Context, tx pgx.Tx, year int, month time.Month, actor string, at time.Time) error {
	cmd, err := tx.Exec(ctx, `UPDATE fiscal_periods SET status='CLOSED', closed_at=$3, closed_by=$4, updated_at=NOW()
WHERE year=$1 AND month=$2`, year, int(month), at, actor)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetOpen reopens an existing period row.
func (r *Repository) SetOpen(ctx context.Context, tx pgx.Tx, year int, month time.Month, actor string, at time.Time) error {
	cmd, err := tx.Exec(ctx, `UPDATE fiscal_periods SET status='OPEN', reopened_at=$3, reopened_by=$4, updated_at=NOW()
WHERE year=$1 AND month=$2`, year, int(month), at, actor)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountDraftEntries counts DRAFT journal entries dated inside [from, to).
func (r *Repository) CountDraftEntries(ctx context.Context, tx pgx.Tx, from, to time.Time) (int64, error) {
	var count int64
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE status='DRAFT' AND entry_date >= $1 AND entry_date < $2`, from, to).Scan(&count)
	return count, err
}
