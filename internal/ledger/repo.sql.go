package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists journal entries and lines.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside a posting transaction.
type TxRepository interface {
	InsertEntry(ctx context.Context, in EntryInput, status EntryStatus, postedAt *time.Time) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID uuid.UUID, lines []LineInput) error
	GetEntryForUpdate(ctx context.Context, entryID uuid.UUID) (JournalEntry, []JournalLine, error)
	MarkPosted(ctx context.Context, entryID uuid.UUID, at time.Time) (bool, error)
	MarkVoided(ctx context.Context, entryID uuid.UUID, reason string, at time.Time) (bool, error)
	MissingAccounts(ctx context.Context, ids []int64) ([]int64, error)
	// LockPeriod materializes the fiscal period row if it does not exist yet
	// (with the caller-resolved implicit status) and locks it, so the CLOSED
	// flag is read transactionally at posting time and a concurrent first-time
	// close contends on the same row instead of slipping past.
	LockPeriod(ctx context.Context, year int, month time.Month, implicit periods.Status) (periods.Period, error)
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("ledger: repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		if db.IsSerializationFailure(err) {
			return ErrConcurrencyConflict
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if db.IsSerializationFailure(err) {
			return ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

type txRepository struct {
	tx pgx.Tx
}

const entryColumns = `id, number, entry_date, description, reference, status, created_by, created_at, posted_at, void_reason, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.Number, &e.Date, &e.Description, &e.Reference, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.PostedAt, &e.VoidReason, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	return e, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, in EntryInput, status EntryStatus, postedAt *time.Time) (JournalEntry, error) {
	id := uuid.New()
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (id, entry_date, description, reference, status, created_by, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+entryColumns,
		id, in.Date, in.Description, in.Reference, status, in.CreatedBy, postedAt)
	return scanEntry(row)
}

func (r *txRepository) InsertLines(ctx context.Context, entryID uuid.UUID, lines []LineInput) error {
	for idx, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, line_no, account_id, debit, credit, memo)
VALUES ($1,$2,$3,$4,$5,$6)`, entryID, idx+1, line.AccountID, toNumeric(line.Debit), toNumeric(line.Credit), line.Memo); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, entryID uuid.UUID) (JournalEntry, []JournalLine, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, entryID))
	if err != nil {
		return JournalEntry{}, nil, err
	}
	lines, err := queryLines(ctx, r.tx, entryID)
	if err != nil {
		return JournalEntry{}, nil, err
	}
	return entry, lines, nil
}

func (r *txRepository) MarkPosted(ctx context.Context, entryID uuid.UUID, at time.Time) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='POSTED', posted_at=$2, updated_at=NOW()
WHERE id=$1 AND status='DRAFT'`, entryID, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *txRepository) MarkVoided(ctx context.Context, entryID uuid.UUID, reason string, at time.Time) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='VOIDED', void_reason=$2, updated_at=$3
WHERE id=$1 AND status='POSTED'`, entryID, reason, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *txRepository) MissingAccounts(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := r.tx.Query(ctx, `SELECT id FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *txRepository) LockPeriod(ctx context.Context, year int, month time.Month, implicit periods.Status) (periods.Period, error) {
	// A period that was never created has no row, and FOR UPDATE on nothing
	// locks nothing: a first-time close could then commit concurrently with
	// this posting. Materialize the row with its implicit status first so both
	// sides always contend on the same lock. Under repeatable read the loser
	// of that insert race gets a serialization failure, mapped to
	// ErrConcurrencyConflict by WithTx.
	if _, err := r.tx.Exec(ctx, `INSERT INTO fiscal_periods (year, month, status) VALUES ($1,$2,$3)
ON CONFLICT (year, month) DO NOTHING`, year, int(month), implicit); err != nil {
		return periods.Period{}, err
	}
	// Same query as the periods repository, duplicated here because it must
	// run on this transaction's connection.
	var p periods.Period
	var m int
	err := r.tx.QueryRow(ctx, `SELECT year, month, status, closed_at, COALESCE(closed_by,''), reopened_at, COALESCE(reopened_by,''), created_at, updated_at
FROM fiscal_periods WHERE year=$1 AND month=$2 FOR UPDATE`, year, int(month)).
		Scan(&p.Year, &m, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.ReopenedAt, &p.ReopenedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return periods.Period{}, err
	}
	p.Month = time.Month(m)
	return p, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q queryer, entryID uuid.UUID) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, line_no, account_id, debit::text, credit::text, memo
FROM journal_lines WHERE entry_id=$1 ORDER BY line_no ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		var debit, credit string
		if err := rows.Scan(&line.ID, &line.EntryID, &line.LineNo, &line.AccountID, &debit, &credit, &line.Memo); err != nil {
			return nil, err
		}
		if line.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("ledger: corrupt debit on line %d: %w", line.ID, err)
		}
		if line.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("ledger: corrupt credit on line %d: %w", line.ID, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Get loads an entry with its lines outside any transaction.
func (r *Repository) Get(ctx context.Context, entryID uuid.UUID) (JournalEntry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID))
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines, err = queryLines(ctx, r.pool, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// Find returns entries matching the filter, ordered by entry date then entry
// number so paginated reports stay deterministic. Lines are not loaded.
func (r *Repository) Find(ctx context.Context, filter Filter) ([]JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		query += ` AND status=` + arg(filter.Status)
	}
	if !filter.From.IsZero() {
		query += ` AND entry_date >= ` + arg(filter.From)
	}
	if !filter.To.IsZero() {
		query += ` AND entry_date <= ` + arg(filter.To)
	}
	if filter.AccountID != 0 {
		query += ` AND EXISTS (SELECT 1 FROM journal_lines l WHERE l.entry_id = journal_entries.id AND l.account_id = ` + arg(filter.AccountID) + `)`
	}
	if filter.ReferenceContains != "" {
		query += ` AND reference ILIKE '%' || ` + arg(filter.ReferenceContains) + ` || '%'`
	}
	query += ` ORDER BY entry_date, number`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.Number, &e.Date, &e.Description, &e.Reference, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.PostedAt, &e.VoidReason, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func toNumeric(v decimal.Decimal) any {
	return v.StringFixed(2)
}
