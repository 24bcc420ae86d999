package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
)

// IntegrityMetrics counts detected faults.
type IntegrityMetrics interface {
	RecordIntegrityFault()
}

// IntegrityJob scans the stored ledger for violations a correct engine can
// never produce: POSTED entries whose lines do not balance, and a trial
// balance that does not sum to zero. The scan only reports; it never repairs.
type IntegrityJob struct {
	pool       *pgxpool.Pool
	logger     *slog.Logger
	metrics    IntegrityMetrics
	jobMetrics *jobmetrics.Metrics
}

// NewIntegrityJob constructs the scan job. metrics may be nil.
func NewIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics IntegrityMetrics, jm *jobmetrics.Metrics) *IntegrityJob {
	return &IntegrityJob{pool: pool, logger: logger, metrics: metrics, jobMetrics: jm}
}

func (j *IntegrityJob) fault(msg string, args ...any) {
	j.logger.Error(msg, args...)
	if j.metrics != nil {
		j.metrics.RecordIntegrityFault()
	}
}

// Handle processes a TaskLedgerIntegrity task.
func (j *IntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.jobMetrics.Track("ledger_integrity")
	var payload IntegrityScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	return tracker.End(j.run(ctx, payload))
}

func (j *IntegrityJob) run(ctx context.Context, payload IntegrityScanPayload) error {
	var since time.Time
	if payload.Since != "" {
		parsed, err := time.Parse("2006-01-02", payload.Since)
		if err != nil {
			return asynq.SkipRetry
		}
		since = parsed
	}
	unbalanced, err := j.scanUnbalancedEntries(ctx, since)
	if err != nil {
		return err
	}
	net, err := j.trialBalanceNet(ctx)
	if err != nil {
		return err
	}
	if !net.IsZero() {
		j.fault("trial balance does not sum to zero", slog.String("net", net.StringFixed(2)))
	}
	j.logger.Info("ledger integrity scan finished",
		slog.Int("unbalanced_entries", unbalanced),
		slog.String("net", net.StringFixed(2)),
	)
	return nil
}

func (j *IntegrityJob) scanUnbalancedEntries(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT e.id, e.number, SUM(l.debit)::text, SUM(l.credit)::text
FROM journal_entries e
JOIN journal_lines l ON l.entry_id = e.id
WHERE e.status = 'POSTED' AND ($1::date IS NULL OR e.entry_date >= $1)
GROUP BY e.id, e.number
HAVING SUM(l.debit) <> SUM(l.credit)`
	var sinceArg any
	if !since.IsZero() {
		sinceArg = since
	}
	rows, err := j.pool.Query(ctx, query, sinceArg)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		var id uuid.UUID
		var number int64
		var debit, credit string
		if err := rows.Scan(&id, &number, &debit, &credit); err != nil {
			return count, err
		}
		count++
		j.fault("posted entry does not balance",
			slog.String("entry_id", id.String()),
			slog.Int64("number", number),
			slog.String("debit", debit),
			slog.String("credit", credit),
		)
	}
	return count, rows.Err()
}

func (j *IntegrityJob) trialBalanceNet(ctx context.Context) (decimal.Decimal, error) {
	var net string
	err := j.pool.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit - l.credit),0)::text
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status = 'POSTED'`).Scan(&net)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(net)
}
