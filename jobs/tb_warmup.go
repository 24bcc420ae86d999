package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
)

// WarmupJob precomputes the trial balance into the report cache so the first
// morning request does not pay the aggregation cost.
type WarmupJob struct {
	reporter   *reports.Service
	cache      *cache.JSONCache
	logger     *slog.Logger
	jobMetrics *jobmetrics.Metrics
}

// NewWarmupJob constructs the warmup job. cache may be nil, in which case the
// job only exercises the query path.
func NewWarmupJob(reporter *reports.Service, cache *cache.JSONCache, logger *slog.Logger, jm *jobmetrics.Metrics) *WarmupJob {
	return &WarmupJob{reporter: reporter, cache: cache, logger: logger, jobMetrics: jm}
}

// Handle processes a TaskTrialBalanceWarmup task.
func (j *WarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.jobMetrics.Track("tb_warmup")
	var payload WarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	return tracker.End(j.run(ctx, payload))
}

func (j *WarmupJob) run(ctx context.Context, payload WarmupPayload) error {
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if payload.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", payload.AsOf)
		if err != nil {
			return asynq.SkipRetry
		}
		asOf = parsed
	}
	key, err := j.cache.BuildKey(ctx, "tb:"+asOf.Format("2006-01-02"))
	if err != nil {
		return err
	}
	var warmed reports.TrialBalance
	err = j.cache.FetchJSON(ctx, key, &warmed, func(ctx context.Context) (interface{}, error) {
		return j.reporter.TrialBalance(ctx, asOf)
	})
	if err != nil {
		return err
	}
	j.logger.Info("trial balance warmed",
		slog.String("as_of", asOf.Format("2006-01-02")),
		slog.Int("accounts", len(warmed.Rows)),
	)
	return nil
}
