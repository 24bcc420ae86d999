// Package jobs contains the asynq background tasks: the nightly general
// ledger integrity scan and the trial balance cache warmup.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity verifies every POSTED entry balances and the trial
	// balance sums to zero.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskTrialBalanceWarmup precomputes the current trial balance into the
	// report cache.
	TaskTrialBalanceWarmup = "ledger:tb_warmup"
)

// IntegrityScanPayload bounds the integrity scan to entries dated on or after
// the cutoff; empty means the full ledger.
type IntegrityScanPayload struct {
	Since string `json:"since,omitempty"`
}

// NewIntegrityScanTask constructs the integrity scan task.
func NewIntegrityScanTask(payload IntegrityScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}

// WarmupPayload selects the as-of date for the warmed trial balance; empty
// means today.
type WarmupPayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// NewTrialBalanceWarmupTask constructs the warmup task.
func NewTrialBalanceWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrialBalanceWarmup, data), nil
}
