// Package jobs defines the background tasks processed by the worker.
package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrityScan recomputes per-transaction debit/credit sums
	// and reports any drift.
	TaskLedgerIntegrityScan = "ledger:integrity_scan"
	// TaskBalancesWarmup precomputes balance reports into the cache.
	TaskBalancesWarmup = "balances:warmup"
)

// IntegrityScanPayload scopes an integrity scan. A nil tenant scans all
// tenants.
type IntegrityScanPayload struct {
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
}

// NewIntegrityScanTask constructs an integrity scan task.
func NewIntegrityScanTask(payload IntegrityScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrityScan, data), nil
}

// BalancesWarmupPayload scopes a cache warmup. A nil tenant warms every
// tenant with at least one account.
type BalancesWarmupPayload struct {
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
}

// NewBalancesWarmupTask constructs a warmup task.
func NewBalancesWarmupTask(payload BalancesWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBalancesWarmup, data), nil
}
