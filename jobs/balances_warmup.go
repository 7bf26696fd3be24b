package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbook-app/finbook/internal/ledger/balances"
	"github.com/finbook-app/finbook/internal/observability"
)

// BalancesWarmupJob precomputes the balance report so the first dashboard
// request after an invalidation hits a warm cache.
type BalancesWarmupJob struct {
	Balances *balances.Service
	Pool     *pgxpool.Pool
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

func NewBalancesWarmupJob(balancesSvc *balances.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *observability.Metrics) *BalancesWarmupJob {
	return &BalancesWarmupJob{Balances: balancesSvc, Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle processes warmup tasks.
func (j *BalancesWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Balances == nil || j.Pool == nil {
		return errors.New("balances warmup: handler not configured")
	}
	var payload BalancesWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tenants, err := j.tenants(ctx, payload.TenantID)
	if err != nil {
		j.Metrics.JobRun(TaskBalancesWarmup, "error")
		return err
	}

	warmed := 0
	for _, tenantID := range tenants {
		if _, err := j.Balances.Balances(ctx, tenantID, ""); err != nil {
			j.logger().Warn("balance warmup failed",
				slog.String("tenant_id", tenantID.String()),
				slog.Any("error", err))
			continue
		}
		warmed++
	}
	j.Metrics.JobRun(TaskBalancesWarmup, "ok")
	j.logger().Info("balance warmup finished",
		slog.Int("tenants", len(tenants)),
		slog.Int("warmed", warmed))
	return nil
}

func (j *BalancesWarmupJob) tenants(ctx context.Context, tenantID *uuid.UUID) ([]uuid.UUID, error) {
	if tenantID != nil {
		return []uuid.UUID{*tenantID}, nil
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT tenant_id FROM accounts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (j *BalancesWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
