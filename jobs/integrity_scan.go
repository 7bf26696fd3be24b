package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbook-app/finbook/internal/observability"
)

// IntegrityScanJob recomputes debit and credit sums per transaction and
// reports every transaction whose sides differ by at least one cent.
type IntegrityScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

func NewIntegrityScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *observability.Metrics) *IntegrityScanJob {
	return &IntegrityScanJob{Pool: pool, Logger: logger, Metrics: metrics}
}

type driftRow struct {
	TransactionID uuid.UUID
	TenantID      uuid.UUID
	DebitCents    int64
	CreditCents   int64
}

// Handle processes integrity scan tasks.
func (j *IntegrityScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("integrity scan: handler not configured")
	}
	var payload IntegrityScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	drifted, scanned, err := j.scan(ctx, payload.TenantID)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	j.Metrics.JobRun(TaskLedgerIntegrityScan, outcome)
	if err != nil {
		j.logger().Error("integrity scan failed", slog.Any("error", err))
		return err
	}

	for _, row := range drifted {
		j.Metrics.OutOfBalanceDetected()
		j.logger().Error("transaction out of balance",
			slog.String("transaction_id", row.TransactionID.String()),
			slog.String("tenant_id", row.TenantID.String()),
			slog.Int64("debit_cents", row.DebitCents),
			slog.Int64("credit_cents", row.CreditCents))
	}
	j.logger().Info("integrity scan finished",
		slog.Int("scanned", scanned),
		slog.Int("out_of_balance", len(drifted)))
	return nil
}

func (j *IntegrityScanJob) scan(ctx context.Context, tenantID *uuid.UUID) ([]driftRow, int, error) {
	rows, err := j.Pool.Query(ctx, `SELECT t.id, t.tenant_id,
  COALESCE(SUM(ROUND(e.debit * 100)), 0)::bigint,
  COALESCE(SUM(ROUND(e.credit * 100)), 0)::bigint
FROM transactions t
LEFT JOIN journal_entries e ON e.transaction_id = t.id
WHERE $1::uuid IS NULL OR t.tenant_id = $1
GROUP BY t.id, t.tenant_id`, tenantID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var drifted []driftRow
	scanned := 0
	for rows.Next() {
		var row driftRow
		if err := rows.Scan(&row.TransactionID, &row.TenantID, &row.DebitCents, &row.CreditCents); err != nil {
			return nil, scanned, err
		}
		scanned++
		if row.DebitCents != row.CreditCents {
			drifted = append(drifted, row)
		}
	}
	return drifted, scanned, rows.Err()
}

func (j *IntegrityScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
