// Package audit persists before/after snapshots of every mutating
// operation so any ledger change can be reconstructed later.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry represents a record stored in audit_logs.
type Entry struct {
	TenantID  uuid.UUID
	ActorID   uuid.UUID
	Table     string
	RecordID  string
	Action    string
	OldValues map[string]any
	NewValues map[string]any
	At        time.Time
}

// Port is implemented by the recorder and consumed by every mutating
// service. Writes are best-effort relative to the primary mutation.
type Port interface {
	Record(ctx context.Context, entry Entry) error
}

// Recorder writes audit entries to Postgres. A failed write never rolls
// back the mutation it describes; it is logged and counted instead.
type Recorder struct {
	pool      *pgxpool.Pool
	logger    *slog.Logger
	onFailure func()
}

func NewRecorder(pool *pgxpool.Pool, logger *slog.Logger) *Recorder {
	return &Recorder{pool: pool, logger: logger}
}

// OnFailure registers a hook invoked whenever an audit write fails,
// typically a metrics counter.
func (r *Recorder) OnFailure(fn func()) {
	r.onFailure = fn
}

// Record persists the entry.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if r == nil || r.pool == nil {
		return errors.New("audit: recorder not initialised")
	}
	err := r.record(ctx, entry)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("audit write failed",
				slog.String("table", entry.Table),
				slog.String("record_id", entry.RecordID),
				slog.String("action", entry.Action),
				slog.Any("error", err))
		}
		if r.onFailure != nil {
			r.onFailure()
		}
	}
	return err
}

func (r *Recorder) record(ctx context.Context, entry Entry) error {
	if entry.Table == "" || entry.RecordID == "" || entry.Action == "" {
		return errors.New("audit: entry requires table/record_id/action")
	}
	oldJSON, err := marshalValues(entry.OldValues)
	if err != nil {
		return err
	}
	newJSON, err := marshalValues(entry.NewValues)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO audit_logs (id, tenant_id, actor_id, table_name, record_id, action, old_values, new_values, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))`,
		uuid.New(), entry.TenantID, entry.ActorID, entry.Table, entry.RecordID, entry.Action, oldJSON, newJSON, entry.At)
	return err
}

func marshalValues(values map[string]any) (any, error) {
	if values == nil {
		return nil, nil
	}
	return json.Marshal(values)
}
