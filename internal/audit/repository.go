package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the Postgres-backed timeline reader.
func NewRepository(db *pgxpool.Pool) TimelineRepository {
	return &repository{db: db}
}

func (r *repository) TimelineWindow(ctx context.Context, tenantID uuid.UUID, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	rows, err := r.db.Query(ctx, `SELECT id, actor_id, table_name, record_id, action, old_values, new_values, created_at
FROM audit_logs
WHERE tenant_id=$1
  AND ($2 = '' OR table_name = $2)
  AND ($3 = '' OR action = $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`, tenantID, filters.Table, filters.Action, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var oldRaw, newRaw []byte
		if err := rows.Scan(&row.ID, &row.ActorID, &row.Table, &row.RecordID, &row.Action, &oldRaw, &newRaw, &row.At); err != nil {
			return nil, err
		}
		if len(oldRaw) > 0 {
			_ = json.Unmarshal(oldRaw, &row.OldValues)
		}
		if len(newRaw) > 0 {
			_ = json.Unmarshal(newRaw, &row.NewValues)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
