package balances

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbook-app/finbook/internal/ledger/accounts"
)

// Repository aggregates committed journal entries per account.
type Repository interface {
	Balances(ctx context.Context, tenantID uuid.UUID, typeFilter accounts.AccountType) ([]AccountBalance, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Balances folds every committed entry into per-account totals. Debit-
// normal types (asset, expense, cogs) report debit minus credit, the
// rest credit minus debit. Draft documents have no entries, so they
// never contribute.
func (r *repository) Balances(ctx context.Context, tenantID uuid.UUID, typeFilter accounts.AccountType) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.code, a.name, a.type,
       COALESCE(SUM(CASE WHEN a.type IN ('asset','expense','cogs')
                         THEN e.debit - e.credit
                         ELSE e.credit - e.debit END), 0) AS balance
FROM accounts a
LEFT JOIN journal_entries e ON e.account_id = a.id
WHERE a.tenant_id = $1 AND ($2 = '' OR a.type = $2)
GROUP BY a.id, a.code, a.name, a.type
ORDER BY a.code`, tenantID, string(typeFilter))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Balance); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
