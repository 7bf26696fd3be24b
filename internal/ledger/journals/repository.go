package journals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbook-app/finbook/internal/ledger/shared"
	"github.com/finbook-app/finbook/internal/platform/db"
)

// Repository encapsulates DB operations for the journal.
type Repository interface {
	Get(ctx context.Context, tenantID, transactionID uuid.UUID) (Transaction, error)
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Transaction, error)
	WithTx(ctx context.Context, fn func(context.Context, TxPoster) error) error
}

// TxPoster commits balanced journal entries inside an open transaction.
// It is the only code path that writes journal_entries: documents and
// payments obtain a TxPoster bound to their own pg transaction instead
// of inserting entries themselves.
type TxPoster interface {
	PostJournal(ctx context.Context, in PostingInput) (Transaction, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, tenantID, transactionID uuid.UUID) (Transaction, error) {
	var txn Transaction
	err := r.db.QueryRow(ctx, `SELECT id, tenant_id, date, description, vendor_id, total_amount, created_at
FROM transactions WHERE tenant_id=$1 AND id=$2`, tenantID, transactionID).
		Scan(&txn.ID, &txn.TenantID, &txn.Date, &txn.Description, &txn.VendorID, &txn.TotalAmount, &txn.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, shared.ErrNotFound
		}
		return Transaction{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, transaction_id, account_id, debit, credit, date
FROM journal_entries WHERE transaction_id=$1 ORDER BY created_at, id`, transactionID)
	if err != nil {
		return Transaction{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.TransactionID, &e.AccountID, &e.Debit, &e.Credit, &e.Date); err != nil {
			return Transaction{}, err
		}
		txn.Entries = append(txn.Entries, e)
	}
	return txn, rows.Err()
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, date, description, vendor_id, total_amount, created_at
FROM transactions WHERE tenant_id=$1 ORDER BY date DESC, created_at DESC LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		var txn Transaction
		if err := rows.Scan(&txn.ID, &txn.TenantID, &txn.Date, &txn.Description, &txn.VendorID, &txn.TotalAmount, &txn.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxPoster) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, NewTxPoster(tx))
	})
}

type txPoster struct {
	tx pgx.Tx
}

// NewTxPoster binds the poster to an open pg transaction. Callers owning
// a wider unit of work (document creation, payment allocation) pass
// their transaction here so the posting commits or rolls back with it.
func NewTxPoster(tx pgx.Tx) TxPoster {
	return &txPoster{tx: tx}
}

func (p *txPoster) PostJournal(ctx context.Context, in PostingInput) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}
	if err := p.resolveAccounts(ctx, in); err != nil {
		return Transaction{}, err
	}
	now := time.Now()
	txn := Transaction{
		ID:          uuid.New(),
		TenantID:    in.TenantID,
		Date:        in.Date,
		Description: in.Description,
		VendorID:    in.VendorID,
		TotalAmount: in.TotalDebit(),
		CreatedAt:   now,
	}
	if _, err := p.tx.Exec(ctx, `INSERT INTO transactions (id, tenant_id, date, description, vendor_id, total_amount, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, txn.ID, txn.TenantID, txn.Date, txn.Description, txn.VendorID, txn.TotalAmount, txn.CreatedAt); err != nil {
		return Transaction{}, err
	}
	for _, line := range in.Lines {
		entry := JournalEntry{
			ID:            uuid.New(),
			TenantID:      in.TenantID,
			TransactionID: txn.ID,
			AccountID:     line.AccountID,
			Debit:         shared.Round2(line.Debit),
			Credit:        shared.Round2(line.Credit),
			Date:          in.Date,
		}
		if _, err := p.tx.Exec(ctx, `INSERT INTO journal_entries (id, tenant_id, transaction_id, account_id, debit, credit, date, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, entry.ID, entry.TenantID, entry.TransactionID, entry.AccountID, entry.Debit, entry.Credit, entry.Date, now); err != nil {
			return Transaction{}, err
		}
		txn.Entries = append(txn.Entries, entry)
	}
	return txn, nil
}

// resolveAccounts checks every referenced account belongs to the tenant
// before anything is written.
func (p *txPoster) resolveAccounts(ctx context.Context, in PostingInput) error {
	ids := make([]uuid.UUID, 0, len(in.Lines))
	seen := make(map[uuid.UUID]struct{}, len(in.Lines))
	for _, line := range in.Lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}
	var count int
	err := p.tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE tenant_id=$1 AND id = ANY($2)`, in.TenantID, ids).Scan(&count)
	if err != nil {
		return err
	}
	if count != len(ids) {
		return shared.ErrNotFound
	}
	return nil
}
