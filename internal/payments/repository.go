package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbook-app/finbook/internal/ledger/accounts"
	"github.com/finbook-app/finbook/internal/ledger/journals"
	"github.com/finbook-app/finbook/internal/ledger/shared"
	"github.com/finbook-app/finbook/internal/platform/db"
)

// Repository encapsulates DB operations for payments.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]Payment, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a payment transaction.
// The ForUpdate getters take a row lock on the target document so the
// remaining-balance check and the paid_amount update cannot interleave
// with a concurrent payment.
type TxRepository interface {
	GetInvoiceForUpdate(ctx context.Context, tenantID, invoiceID uuid.UUID) (DocumentState, error)
	GetBillForUpdate(ctx context.Context, tenantID, billID uuid.UUID) (DocumentState, error)
	ApplyInvoicePayment(ctx context.Context, invoiceID uuid.UUID, amount float64) error
	ApplyBillPayment(ctx context.Context, billID uuid.UUID, amount float64) error
	InsertPayment(ctx context.Context, payment Payment) error
	AccountType(ctx context.Context, tenantID, accountID uuid.UUID) (accounts.AccountType, error)
	SystemAccount(ctx context.Context, tenantID uuid.UUID, code string) (uuid.UUID, error)
	Ledger() journals.TxPoster
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, payment_type, invoice_id, bill_id, amount, payment_method, payment_account_id, date, reference, notes, created_at
FROM payments WHERE tenant_id=$1 ORDER BY date DESC, created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Type, &p.InvoiceID, &p.BillID, &p.Amount, &p.Method, &p.PaymentAccountID, &p.Date, &p.Reference, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// WithTx runs fn in a serializable transaction. Payment allocation is
// the one read-modify-write race in the engine, so it gets the strictest
// isolation plus an explicit row lock.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithSerializableTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
	if err != nil && IsSerializationFailure(err) {
		return shared.ErrConcurrencyConflict
	}
	return err
}

// IsSerializationFailure reports whether the error is a Postgres
// serialization or deadlock failure, both safe to retry from scratch.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Ledger() journals.TxPoster {
	return journals.NewTxPoster(r.tx)
}

func (r *txRepository) GetInvoiceForUpdate(ctx context.Context, tenantID, invoiceID uuid.UUID) (DocumentState, error) {
	var state DocumentState
	err := r.tx.QueryRow(ctx, `SELECT id, total_amount, paid_amount, posted_at
FROM invoices WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, invoiceID).
		Scan(&state.ID, &state.TotalAmount, &state.PaidAmount, &state.PostedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DocumentState{}, shared.ErrNotFound
		}
		return DocumentState{}, err
	}
	return state, nil
}

func (r *txRepository) GetBillForUpdate(ctx context.Context, tenantID, billID uuid.UUID) (DocumentState, error) {
	var state DocumentState
	err := r.tx.QueryRow(ctx, `SELECT id, total_amount, paid_amount, posted_at
FROM bills WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, billID).
		Scan(&state.ID, &state.TotalAmount, &state.PaidAmount, &state.PostedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DocumentState{}, shared.ErrNotFound
		}
		return DocumentState{}, err
	}
	return state, nil
}

func (r *txRepository) ApplyInvoicePayment(ctx context.Context, invoiceID uuid.UUID, amount float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET paid_amount = paid_amount + $2, updated_at = NOW() WHERE id=$1`, invoiceID, amount)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) ApplyBillPayment(ctx context.Context, billID uuid.UUID, amount float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE bills SET paid_amount = paid_amount + $2, updated_at = NOW() WHERE id=$1`, billID, amount)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertPayment(ctx context.Context, payment Payment) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO payments (id, tenant_id, payment_type, invoice_id, bill_id, amount, payment_method, payment_account_id, date, reference, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		payment.ID, payment.TenantID, payment.Type, payment.InvoiceID, payment.BillID, payment.Amount,
		payment.Method, payment.PaymentAccountID, payment.Date, payment.Reference, payment.Notes, payment.CreatedAt)
	return err
}

func (r *txRepository) AccountType(ctx context.Context, tenantID, accountID uuid.UUID) (accounts.AccountType, error) {
	var accType accounts.AccountType
	err := r.tx.QueryRow(ctx, `SELECT type FROM accounts WHERE tenant_id=$1 AND id=$2`, tenantID, accountID).Scan(&accType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return accType, nil
}

func (r *txRepository) SystemAccount(ctx context.Context, tenantID uuid.UUID, code string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.tx.QueryRow(ctx, `SELECT id FROM accounts WHERE tenant_id=$1 AND code=$2`, tenantID, code).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return id, nil
}
