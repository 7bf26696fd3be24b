package documents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbook-app/finbook/internal/ledger/accounts"
	"github.com/finbook-app/finbook/internal/ledger/journals"
	"github.com/finbook-app/finbook/internal/ledger/shared"
	"github.com/finbook-app/finbook/internal/platform/db"
)

// Repository encapsulates DB operations for invoices, bills and expense
// line items.
type Repository interface {
	GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (Invoice, error)
	ListInvoices(ctx context.Context, tenantID uuid.UUID) ([]Invoice, error)
	GetBill(ctx context.Context, tenantID, billID uuid.UUID) (Bill, error)
	ListBills(ctx context.Context, tenantID uuid.UUID) ([]Bill, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. Ledger()
// returns the journal poster bound to the same transaction so document
// writes and their postings commit or roll back together.
type TxRepository interface {
	CustomerExists(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error)
	VendorExists(ctx context.Context, tenantID, vendorID uuid.UUID) (bool, error)
	EnsureVendorByName(ctx context.Context, tenantID uuid.UUID, name string) (uuid.UUID, error)
	AccountTypes(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]accounts.AccountType, error)
	SystemAccount(ctx context.Context, tenantID uuid.UUID, code string) (uuid.UUID, error)
	TaxRate(ctx context.Context, tenantID uuid.UUID) (float64, bool, error)
	NextDocumentNumber(ctx context.Context, tenantID uuid.UUID, kind string) (int64, error)
	InsertInvoice(ctx context.Context, invoice Invoice) error
	MarkInvoicePosted(ctx context.Context, invoiceID uuid.UUID, at time.Time) error
	InsertBill(ctx context.Context, bill Bill) error
	MarkBillPosted(ctx context.Context, billID uuid.UUID, at time.Time) error
	InsertTransactionItems(ctx context.Context, items []TransactionItem) error
	Ledger() journals.TxPoster
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const invoiceColumns = `id, tenant_id, customer_id, invoice_number, date, due_date, subtotal, tax_amount, total_amount, paid_amount, notes, posted_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.CustomerID, &inv.Number, &inv.Date, &inv.DueDate,
		&inv.Subtotal, &inv.TaxAmount, &inv.TotalAmount, &inv.PaidAmount, &inv.Notes, &inv.PostedAt,
		&inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (r *repository) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id=$1 AND id=$2`, tenantID, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, invoice_id, description, quantity, unit_price, total_amount, revenue_account_id
FROM invoice_lines WHERE invoice_id=$1 ORDER BY created_at, id`, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.Description, &line.Quantity, &line.UnitPrice, &line.TotalAmount, &line.RevenueAccountID); err != nil {
			return Invoice{}, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	return inv, rows.Err()
}

func (r *repository) ListInvoices(ctx context.Context, tenantID uuid.UUID) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id=$1 ORDER BY date DESC, created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

const billColumns = `id, tenant_id, vendor_id, bill_number, date, due_date, subtotal, tax_amount, total_amount, paid_amount, notes, posted_at, created_at, updated_at`

func scanBill(row pgx.Row) (Bill, error) {
	var bill Bill
	err := row.Scan(&bill.ID, &bill.TenantID, &bill.VendorID, &bill.Number, &bill.Date, &bill.DueDate,
		&bill.Subtotal, &bill.TaxAmount, &bill.TotalAmount, &bill.PaidAmount, &bill.Notes, &bill.PostedAt,
		&bill.CreatedAt, &bill.UpdatedAt)
	return bill, err
}

func (r *repository) GetBill(ctx context.Context, tenantID, billID uuid.UUID) (Bill, error) {
	bill, err := scanBill(r.db.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE tenant_id=$1 AND id=$2`, tenantID, billID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, shared.ErrNotFound
		}
		return Bill{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, bill_id, description, quantity, unit_price, total_amount, expense_account_id
FROM bill_lines WHERE bill_id=$1 ORDER BY created_at, id`, billID)
	if err != nil {
		return Bill{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line BillLine
		if err := rows.Scan(&line.ID, &line.BillID, &line.Description, &line.Quantity, &line.UnitPrice, &line.TotalAmount, &line.ExpenseAccountID); err != nil {
			return Bill{}, err
		}
		bill.Lines = append(bill.Lines, line)
	}
	return bill, rows.Err()
}

func (r *repository) ListBills(ctx context.Context, tenantID uuid.UUID) ([]Bill, error) {
	rows, err := r.db.Query(ctx, `SELECT `+billColumns+` FROM bills WHERE tenant_id=$1 ORDER BY date DESC, created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bill)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Ledger() journals.TxPoster {
	return journals.NewTxPoster(r.tx)
}

func (r *txRepository) CustomerExists(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE tenant_id=$1 AND id=$2)`, tenantID, customerID).Scan(&exists)
	return exists, err
}

func (r *txRepository) VendorExists(ctx context.Context, tenantID, vendorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vendors WHERE tenant_id=$1 AND id=$2)`, tenantID, vendorID).Scan(&exists)
	return exists, err
}

func (r *txRepository) EnsureVendorByName(ctx context.Context, tenantID uuid.UUID, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.tx.QueryRow(ctx, `SELECT id FROM vendors WHERE tenant_id=$1 AND name=$2 LIMIT 1`, tenantID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, err
	}
	id = uuid.New()
	_, err = r.tx.Exec(ctx, `INSERT INTO vendors (id, tenant_id, name, created_at, updated_at) VALUES ($1,$2,$3,NOW(),NOW())`, id, tenantID, name)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *txRepository) AccountTypes(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]accounts.AccountType, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, type FROM accounts WHERE tenant_id=$1 AND id = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]accounts.AccountType, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var accType accounts.AccountType
		if err := rows.Scan(&id, &accType); err != nil {
			return nil, err
		}
		out[id] = accType
	}
	return out, rows.Err()
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

func (r *txRepository) TaxRate(ctx context.Context, tenantID uuid.UUID) (float64, bool, error) {
	var rate float64
	err := r.tx.QueryRow(ctx, `SELECT tax_rate FROM tenant_settings WHERE tenant_id=$1`, tenantID).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return rate, true, nil
}

// NextDocumentNumber advances the tenant's counter for the document
// kind. The upsert runs inside the caller's transaction, so the row
// lock it takes serialises concurrent allocations of the same counter.
func (r *txRepository) NextDocumentNumber(ctx context.Context, tenantID uuid.UUID, kind string) (int64, error) {
	var n int64
	err := r.tx.QueryRow(ctx, `INSERT INTO document_counters (tenant_id, kind, value)
VALUES ($1, $2, 1)
ON CONFLICT (tenant_id, kind) DO UPDATE SET value = document_counters.value + 1
RETURNING value`, tenantID, kind).Scan(&n)
	return n, err
}

func (r *txRepository) InsertInvoice(ctx context.Context, invoice Invoice) error {
	if _, err := r.tx.Exec(ctx, `INSERT INTO invoices (id, tenant_id, customer_id, invoice_number, date, due_date, subtotal, tax_amount, total_amount, paid_amount, notes, posted_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		invoice.ID, invoice.TenantID, invoice.CustomerID, invoice.Number, invoice.Date, invoice.DueDate,
		invoice.Subtotal, invoice.TaxAmount, invoice.TotalAmount, invoice.PaidAmount, invoice.Notes,
		invoice.PostedAt, invoice.CreatedAt, invoice.UpdatedAt); err != nil {
		return err
	}
	for _, line := range invoice.Lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO invoice_lines (id, invoice_id, description, quantity, unit_price, total_amount, revenue_account_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`,
			line.ID, line.InvoiceID, line.Description, line.Quantity, line.UnitPrice, line.TotalAmount, line.RevenueAccountID); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) MarkInvoicePosted(ctx context.Context, invoiceID uuid.UUID, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET posted_at=$2, updated_at=$2 WHERE id=$1`, invoiceID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertBill(ctx context.Context, bill Bill) error {
	if _, err := r.tx.Exec(ctx, `INSERT INTO bills (id, tenant_id, vendor_id, bill_number, date, due_date, subtotal, tax_amount, total_amount, paid_amount, notes, posted_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		bill.ID, bill.TenantID, bill.VendorID, bill.Number, bill.Date, bill.DueDate,
		bill.Subtotal, bill.TaxAmount, bill.TotalAmount, bill.PaidAmount, bill.Notes,
		bill.PostedAt, bill.CreatedAt, bill.UpdatedAt); err != nil {
		return err
	}
	for _, line := range bill.Lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO bill_lines (id, bill_id, description, quantity, unit_price, total_amount, expense_account_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`,
			line.ID, line.BillID, line.Description, line.Quantity, line.UnitPrice, line.TotalAmount, line.ExpenseAccountID); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) MarkBillPosted(ctx context.Context, billID uuid.UUID, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE bills SET posted_at=$2, updated_at=$2 WHERE id=$1`, billID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertTransactionItems(ctx context.Context, items []TransactionItem) error {
	for _, item := range items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO transaction_items (id, transaction_id, description, expense_account_id, amount)
VALUES ($1,$2,$3,$4,$5)`, item.ID, item.TransactionID, item.Description, item.ExpenseAccountID, item.Amount); err != nil {
			return err
		}
	}
	return nil
}
