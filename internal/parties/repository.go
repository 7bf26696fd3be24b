package parties

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbook-app/finbook/internal/ledger/shared"
)

// Repository encapsulates DB operations for customers and vendors.
type Repository interface {
	GetCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (Customer, error)
	ListCustomers(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Customer, error)
	InsertCustomer(ctx context.Context, c Customer) error
	UpdateCustomer(ctx context.Context, c Customer) error

	GetVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (Vendor, error)
	ListVendors(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Vendor, error)
	InsertVendor(ctx context.Context, v Vendor) error
	UpdateVendor(ctx context.Context, v Vendor) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const partyColumns = `id, tenant_id, name, email, phone, address, created_at, updated_at`

func (r *repository) GetCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (Customer, error) {
	var c Customer
	err := r.db.QueryRow(ctx, `SELECT `+partyColumns+` FROM customers WHERE tenant_id=$1 AND id=$2`, tenantID, customerID).
		Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) ListCustomers(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+partyColumns+` FROM customers
WHERE tenant_id=$1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
ORDER BY name
LIMIT $3 OFFSET $4`, tenantID, filters.Search, filters.Limit, filters.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) InsertCustomer(ctx context.Context, c Customer) error {
	_, err := r.db.Exec(ctx, `INSERT INTO customers (id, tenant_id, name, email, phone, address, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.TenantID, c.Name, c.Email, c.Phone, c.Address, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *repository) UpdateCustomer(ctx context.Context, c Customer) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET name=$3, email=$4, phone=$5, address=$6, updated_at=$7
WHERE tenant_id=$1 AND id=$2`,
		c.TenantID, c.ID, c.Name, c.Email, c.Phone, c.Address, c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) GetVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (Vendor, error) {
	var v Vendor
	err := r.db.QueryRow(ctx, `SELECT `+partyColumns+` FROM vendors WHERE tenant_id=$1 AND id=$2`, tenantID, vendorID).
		Scan(&v.ID, &v.TenantID, &v.Name, &v.Email, &v.Phone, &v.Address, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vendor{}, shared.ErrNotFound
	}
	return v, err
}

func (r *repository) ListVendors(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Vendor, error) {
	rows, err := r.db.Query(ctx, `SELECT `+partyColumns+` FROM vendors
WHERE tenant_id=$1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
ORDER BY name
LIMIT $3 OFFSET $4`, tenantID, filters.Search, filters.Limit, filters.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.TenantID, &v.Name, &v.Email, &v.Phone, &v.Address, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) InsertVendor(ctx context.Context, v Vendor) error {
	_, err := r.db.Exec(ctx, `INSERT INTO vendors (id, tenant_id, name, email, phone, address, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.TenantID, v.Name, v.Email, v.Phone, v.Address, v.CreatedAt, v.UpdatedAt)
	return err
}

func (r *repository) UpdateVendor(ctx context.Context, v Vendor) error {
	tag, err := r.db.Exec(ctx, `UPDATE vendors SET name=$3, email=$4, phone=$5, address=$6, updated_at=$7
WHERE tenant_id=$1 AND id=$2`,
		v.TenantID, v.ID, v.Name, v.Email, v.Phone, v.Address, v.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
