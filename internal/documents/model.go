package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/ledger/shared"
)

// DocumentStatus is derived from paid/total amounts and posting state,
// never stored. A document that failed to post never becomes visible,
// so persisted rows are always open or beyond.
type DocumentStatus string

const (
	StatusDraft   DocumentStatus = "draft"
	StatusOpen    DocumentStatus = "open"
	StatusPartial DocumentStatus = "partial"
	StatusPaid    DocumentStatus = "paid"
)

func deriveStatus(postedAt *time.Time, paid, total float64) DocumentStatus {
	if postedAt == nil {
		return StatusDraft
	}
	switch {
	case shared.Cents(paid) == 0:
		return StatusOpen
	case shared.Cents(paid) < shared.Cents(total):
		return StatusPartial
	default:
		return StatusPaid
	}
}

// Invoice is a receivable document issued to a customer.
type Invoice struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	CustomerID  uuid.UUID
	Number      string
	Date        time.Time
	DueDate     *time.Time
	Subtotal    float64
	TaxAmount   float64
	TotalAmount float64
	PaidAmount  float64
	Notes       string
	PostedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []InvoiceLine
}

// Status reports the document lifecycle state.
func (i Invoice) Status() DocumentStatus {
	return deriveStatus(i.PostedAt, i.PaidAmount, i.TotalAmount)
}

// InvoiceLine references a revenue account.
type InvoiceLine struct {
	ID               uuid.UUID
	InvoiceID        uuid.UUID
	Description      string
	Quantity         float64
	UnitPrice        float64
	TotalAmount      float64
	RevenueAccountID uuid.UUID
}

// Bill is the payable mirror of Invoice, issued by a vendor.
type Bill struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	VendorID    uuid.UUID
	Number      string
	Date        time.Time
	DueDate     *time.Time
	Subtotal    float64
	TaxAmount   float64
	TotalAmount float64
	PaidAmount  float64
	Notes       string
	PostedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []BillLine
}

func (b Bill) Status() DocumentStatus {
	return deriveStatus(b.PostedAt, b.PaidAmount, b.TotalAmount)
}

// BillLine references an expense (or cogs) account.
type BillLine struct {
	ID               uuid.UUID
	BillID           uuid.UUID
	Description      string
	Quantity         float64
	UnitPrice        float64
	TotalAmount      float64
	ExpenseAccountID uuid.UUID
}

// TransactionItem is one expense item of a direct-posted transaction.
type TransactionItem struct {
	ID               uuid.UUID
	TransactionID    uuid.UUID
	Description      string
	ExpenseAccountID uuid.UUID
	Amount           float64
}
