package payments

import (
	"time"

	"github.com/google/uuid"
)

// PaymentType distinguishes money received from money sent.
type PaymentType string

const (
	TypeCustomerPayment PaymentType = "customer_payment"
	TypeVendorPayment   PaymentType = "vendor_payment"
)

// Method enumerates accepted payment methods.
var Methods = map[string]struct{}{
	"cash":          {},
	"bank_transfer": {},
	"credit_card":   {},
	"check":         {},
}

// Payment is an immutable record of money applied against an invoice
// or a bill.
type Payment struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	Type             PaymentType
	InvoiceID        *uuid.UUID
	BillID           *uuid.UUID
	Amount           float64
	Method           string
	PaymentAccountID uuid.UUID
	Date             time.Time
	Reference        string
	Notes            string
	CreatedAt        time.Time
}

// DocumentState is the locked snapshot of the target document used to
// evaluate the remaining balance.
type DocumentState struct {
	ID          uuid.UUID
	TotalAmount float64
	PaidAmount  float64
	PostedAt    *time.Time
}

// Remaining is the unpaid portion of the document.
func (d DocumentState) Remaining() float64 {
	return d.TotalAmount - d.PaidAmount
}
