package payments

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/ledger/shared"
)

// RecordInput groups fields required to record a payment.
type RecordInput struct {
	TenantID         uuid.UUID
	ActorID          uuid.UUID
	Type             PaymentType
	InvoiceID        *uuid.UUID
	BillID           *uuid.UUID
	Amount           float64
	Method           string
	PaymentAccountID uuid.UUID
	Date             time.Time
	Reference        string
	Notes            string
}

// Validate checks structural constraints before touching the store.
// Exactly one target must be set, consistent with the payment type.
func (in RecordInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant required", shared.ErrInvalidInput)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrInvalidInput)
	}
	if in.PaymentAccountID == uuid.Nil {
		return fmt.Errorf("%w: settlement account required", shared.ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date required", shared.ErrInvalidInput)
	}
	if _, ok := Methods[in.Method]; !ok {
		return fmt.Errorf("%w: unknown payment method %q", shared.ErrInvalidInput, in.Method)
	}
	switch in.Type {
	case TypeCustomerPayment:
		if in.InvoiceID == nil || in.BillID != nil {
			return fmt.Errorf("%w: customer payment requires an invoice target", shared.ErrInvalidInput)
		}
	case TypeVendorPayment:
		if in.BillID == nil || in.InvoiceID != nil {
			return fmt.Errorf("%w: vendor payment requires a bill target", shared.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown payment type %q", shared.ErrInvalidInput, in.Type)
	}
	return nil
}
