package documents

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/ledger/shared"
)

// LineInput is one invoice or bill line as submitted by the caller.
type LineInput struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	AccountID   uuid.UUID
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: at least one line required", shared.ErrInvalidInput)
	}
	for idx, line := range lines {
		if line.AccountID == uuid.Nil {
			return fmt.Errorf("%w: line %d missing account", shared.ErrInvalidInput, idx)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: line %d non-positive quantity", shared.ErrInvalidInput, idx)
		}
		if line.UnitPrice < 0 {
			return fmt.Errorf("%w: line %d negative unit price", shared.ErrInvalidInput, idx)
		}
	}
	return nil
}

// CreateInvoiceInput groups fields for invoice creation.
type CreateInvoiceInput struct {
	TenantID   uuid.UUID
	ActorID    uuid.UUID
	CustomerID uuid.UUID
	Date       time.Time
	DueDate    *time.Time
	Notes      string
	Lines      []LineInput
}

func (in CreateInvoiceInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant required", shared.ErrInvalidInput)
	}
	if in.CustomerID == uuid.Nil {
		return fmt.Errorf("%w: customer required", shared.ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date required", shared.ErrInvalidInput)
	}
	return validateLines(in.Lines)
}

// CreateBillInput groups fields for bill creation.
type CreateBillInput struct {
	TenantID uuid.UUID
	ActorID  uuid.UUID
	VendorID uuid.UUID
	Date     time.Time
	DueDate  *time.Time
	Notes    string
	Lines    []LineInput
}

func (in CreateBillInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant required", shared.ErrInvalidInput)
	}
	if in.VendorID == uuid.Nil {
		return fmt.Errorf("%w: vendor required", shared.ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date required", shared.ErrInvalidInput)
	}
	return validateLines(in.Lines)
}

// ExpenseItemInput is one item of a direct expense transaction.
type ExpenseItemInput struct {
	Description      string
	ExpenseAccountID uuid.UUID
	Amount           float64
}

// CreateExpenseInput groups fields for a direct expense posting. There
// is no document to reconcile against, so it posts immediately.
type CreateExpenseInput struct {
	TenantID         uuid.UUID
	ActorID          uuid.UUID
	VendorName       string
	Date             time.Time
	Description      string
	PaymentAccountID uuid.UUID
	Items            []ExpenseItemInput
}

func (in CreateExpenseInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(in.VendorName) == "" {
		return fmt.Errorf("%w: vendor name required", shared.ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date required", shared.ErrInvalidInput)
	}
	if in.PaymentAccountID == uuid.Nil {
		return fmt.Errorf("%w: payment account required", shared.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: at least one item required", shared.ErrInvalidInput)
	}
	for idx, item := range in.Items {
		if item.ExpenseAccountID == uuid.Nil {
			return fmt.Errorf("%w: item %d missing expense account", shared.ErrInvalidInput, idx)
		}
		if item.Amount <= 0 {
			return fmt.Errorf("%w: item %d non-positive amount", shared.ErrInvalidInput, idx)
		}
	}
	return nil
}
