package journals

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/ledger/shared"
)

// PostingLine describes one debit/credit line of a posting request.
// Conventionally only one side is set; the model tolerates both sides
// being non-zero as long as the transaction balances.
type PostingLine struct {
	AccountID uuid.UUID
	Debit     float64
	Credit    float64
}

// PostingInput groups fields required to commit a transaction.
type PostingInput struct {
	TenantID    uuid.UUID
	Date        time.Time
	Description string
	VendorID    *uuid.UUID
	Lines       []PostingLine
}

// Validate ensures the posting meets the ledger invariants before any
// write happens. Balance is compared at cent precision.
func (in PostingInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant required", shared.ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date required", shared.ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return shared.ErrTooFewLines
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.AccountID == uuid.Nil {
			return fmt.Errorf("%w: line %d missing account", shared.ErrInvalidInput, idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("%w: line %d negative amount", shared.ErrInvalidInput, idx)
		}
		if line.Debit == 0 && line.Credit == 0 {
			return fmt.Errorf("%w: line %d has no amount", shared.ErrInvalidInput, idx)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if shared.Cents(debit) != shared.Cents(credit) {
		return shared.ErrUnbalanced
	}
	return nil
}

// TotalDebit sums the debit side of the posting.
func (in PostingInput) TotalDebit() float64 {
	var total float64
	for _, line := range in.Lines {
		total += line.Debit
	}
	return shared.Round2(total)
}
