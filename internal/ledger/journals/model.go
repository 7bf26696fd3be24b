package journals

import (
	"time"

	"github.com/google/uuid"
)

// Transaction groups the journal entries committed as one balanced unit.
// Committed transactions are immutable; corrections are posted as new
// offsetting transactions.
type Transaction struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Date        time.Time
	Description string
	VendorID    *uuid.UUID
	TotalAmount float64
	CreatedAt   time.Time
	Entries     []JournalEntry
}

// JournalEntry is a single debit or credit against an account.
type JournalEntry struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	Debit         float64
	Credit        float64
	Date          time.Time
}
