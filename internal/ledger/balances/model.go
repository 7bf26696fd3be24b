package balances

import (
	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/ledger/accounts"
)

// AccountBalance is one row of the balance report: the account and its
// signed balance under the type's normal-balance convention.
type AccountBalance struct {
	AccountID uuid.UUID            `json:"account_id"`
	Code      string               `json:"account_code"`
	Name      string               `json:"account_name"`
	Type      accounts.AccountType `json:"account_type"`
	Balance   float64              `json:"balance"`
}
