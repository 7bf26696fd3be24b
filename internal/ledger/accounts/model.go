package accounts

import (
	"time"

	"github.com/google/uuid"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeCOGS      AccountType = "cogs"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether the type is a known category.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeCOGS, AccountTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether the type accumulates debit-positive.
// Asset, expense and COGS accounts grow on the debit side; liability,
// equity and revenue grow on the credit side.
func (t AccountType) DebitNormal() bool {
	switch t {
	case AccountTypeAsset, AccountTypeExpense, AccountTypeCOGS:
		return true
	}
	return false
}

// Account models a chart of accounts node scoped to one tenant.
type Account struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Code        string
	Name        string
	Type        AccountType
	Description string
	CreatedAt   time.Time
}

// Well-known codes the posting paths depend on. SeedDefaults guarantees
// they exist for every tenant.
const (
	CodeCashOnHand         = "1000"
	CodeBankOperating      = "1010"
	CodeBusinessChecking   = "1020"
	CodeAccountsReceivable = "1100"
	CodeAccountsPayable    = "2000"
	CodeTaxPayable         = "2100"
	CodeOwnersEquity       = "3000"
	CodeSalesRevenue       = "4000"
	CodeServiceRevenue     = "4100"
	CodeCOGS               = "5000"
	CodeRentExpense        = "6000"
	CodeUtilitiesExpense   = "6100"
	CodeOfficeSupplies     = "6200"
)

type defaultAccount struct {
	Code string
	Name string
	Type AccountType
}

// defaultChart is the seed applied to every new tenant.
var defaultChart = []defaultAccount{
	{CodeCashOnHand, "Cash on Hand", AccountTypeAsset},
	{CodeBankOperating, "Bank Account - Operating", AccountTypeAsset},
	{CodeBusinessChecking, "Business Checking Account", AccountTypeAsset},
	{CodeAccountsReceivable, "Accounts Receivable", AccountTypeAsset},
	{CodeAccountsPayable, "Accounts Payable", AccountTypeLiability},
	{CodeTaxPayable, "Tax Payable", AccountTypeLiability},
	{CodeOwnersEquity, "Owner's Equity", AccountTypeEquity},
	{CodeSalesRevenue, "Sales Revenue", AccountTypeRevenue},
	{CodeServiceRevenue, "Service Revenue", AccountTypeRevenue},
	{CodeCOGS, "Cost of Goods Sold", AccountTypeCOGS},
	{CodeRentExpense, "Rent Expense", AccountTypeExpense},
	{CodeUtilitiesExpense, "Utilities Expense", AccountTypeExpense},
	{CodeOfficeSupplies, "Office Supplies Expense", AccountTypeExpense},
}
