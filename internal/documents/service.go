package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/audit"
	"github.com/finbook-app/finbook/internal/ledger/accounts"
	"github.com/finbook-app/finbook/internal/ledger/journals"
	"github.com/finbook-app/finbook/internal/ledger/shared"
)

// DefaultTaxRate applies when a tenant has no settings row.
const DefaultTaxRate = 0.10

// CacheInvalidator is bumped after every committed posting.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service creates invoices and bills from line items and drives the
// ledger poster for the recognition entries. Document writes and their
// postings share one transaction: both commit or neither does.
type Service struct {
	repo    Repository
	audit   audit.Port
	cache   CacheInvalidator
	taxRate float64
	now     func() time.Time
}

func NewService(repo Repository, auditPort audit.Port, cache CacheInvalidator, taxRate float64) *Service {
	if taxRate < 0 {
		taxRate = DefaultTaxRate
	}
	return &Service{repo: repo, audit: auditPort, cache: cache, taxRate: taxRate, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInvoice computes totals, persists the invoice and posts the
// revenue recognition entry: debit Accounts Receivable for the total,
// credit each line's revenue account, credit Tax Payable for the tax.
func (s *Service) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (Invoice, error) {
	if err := in.Validate(); err != nil {
		return Invoice{}, err
	}
	var invoice Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.CustomerExists(ctx, in.TenantID, in.CustomerID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("customer %s: %w", in.CustomerID, shared.ErrNotFound)
		}
		if err := s.checkLineAccounts(ctx, tx, in.TenantID, in.Lines, accounts.AccountTypeRevenue); err != nil {
			return err
		}
		rate, err := s.tenantTaxRate(ctx, tx, in.TenantID)
		if err != nil {
			return err
		}
		seq, err := tx.NextDocumentNumber(ctx, in.TenantID, "invoice")
		if err != nil {
			return err
		}
		now := s.now()
		invoice = Invoice{
			ID:         uuid.New(),
			TenantID:   in.TenantID,
			CustomerID: in.CustomerID,
			Number:     fmt.Sprintf("INV-%06d", seq),
			Date:       in.Date,
			DueDate:    in.DueDate,
			Notes:      in.Notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		for _, line := range in.Lines {
			lineTotal := shared.Round2(line.Quantity * line.UnitPrice)
			invoice.Lines = append(invoice.Lines, InvoiceLine{
				ID:               uuid.New(),
				InvoiceID:        invoice.ID,
				Description:      line.Description,
				Quantity:         line.Quantity,
				UnitPrice:        line.UnitPrice,
				TotalAmount:      lineTotal,
				RevenueAccountID: line.AccountID,
			})
			invoice.Subtotal += lineTotal
		}
		invoice.Subtotal = shared.Round2(invoice.Subtotal)
		invoice.TaxAmount = shared.Round2(invoice.Subtotal * rate)
		invoice.TotalAmount = shared.Round2(invoice.Subtotal + invoice.TaxAmount)
		if err := tx.InsertInvoice(ctx, invoice); err != nil {
			return err
		}

		arAccount, err := tx.SystemAccount(ctx, in.TenantID, accounts.CodeAccountsReceivable)
		if err != nil {
			return err
		}
		lines := []journals.PostingLine{{AccountID: arAccount, Debit: invoice.TotalAmount}}
		for _, line := range invoice.Lines {
			lines = append(lines, journals.PostingLine{AccountID: line.RevenueAccountID, Credit: line.TotalAmount})
		}
		if shared.Cents(invoice.TaxAmount) > 0 {
			taxAccount, err := tx.SystemAccount(ctx, in.TenantID, accounts.CodeTaxPayable)
			if err != nil {
				return err
			}
			lines = append(lines, journals.PostingLine{AccountID: taxAccount, Credit: invoice.TaxAmount})
		}
		if _, err := tx.Ledger().PostJournal(ctx, journals.PostingInput{
			TenantID:    in.TenantID,
			Date:        in.Date,
			Description: fmt.Sprintf("Invoice %s", invoice.Number),
			Lines:       mergeLines(lines),
		}); err != nil {
			return err
		}
		postedAt := s.now()
		invoice.PostedAt = &postedAt
		return tx.MarkInvoicePosted(ctx, invoice.ID, postedAt)
	})
	if err != nil {
		return Invoice{}, err
	}
	s.afterCommit(ctx, in.ActorID, audit.Entry{
		TenantID: in.TenantID,
		Table:    "invoices",
		RecordID: invoice.ID.String(),
		Action:   "insert",
		NewValues: map[string]any{
			"invoice_number": invoice.Number,
			"subtotal":       invoice.Subtotal,
			"tax_amount":     invoice.TaxAmount,
			"total_amount":   invoice.TotalAmount,
			"status":         string(invoice.Status()),
		},
	})
	return invoice, nil
}

// CreateBill mirrors CreateInvoice on the payable side: debit each
// line's expense account, debit Tax Payable for the input tax, credit
// Accounts Payable for the total.
func (s *Service) CreateBill(ctx context.Context, in CreateBillInput) (Bill, error) {
	if err := in.Validate(); err != nil {
		return Bill{}, err
	}
	var bill Bill
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.VendorExists(ctx, in.TenantID, in.VendorID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("vendor %s: %w", in.VendorID, shared.ErrNotFound)
		}
		if err := s.checkLineAccounts(ctx, tx, in.TenantID, in.Lines, accounts.AccountTypeExpense, accounts.AccountTypeCOGS); err != nil {
			return err
		}
		rate, err := s.tenantTaxRate(ctx, tx, in.TenantID)
		if err != nil {
			return err
		}
		seq, err := tx.NextDocumentNumber(ctx, in.TenantID, "bill")
		if err != nil {
			return err
		}
		now := s.now()
		bill = Bill{
			ID:        uuid.New(),
			TenantID:  in.TenantID,
			VendorID:  in.VendorID,
			Number:    fmt.Sprintf("BILL-%06d", seq),
			Date:      in.Date,
			DueDate:   in.DueDate,
			Notes:     in.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, line := range in.Lines {
			lineTotal := shared.Round2(line.Quantity * line.UnitPrice)
			bill.Lines = append(bill.Lines, BillLine{
				ID:               uuid.New(),
				BillID:           bill.ID,
				Description:      line.Description,
				Quantity:         line.Quantity,
				UnitPrice:        line.UnitPrice,
				TotalAmount:      lineTotal,
				ExpenseAccountID: line.AccountID,
			})
			bill.Subtotal += lineTotal
		}
		bill.Subtotal = shared.Round2(bill.Subtotal)
		bill.TaxAmount = shared.Round2(bill.Subtotal * rate)
		bill.TotalAmount = shared.Round2(bill.Subtotal + bill.TaxAmount)
		if err := tx.InsertBill(ctx, bill); err != nil {
			return err
		}

		apAccount, err := tx.SystemAccount(ctx, in.TenantID, accounts.CodeAccountsPayable)
		if err != nil {
			return err
		}
		var lines []journals.PostingLine
		for _, line := range bill.Lines {
			lines = append(lines, journals.PostingLine{AccountID: line.ExpenseAccountID, Debit: line.TotalAmount})
		}
		if shared.Cents(bill.TaxAmount) > 0 {
			taxAccount, err := tx.SystemAccount(ctx, in.TenantID, accounts.CodeTaxPayable)
			if err != nil {
				return err
			}
			lines = append(lines, journals.PostingLine{AccountID: taxAccount, Debit: bill.TaxAmount})
		}
		lines = append(lines, journals.PostingLine{AccountID: apAccount, Credit: bill.TotalAmount})
		if _, err := tx.Ledger().PostJournal(ctx, journals.PostingInput{
			TenantID:    in.TenantID,
			Date:        in.Date,
			Description: fmt.Sprintf("Bill %s", bill.Number),
			VendorID:    &in.VendorID,
			Lines:       mergeLines(lines),
		}); err != nil {
			return err
		}
		postedAt := s.now()
		bill.PostedAt = &postedAt
		return tx.MarkBillPosted(ctx, bill.ID, postedAt)
	})
	if err != nil {
		return Bill{}, err
	}
	s.afterCommit(ctx, in.ActorID, audit.Entry{
		TenantID: in.TenantID,
		Table:    "bills",
		RecordID: bill.ID.String(),
		Action:   "insert",
		NewValues: map[string]any{
			"bill_number":  bill.Number,
			"subtotal":     bill.Subtotal,
			"tax_amount":   bill.TaxAmount,
			"total_amount": bill.TotalAmount,
			"status":       string(bill.Status()),
		},
	})
	return bill, nil
}

// CreateExpense posts a direct expense: debit each item's expense
// account, credit the payment account for the summed amount. No
// document is created, so the transaction commits in one step.
func (s *Service) CreateExpense(ctx context.Context, in CreateExpenseInput) (journals.Transaction, error) {
	if err := in.Validate(); err != nil {
		return journals.Transaction{}, err
	}
	var txn journals.Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ids := []uuid.UUID{in.PaymentAccountID}
		for _, item := range in.Items {
			ids = append(ids, item.ExpenseAccountID)
		}
		types, err := tx.AccountTypes(ctx, in.TenantID, ids)
		if err != nil {
			return err
		}
		payType, ok := types[in.PaymentAccountID]
		if !ok {
			return fmt.Errorf("payment account %s: %w", in.PaymentAccountID, shared.ErrNotFound)
		}
		if payType != accounts.AccountTypeAsset {
			return fmt.Errorf("%w: payment account must be an asset account", shared.ErrInvalidInput)
		}
		for idx, item := range in.Items {
			accType, ok := types[item.ExpenseAccountID]
			if !ok {
				return fmt.Errorf("item %d account %s: %w", idx, item.ExpenseAccountID, shared.ErrNotFound)
			}
			if accType != accounts.AccountTypeExpense && accType != accounts.AccountTypeCOGS {
				return fmt.Errorf("%w: item %d account is not an expense account", shared.ErrInvalidInput, idx)
			}
		}
		vendorID, err := tx.EnsureVendorByName(ctx, in.TenantID, strings.TrimSpace(in.VendorName))
		if err != nil {
			return err
		}
		var total float64
		var lines []journals.PostingLine
		for _, item := range in.Items {
			amount := shared.Round2(item.Amount)
			lines = append(lines, journals.PostingLine{AccountID: item.ExpenseAccountID, Debit: amount})
			total += amount
		}
		lines = append(lines, journals.PostingLine{AccountID: in.PaymentAccountID, Credit: shared.Round2(total)})
		txn, err = tx.Ledger().PostJournal(ctx, journals.PostingInput{
			TenantID:    in.TenantID,
			Date:        in.Date,
			Description: in.Description,
			VendorID:    &vendorID,
			Lines:       mergeLines(lines),
		})
		if err != nil {
			return err
		}
		items := make([]TransactionItem, 0, len(in.Items))
		for _, item := range in.Items {
			items = append(items, TransactionItem{
				ID:               uuid.New(),
				TransactionID:    txn.ID,
				Description:      item.Description,
				ExpenseAccountID: item.ExpenseAccountID,
				Amount:           shared.Round2(item.Amount),
			})
		}
		return tx.InsertTransactionItems(ctx, items)
	})
	if err != nil {
		return journals.Transaction{}, err
	}
	s.afterCommit(ctx, in.ActorID, audit.Entry{
		TenantID: in.TenantID,
		Table:    "transactions",
		RecordID: txn.ID.String(),
		Action:   "insert",
		NewValues: map[string]any{
			"description":  txn.Description,
			"total_amount": txn.TotalAmount,
			"items":        len(in.Items),
		},
	})
	return txn, nil
}

// GetInvoice returns the invoice with its lines.
func (s *Service) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (Invoice, error) {
	return s.repo.GetInvoice(ctx, tenantID, invoiceID)
}

// ListInvoices returns the tenant's invoices, newest first.
func (s *Service) ListInvoices(ctx context.Context, tenantID uuid.UUID) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, tenantID)
}

// GetBill returns the bill with its lines.
func (s *Service) GetBill(ctx context.Context, tenantID, billID uuid.UUID) (Bill, error) {
	return s.repo.GetBill(ctx, tenantID, billID)
}

// ListBills returns the tenant's bills, newest first.
func (s *Service) ListBills(ctx context.Context, tenantID uuid.UUID) ([]Bill, error) {
	return s.repo.ListBills(ctx, tenantID)
}

func (s *Service) checkLineAccounts(ctx context.Context, tx TxRepository, tenantID uuid.UUID, lines []LineInput, allowed ...accounts.AccountType) error {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	types, err := tx.AccountTypes(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	for idx, line := range lines {
		accType, ok := types[line.AccountID]
		if !ok {
			return fmt.Errorf("line %d account %s: %w", idx, line.AccountID, shared.ErrNotFound)
		}
		permitted := false
		for _, want := range allowed {
			if accType == want {
				permitted = true
				break
			}
		}
		if !permitted {
			return fmt.Errorf("%w: line %d account type %s not allowed", shared.ErrInvalidInput, idx, accType)
		}
	}
	return nil
}

func (s *Service) tenantTaxRate(ctx context.Context, tx TxRepository, tenantID uuid.UUID) (float64, error) {
	rate, ok, err := tx.TaxRate(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.taxRate, nil
	}
	if rate < 0 || rate > 1 {
		return 0, fmt.Errorf("%w: tenant tax rate %v out of range", shared.ErrInvalidInput, rate)
	}
	return rate, nil
}

func (s *Service) afterCommit(ctx context.Context, actorID uuid.UUID, entry audit.Entry) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		entry.ActorID = actorID
		entry.At = s.now()
		_ = s.audit.Record(ctx, entry)
	}
}

// mergeLines folds duplicate account/side pairs so an invoice with two
// lines against the same revenue account posts one credit, matching how
// balances aggregate anyway.
func mergeLines(lines []journals.PostingLine) []journals.PostingLine {
	type key struct {
		account uuid.UUID
		debit   bool
	}
	index := make(map[key]int, len(lines))
	out := make([]journals.PostingLine, 0, len(lines))
	for _, line := range lines {
		k := key{account: line.AccountID, debit: line.Debit > 0}
		if pos, ok := index[k]; ok {
			out[pos].Debit = shared.Round2(out[pos].Debit + line.Debit)
			out[pos].Credit = shared.Round2(out[pos].Credit + line.Credit)
			continue
		}
		index[k] = len(out)
		out = append(out, line)
	}
	return out
}
