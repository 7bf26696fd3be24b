package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/audit"
	"github.com/finbook-app/finbook/internal/ledger/accounts"
	"github.com/finbook-app/finbook/internal/ledger/journals"
	"github.com/finbook-app/finbook/internal/ledger/shared"
)

// DefaultMaxRetries bounds optimistic retries on serialization failures.
const DefaultMaxRetries = 3

// CacheInvalidator is bumped after every committed posting.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service records payments against invoices and bills. The remaining-
// balance check, the payment insert, the ledger posting and the
// paid_amount update form one atomic unit; a serialization failure
// retries the whole unit from fresh state.
type Service struct {
	repo       Repository
	audit      audit.Port
	cache      CacheInvalidator
	maxRetries int
	now        func() time.Time
}

func NewService(repo Repository, auditPort audit.Port, cache CacheInvalidator, maxRetries int) *Service {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Service{repo: repo, audit: auditPort, cache: cache, maxRetries: maxRetries, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Record validates and applies a payment. For customer payments the
// posting debits the settlement account and credits Accounts
// Receivable; vendor payments debit Accounts Payable and credit the
// settlement account.
func (s *Service) Record(ctx context.Context, in RecordInput) (Payment, error) {
	if err := in.Validate(); err != nil {
		return Payment{}, err
	}
	var payment Payment
	var before, after DocumentState
	attempt := func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			accType, err := tx.AccountType(ctx, in.TenantID, in.PaymentAccountID)
			if err != nil {
				return err
			}
			if accType != accounts.AccountTypeAsset {
				return fmt.Errorf("%w: settlement account must be an asset account", shared.ErrInvalidInput)
			}

			var state DocumentState
			if in.Type == TypeCustomerPayment {
				state, err = tx.GetInvoiceForUpdate(ctx, in.TenantID, *in.InvoiceID)
			} else {
				state, err = tx.GetBillForUpdate(ctx, in.TenantID, *in.BillID)
			}
			if err != nil {
				return err
			}
			if state.PostedAt == nil {
				return fmt.Errorf("%w: document is not posted", shared.ErrInvalidInput)
			}
			amount := shared.Round2(in.Amount)
			if shared.Cents(amount) > shared.Cents(state.Remaining()) {
				return shared.ErrOverpayment
			}

			payment = Payment{
				ID:               uuid.New(),
				TenantID:         in.TenantID,
				Type:             in.Type,
				InvoiceID:        in.InvoiceID,
				BillID:           in.BillID,
				Amount:           amount,
				Method:           in.Method,
				PaymentAccountID: in.PaymentAccountID,
				Date:             in.Date,
				Reference:        in.Reference,
				Notes:            in.Notes,
				CreatedAt:        s.now(),
			}
			if err := tx.InsertPayment(ctx, payment); err != nil {
				return err
			}

			var lines []journals.PostingLine
			var description string
			if in.Type == TypeCustomerPayment {
				arAccount, err := tx.SystemAccount(ctx, in.TenantID, accounts.CodeAccountsReceivable)
				if err != nil {
					return err
				}
				lines = []journals.PostingLine{
					{AccountID: in.PaymentAccountID, Debit: amount},
					{AccountID: arAccount, Credit: amount},
				}
				description = fmt.Sprintf("Customer payment %s", payment.ID)
			} else {
				apAccount, err := tx.SystemAccount(ctx, in.TenantID, accounts.CodeAccountsPayable)
				if err != nil {
					return err
				}
				lines = []journals.PostingLine{
					{AccountID: apAccount, Debit: amount},
					{AccountID: in.PaymentAccountID, Credit: amount},
				}
				description = fmt.Sprintf("Vendor payment %s", payment.ID)
			}
			if _, err := tx.Ledger().PostJournal(ctx, journals.PostingInput{
				TenantID:    in.TenantID,
				Date:        in.Date,
				Description: description,
				Lines:       lines,
			}); err != nil {
				return err
			}

			if in.Type == TypeCustomerPayment {
				err = tx.ApplyInvoicePayment(ctx, state.ID, amount)
			} else {
				err = tx.ApplyBillPayment(ctx, state.ID, amount)
			}
			if err != nil {
				return err
			}
			before = state
			after = state
			after.PaidAmount = shared.Round2(state.PaidAmount + amount)
			return nil
		})
	}

	var err error
	for i := 0; i < s.maxRetries; i++ {
		err = attempt()
		if err == nil || !retryable(err) {
			break
		}
	}
	if err != nil {
		if retryable(err) {
			return Payment{}, shared.ErrConcurrencyConflict
		}
		return Payment{}, err
	}

	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		table := "invoices"
		if in.Type == TypeVendorPayment {
			table = "bills"
		}
		_ = s.audit.Record(ctx, audit.Entry{
			TenantID:  in.TenantID,
			ActorID:   in.ActorID,
			Table:     "payments",
			RecordID:  payment.ID.String(),
			Action:    "insert",
			NewValues: map[string]any{"amount": payment.Amount, "method": payment.Method, "type": string(payment.Type)},
			At:        s.now(),
		})
		_ = s.audit.Record(ctx, audit.Entry{
			TenantID:  in.TenantID,
			ActorID:   in.ActorID,
			Table:     table,
			RecordID:  before.ID.String(),
			Action:    "update",
			OldValues: map[string]any{"paid_amount": before.PaidAmount},
			NewValues: map[string]any{"paid_amount": after.PaidAmount},
			At:        s.now(),
		})
	}
	return payment, nil
}

// List returns the tenant's payments, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]Payment, error) {
	return s.repo.List(ctx, tenantID)
}

func retryable(err error) bool {
	return errors.Is(err, shared.ErrConcurrencyConflict) || IsSerializationFailure(err)
}
