package journals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/audit"
	"github.com/finbook-app/finbook/internal/ledger/shared"
)

// CacheInvalidator is bumped after every committed posting so balance
// readers never serve stale aggregates.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service is the ledger posting engine. Every money-moving operation in
// the system funnels through PostJournal, directly or via a TxPoster.
type Service struct {
	repo       Repository
	audit      audit.Port
	cache      CacheInvalidator
	now        func() time.Time
	onPosted   func(source string)
	onRejected func(reason string)
}

func NewService(repo Repository, auditPort audit.Port, cache CacheInvalidator) *Service {
	return &Service{repo: repo, audit: auditPort, cache: cache, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// OnPosted registers a hook invoked after every committed posting,
// typically a metrics counter.
func (s *Service) OnPosted(fn func(source string)) {
	s.onPosted = fn
}

// OnRejected registers a hook invoked when a posting fails validation.
func (s *Service) OnRejected(fn func(reason string)) {
	s.onRejected = fn
}

// Post validates and commits a balanced transaction atomically.
func (s *Service) Post(ctx context.Context, in PostingInput, actorID uuid.UUID) (Transaction, error) {
	if err := in.Validate(); err != nil {
		if s.onRejected != nil {
			s.onRejected(rejectionReason(err))
		}
		return Transaction{}, err
	}
	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, poster TxPoster) error {
		committed, err := poster.PostJournal(ctx, in)
		if err != nil {
			return err
		}
		txn = committed
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	if s.onPosted != nil {
		s.onPosted("journal")
	}
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			TenantID: in.TenantID,
			ActorID:  actorID,
			Table:    "transactions",
			RecordID: txn.ID.String(),
			Action:   "insert",
			NewValues: map[string]any{
				"description":  txn.Description,
				"total_amount": txn.TotalAmount,
				"lines":        len(txn.Entries),
			},
			At: s.now(),
		})
	}
	return txn, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrUnbalanced):
		return "unbalanced"
	case errors.Is(err, shared.ErrTooFewLines):
		return "too_few_lines"
	default:
		return "invalid_input"
	}
}

// Get returns a committed transaction with its entries.
func (s *Service) Get(ctx context.Context, tenantID, transactionID uuid.UUID) (Transaction, error) {
	return s.repo.Get(ctx, tenantID, transactionID)
}

// List returns recent transactions for the tenant.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Transaction, error) {
	return s.repo.List(ctx, tenantID, limit)
}
