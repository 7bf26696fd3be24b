package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/audit"
	"github.com/finbook-app/finbook/internal/ledger/shared"
)

// Service owns the chart of accounts per tenant.
type Service struct {
	repo  Repository
	audit audit.Port
	now   func() time.Time
}

func NewService(repo Repository, auditPort audit.Port) *Service {
	return &Service{repo: repo, audit: auditPort, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInput describes a custom account to add to a tenant's chart.
type CreateInput struct {
	TenantID    uuid.UUID
	ActorID     uuid.UUID
	Code        string
	Name        string
	Type        AccountType
	Description string
}

func (in CreateInput) validate() error {
	if in.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Code) == "" {
		return fmt.Errorf("%w: account code required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: account name required", shared.ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown account type %q", shared.ErrInvalidInput, in.Type)
	}
	return nil
}

// Create adds an account to the tenant's chart. Codes are unique per tenant.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.validate(); err != nil {
		return Account{}, err
	}
	account := Account{
		ID:          uuid.New(),
		TenantID:    in.TenantID,
		Code:        strings.TrimSpace(in.Code),
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		Description: in.Description,
		CreatedAt:   s.now(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertAccount(ctx, account)
	})
	if err != nil {
		return Account{}, err
	}
	s.recordAudit(ctx, in.ActorID, account, "insert")
	return account, nil
}

// SeedDefaults installs the standard chart for a tenant that has no
// accounts yet. Calling it again is a no-op.
func (s *Service) SeedDefaults(ctx context.Context, tenantID, actorID uuid.UUID) ([]Account, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant required", shared.ErrInvalidInput)
	}
	var seeded []Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		count, err := tx.CountAccounts(ctx, tenantID)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		now := s.now()
		for _, def := range defaultChart {
			account := Account{
				ID:        uuid.New(),
				TenantID:  tenantID,
				Code:      def.Code,
				Name:      def.Name,
				Type:      def.Type,
				CreatedAt: now,
			}
			if err := tx.InsertAccount(ctx, account); err != nil {
				return err
			}
			seeded = append(seeded, account)
		}
		return nil
	})
	if err != nil {
		// A concurrent seed won the unique (tenant_id, code) race; the
		// chart exists either way.
		if errors.Is(err, shared.ErrConflict) {
			return nil, nil
		}
		return nil, err
	}
	if len(seeded) > 0 {
		s.recordAudit(ctx, actorID, Account{TenantID: tenantID}, "seed")
	}
	return seeded, nil
}

// Resolve returns the account if it belongs to the tenant.
func (s *Service) Resolve(ctx context.Context, tenantID, accountID uuid.UUID) (Account, error) {
	return s.repo.Get(ctx, tenantID, accountID)
}

// ResolveByCode looks up one of the well-known system accounts.
func (s *Service) ResolveByCode(ctx context.Context, tenantID uuid.UUID, code string) (Account, error) {
	return s.repo.GetByCode(ctx, tenantID, code)
}

// List returns the tenant's chart ordered by code.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, account Account, action string) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		TenantID: account.TenantID,
		ActorID:  actorID,
		Table:    "accounts",
		RecordID: account.ID.String(),
		Action:   action,
		At:       s.now(),
	}
	if action == "insert" {
		entry.NewValues = map[string]any{
			"code": account.Code,
			"name": account.Name,
			"type": string(account.Type),
		}
	}
	_ = s.audit.Record(ctx, entry)
}
