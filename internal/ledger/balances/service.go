package balances

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/ledger/accounts"
	"github.com/finbook-app/finbook/internal/ledger/shared"
)

// Service is the read path over committed journal entries.
type Service struct {
	repo  Repository
	cache *Cache
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Balances returns per-account balances for the tenant, optionally
// restricted to one account type. Results reflect only committed
// transactions.
func (s *Service) Balances(ctx context.Context, tenantID uuid.UUID, typeFilter accounts.AccountType) ([]AccountBalance, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant required", shared.ErrInvalidInput)
	}
	if typeFilter != "" && !typeFilter.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", shared.ErrInvalidInput, typeFilter)
	}
	key, err := s.cache.BuildKey(ctx, "balances", tenantID.String(), string(typeFilter))
	if err != nil {
		return nil, err
	}
	var out []AccountBalance
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.Balances(ctx, tenantID, typeFilter)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
