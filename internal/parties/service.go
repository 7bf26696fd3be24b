package parties

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/audit"
	"github.com/finbook-app/finbook/internal/ledger/shared"
)

const defaultListLimit = 50

// Service manages customers and vendors for a tenant.
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

func (s *Service) CreateCustomer(ctx context.Context, tenantID, actorID uuid.UUID, req CreatePartyRequest) (Customer, error) {
	name := strings.TrimSpace(req.Name)
	if tenantID == uuid.Nil || name == "" {
		return Customer{}, fmt.Errorf("%w: tenant and name required", shared.ErrInvalidInput)
	}
	now := s.now()
	c := Customer{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertCustomer(ctx, c); err != nil {
		return Customer{}, err
	}
	s.recordAudit(ctx, tenantID, actorID, "customers", c.ID, "insert", nil, map[string]any{"name": c.Name})
	return c, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, tenantID, actorID, customerID uuid.UUID, req UpdatePartyRequest) (Customer, error) {
	existing, err := s.repo.GetCustomer(ctx, tenantID, customerID)
	if err != nil {
		return Customer{}, err
	}
	old := map[string]any{"name": existing.Name}
	applyPartyUpdate(&existing.Name, &existing.Email, &existing.Phone, &existing.Address, req)
	existing.UpdatedAt = s.now()
	if err := s.repo.UpdateCustomer(ctx, existing); err != nil {
		return Customer{}, err
	}
	s.recordAudit(ctx, tenantID, actorID, "customers", customerID, "update", old, map[string]any{"name": existing.Name})
	return existing, nil
}

func (s *Service) GetCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (Customer, error) {
	return s.repo.GetCustomer(ctx, tenantID, customerID)
}

func (s *Service) ListCustomers(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Customer, error) {
	clampFilters(&filters)
	return s.repo.ListCustomers(ctx, tenantID, filters)
}

func (s *Service) CreateVendor(ctx context.Context, tenantID, actorID uuid.UUID, req CreatePartyRequest) (Vendor, error) {
	name := strings.TrimSpace(req.Name)
	if tenantID == uuid.Nil || name == "" {
		return Vendor{}, fmt.Errorf("%w: tenant and name required", shared.ErrInvalidInput)
	}
	now := s.now()
	v := Vendor{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertVendor(ctx, v); err != nil {
		return Vendor{}, err
	}
	s.recordAudit(ctx, tenantID, actorID, "vendors", v.ID, "insert", nil, map[string]any{"name": v.Name})
	return v, nil
}

func (s *Service) UpdateVendor(ctx context.Context, tenantID, actorID, vendorID uuid.UUID, req UpdatePartyRequest) (Vendor, error) {
	existing, err := s.repo.GetVendor(ctx, tenantID, vendorID)
	if err != nil {
		return Vendor{}, err
	}
	old := map[string]any{"name": existing.Name}
	applyPartyUpdate(&existing.Name, &existing.Email, &existing.Phone, &existing.Address, req)
	existing.UpdatedAt = s.now()
	if err := s.repo.UpdateVendor(ctx, existing); err != nil {
		return Vendor{}, err
	}
	s.recordAudit(ctx, tenantID, actorID, "vendors", vendorID, "update", old, map[string]any{"name": existing.Name})
	return existing, nil
}

func (s *Service) GetVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (Vendor, error) {
	return s.repo.GetVendor(ctx, tenantID, vendorID)
}

func (s *Service) ListVendors(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Vendor, error) {
	clampFilters(&filters)
	return s.repo.ListVendors(ctx, tenantID, filters)
}

func applyPartyUpdate(name *string, email, phone, address **string, req UpdatePartyRequest) {
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		*name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		*email = req.Email
	}
	if req.Phone != nil {
		*phone = req.Phone
	}
	if req.Address != nil {
		*address = req.Address
	}
}

func clampFilters(filters *ListFilters) {
	if filters.Limit <= 0 || filters.Limit > 500 {
		filters.Limit = defaultListLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
}

func (s *Service) recordAudit(ctx context.Context, tenantID, actorID uuid.UUID, table string, recordID uuid.UUID, action string, old, new map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, audit.Entry{
		TenantID:  tenantID,
		ActorID:   actorID,
		Table:     table,
		RecordID:  recordID.String(),
		Action:    action,
		OldValues: old,
		NewValues: new,
		At:        s.now(),
	})
}
