package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimelineRow is one audit event.
type TimelineRow struct {
	ID        uuid.UUID      `json:"id"`
	ActorID   uuid.UUID      `json:"actor_id"`
	Table     string         `json:"table_name"`
	RecordID  string         `json:"record_id"`
	Action    string         `json:"action"`
	OldValues map[string]any `json:"old_values,omitempty"`
	NewValues map[string]any `json:"new_values,omitempty"`
	At        time.Time      `json:"created_at"`
}

// TimelineFilters narrows the timeline query.
type TimelineFilters struct {
	Table    string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo describes the window returned by Timeline.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
}

// Result bundles timeline rows with paging information.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}

// TimelineRepository provides read access to audit_logs.
type TimelineRepository interface {
	TimelineWindow(ctx context.Context, tenantID uuid.UUID, filters TimelineFilters, limit, offset int) ([]TimelineRow, error)
}

// Service serves the audit history read path.
type Service struct {
	repo TimelineRepository
}

func NewService(repo TimelineRepository) *Service {
	return &Service{repo: repo}
}

// Timeline returns a page of audit events for the tenant, newest first.
func (s *Service) Timeline(ctx context.Context, tenantID uuid.UUID, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, err := s.repo.TimelineWindow(ctx, tenantID, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	return Result{
		Rows:   rows,
		Paging: PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext},
	}, nil
}
