package balances

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/finbook-app/finbook/internal/ledger/accounts"
	"github.com/finbook-app/finbook/internal/platform/httpx"
)

// Handler wires HTTP endpoints for account balances. Concurrent requests
// for the same tenant and filter collapse into a single computation.
type Handler struct {
	logger  *slog.Logger
	service *Service
	group   singleflight.Group
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	typeFilter := accounts.AccountType(r.URL.Query().Get("type"))

	key := fmt.Sprintf("%s:%s", tenantID, typeFilter)
	result, err, _ := h.collapse(r.Context(), key, func(ctx context.Context) (any, error) {
		return h.service.Balances(ctx, tenantID, typeFilter)
	})
	if err != nil {
		h.logger.Error("compute balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	list, _ := result.([]AccountBalance)
	if list == nil {
		list = []AccountBalance{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	typeFilter := accounts.AccountType(r.URL.Query().Get("type"))

	list, err := h.service.Balances(r.Context(), tenantID, typeFilter)
	if err != nil {
		h.logger.Error("export balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="balances.csv"`)
	if err := WriteCSV(w, list); err != nil {
		h.logger.Error("write balances csv", slog.Any("error", err))
	}
}

func (h *Handler) collapse(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	resultChan := h.group.DoChan(key, func() (any, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
