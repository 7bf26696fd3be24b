package accounts

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/ledger/shared"
	"github.com/finbook-app/finbook/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the chart of accounts.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

type createAccountRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=200"`
	Type        string `json:"type" validate:"required"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	list, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Account{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid account id", shared.ErrInvalidInput))
		return
	}
	account, err := h.service.Resolve(r.Context(), tenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	actorID, _ := httpx.ActorFromContext(r.Context())

	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrInvalidInput, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrInvalidInput, err))
		return
	}
	account, err := h.service.Create(r.Context(), CreateInput{
		TenantID:    tenantID,
		ActorID:     actorID,
		Code:        req.Code,
		Name:        req.Name,
		Type:        AccountType(req.Type),
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error("create account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	actorID, _ := httpx.ActorFromContext(r.Context())

	seeded, err := h.service.SeedDefaults(r.Context(), tenantID, actorID)
	if err != nil {
		h.logger.Error("seed accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if seeded == nil {
		seeded = []Account{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"seeded":   len(seeded),
		"accounts": seeded,
	})
}
