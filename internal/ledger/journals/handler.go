package journals

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/ledger/shared"
	"github.com/finbook-app/finbook/internal/platform/httpx"
)

// Handler wires HTTP endpoints for manual journal postings and the
// transaction register.
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

type postingLineRequest struct {
	AccountID string  `json:"account_id" validate:"required,uuid4"`
	Debit     float64 `json:"debit" validate:"gte=0"`
	Credit    float64 `json:"credit" validate:"gte=0"`
}

type postingRequest struct {
	Date        string               `json:"date" validate:"required"`
	Description string               `json:"description" validate:"required,max=500"`
	VendorID    *string              `json:"vendor_id,omitempty" validate:"omitempty,uuid4"`
	Lines       []postingLineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	actorID, _ := httpx.ActorFromContext(r.Context())

	var req postingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrInvalidInput, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrInvalidInput, err))
		return
	}

	in, err := req.toInput(tenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	txn, err := h.service.Post(r.Context(), in, actorID)
	if err != nil {
		h.logger.Error("post journal", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, txn)
}

func (req postingRequest) toInput(tenantID uuid.UUID) (PostingInput, error) {
	date, err := shared.ParseDate(req.Date)
	if err != nil {
		return PostingInput{}, err
	}
	in := PostingInput{
		TenantID:    tenantID,
		Date:        date,
		Description: req.Description,
	}
	if req.VendorID != nil {
		vendorID, err := uuid.Parse(*req.VendorID)
		if err != nil {
			return PostingInput{}, fmt.Errorf("%w: invalid vendor id", shared.ErrInvalidInput)
		}
		in.VendorID = &vendorID
	}
	for idx, line := range req.Lines {
		accountID, err := uuid.Parse(line.AccountID)
		if err != nil {
			return PostingInput{}, fmt.Errorf("%w: line %d invalid account id", shared.ErrInvalidInput, idx)
		}
		in.Lines = append(in.Lines, PostingLine{
			AccountID: accountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}
	return in, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	list, err := h.service.List(r.Context(), tenantID, limit)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Transaction{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid transaction id", shared.ErrInvalidInput))
		return
	}
	txn, err := h.service.Get(r.Context(), tenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txn)
}
