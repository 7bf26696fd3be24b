package payments

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/ledger/shared"
	"github.com/finbook-app/finbook/internal/platform/httpx"
)

// Handler wires HTTP endpoints for recording and listing payments.
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

type recordPaymentRequest struct {
	Type             string  `json:"type" validate:"required,oneof=customer_payment vendor_payment"`
	InvoiceID        *string `json:"invoice_id,omitempty" validate:"omitempty,uuid4"`
	BillID           *string `json:"bill_id,omitempty" validate:"omitempty,uuid4"`
	Amount           float64 `json:"amount" validate:"required,gt=0"`
	Method           string  `json:"method" validate:"required"`
	PaymentAccountID string  `json:"payment_account_id" validate:"required,uuid4"`
	Date             string  `json:"date" validate:"required"`
	Reference        string  `json:"reference,omitempty" validate:"max=100"`
	Notes            string  `json:"notes,omitempty" validate:"max=1000"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	actorID, _ := httpx.ActorFromContext(r.Context())

	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrInvalidInput, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrInvalidInput, err))
		return
	}

	in, err := req.toInput(tenantID, actorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.Record(r.Context(), in)
	if err != nil {
		h.logger.Error("record payment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (req recordPaymentRequest) toInput(tenantID, actorID uuid.UUID) (RecordInput, error) {
	date, err := shared.ParseDate(req.Date)
	if err != nil {
		return RecordInput{}, err
	}
	paymentAccountID, err := uuid.Parse(req.PaymentAccountID)
	if err != nil {
		return RecordInput{}, fmt.Errorf("%w: invalid payment account id", shared.ErrInvalidInput)
	}
	in := RecordInput{
		TenantID:         tenantID,
		ActorID:          actorID,
		Type:             PaymentType(req.Type),
		Amount:           req.Amount,
		Method:           req.Method,
		PaymentAccountID: paymentAccountID,
		Date:             date,
		Reference:        req.Reference,
		Notes:            req.Notes,
	}
	if req.InvoiceID != nil {
		invoiceID, err := uuid.Parse(*req.InvoiceID)
		if err != nil {
			return RecordInput{}, fmt.Errorf("%w: invalid invoice id", shared.ErrInvalidInput)
		}
		in.InvoiceID = &invoiceID
	}
	if req.BillID != nil {
		billID, err := uuid.Parse(*req.BillID)
		if err != nil {
			return RecordInput{}, fmt.Errorf("%w: invalid bill id", shared.ErrInvalidInput)
		}
		in.BillID = &billID
	}
	return in, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	list, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Payment{}
	}
	httpx.JSON(w, http.StatusOK, list)
}
