package documents

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/ledger/shared"
	"github.com/finbook-app/finbook/internal/platform/httpx"
)

// Handler wires HTTP endpoints for invoices, bills and expenses.
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

type lineRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	AccountID   string  `json:"account_id" validate:"required,uuid4"`
}

type createInvoiceRequest struct {
	CustomerID string        `json:"customer_id" validate:"required,uuid4"`
	Date       string        `json:"date" validate:"required"`
	DueDate    *string       `json:"due_date,omitempty"`
	Notes      string        `json:"notes,omitempty" validate:"max=1000"`
	Lines      []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

type createBillRequest struct {
	VendorID string        `json:"vendor_id" validate:"required,uuid4"`
	Date     string        `json:"date" validate:"required"`
	DueDate  *string       `json:"due_date,omitempty"`
	Notes    string        `json:"notes,omitempty" validate:"max=1000"`
	Lines    []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

type expenseItemRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	AccountID   string  `json:"account_id" validate:"required,uuid4"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
}

type createExpenseRequest struct {
	VendorName       string               `json:"vendor_name" validate:"required,max=200"`
	Date             string               `json:"date" validate:"required"`
	Description      string               `json:"description,omitempty" validate:"max=500"`
	PaymentAccountID string               `json:"payment_account_id" validate:"required,uuid4"`
	Items            []expenseItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	actorID, _ := httpx.ActorFromContext(r.Context())

	var req createInvoiceRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid customer id", shared.ErrInvalidInput))
		return
	}
	date, dueDate, err := parseDocumentDates(req.Date, req.DueDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lines, err := toLineInputs(req.Lines)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoice, err := h.service.CreateInvoice(r.Context(), CreateInvoiceInput{
		TenantID:   tenantID,
		ActorID:    actorID,
		CustomerID: customerID,
		Date:       date,
		DueDate:    dueDate,
		Notes:      req.Notes,
		Lines:      lines,
	})
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	list, err := h.service.ListInvoices(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Invoice{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid invoice id", shared.ErrInvalidInput))
		return
	}
	invoice, err := h.service.GetInvoice(r.Context(), tenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	actorID, _ := httpx.ActorFromContext(r.Context())

	var req createBillRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid vendor id", shared.ErrInvalidInput))
		return
	}
	date, dueDate, err := parseDocumentDates(req.Date, req.DueDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lines, err := toLineInputs(req.Lines)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	bill, err := h.service.CreateBill(r.Context(), CreateBillInput{
		TenantID: tenantID,
		ActorID:  actorID,
		VendorID: vendorID,
		Date:     date,
		DueDate:  dueDate,
		Notes:    req.Notes,
		Lines:    lines,
	})
	if err != nil {
		h.logger.Error("create bill", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bill)
}

func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	list, err := h.service.ListBills(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list bills", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Bill{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) showBill(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid bill id", shared.ErrInvalidInput))
		return
	}
	bill, err := h.service.GetBill(r.Context(), tenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	actorID, _ := httpx.ActorFromContext(r.Context())

	var req createExpenseRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	paymentAccountID, err := uuid.Parse(req.PaymentAccountID)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid payment account id", shared.ErrInvalidInput))
		return
	}
	date, err := shared.ParseDate(req.Date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in := CreateExpenseInput{
		TenantID:         tenantID,
		ActorID:          actorID,
		VendorName:       req.VendorName,
		Date:             date,
		Description:      req.Description,
		PaymentAccountID: paymentAccountID,
	}
	for idx, item := range req.Items {
		accountID, err := uuid.Parse(item.AccountID)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: item %d invalid account id", shared.ErrInvalidInput, idx))
			return
		}
		in.Items = append(in.Items, ExpenseItemInput{
			Description:      item.Description,
			ExpenseAccountID: accountID,
			Amount:           item.Amount,
		})
	}
	txn, err := h.service.CreateExpense(r.Context(), in)
	if err != nil {
		h.logger.Error("create expense", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, txn)
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, err)
	}
	if err := h.validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, err)
	}
	return nil
}

func parseDocumentDates(date string, dueDate *string) (time.Time, *time.Time, error) {
	parsed, err := shared.ParseDate(date)
	if err != nil {
		return time.Time{}, nil, err
	}
	var due *time.Time
	if dueDate != nil {
		parsedDue, err := shared.ParseDate(*dueDate)
		if err != nil {
			return time.Time{}, nil, err
		}
		due = &parsedDue
	}
	return parsed, due, nil
}

func toLineInputs(lines []lineRequest) ([]LineInput, error) {
	out := make([]LineInput, 0, len(lines))
	for idx, line := range lines {
		accountID, err := uuid.Parse(line.AccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d invalid account id", shared.ErrInvalidInput, idx)
		}
		out = append(out, LineInput{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			AccountID:   accountID,
		})
	}
	return out, nil
}
