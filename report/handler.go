package report

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finbook-app/finbook/internal/documents"
	"github.com/finbook-app/finbook/internal/ledger/shared"
	"github.com/finbook-app/finbook/internal/parties"
	"github.com/finbook-app/finbook/internal/platform/httpx"
)

// Handler serves printable PDFs for invoices and bills.
type Handler struct {
	logger    *slog.Logger
	client    *Client
	documents *documents.Service
	parties   *parties.Service
}

func NewHandler(logger *slog.Logger, client *Client, docs *documents.Service, part *parties.Service) *Handler {
	return &Handler{logger: logger, client: client, documents: docs, parties: part}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices/{id}/pdf", h.invoicePDF)
	r.Get("/bills/{id}/pdf", h.billPDF)
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid invoice id", shared.ErrInvalidInput))
		return
	}
	invoice, err := h.documents.GetInvoice(r.Context(), tenantID, invoiceID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	customerName := ""
	if customer, err := h.parties.GetCustomer(r.Context(), tenantID, invoice.CustomerID); err == nil {
		customerName = customer.Name
	}
	html, err := InvoiceHTML(invoice, customerName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.servePDF(w, r, html, invoice.Number)
}

func (h *Handler) billPDF(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := httpx.TenantFromContext(r.Context())
	billID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid bill id", shared.ErrInvalidInput))
		return
	}
	bill, err := h.documents.GetBill(r.Context(), tenantID, billID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	vendorName := ""
	if vendor, err := h.parties.GetVendor(r.Context(), tenantID, bill.VendorID); err == nil {
		vendorName = vendor.Name
	}
	html, err := BillHTML(bill, vendorName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.servePDF(w, r, html, bill.Number)
}

func (h *Handler) servePDF(w http.ResponseWriter, r *http.Request, html, number string) {
	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render pdf", slog.String("document", number), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "document renderer unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", number))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
