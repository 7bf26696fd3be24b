package parties

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customers", h.listCustomers)
	r.Post("/customers", h.createCustomer)
	r.Get("/customers/{id}", h.showCustomer)
	r.Patch("/customers/{id}", h.updateCustomer)

	r.Get("/vendors", h.listVendors)
	r.Post("/vendors", h.createVendor)
	r.Get("/vendors/{id}", h.showVendor)
	r.Patch("/vendors/{id}", h.updateVendor)
}
