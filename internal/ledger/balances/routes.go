package balances

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/balances", h.list)
	r.Get("/balances/export", h.exportCSV)
}
