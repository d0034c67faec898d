package planning

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers plan ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quarterly-plans", func(r chi.Router) {
		r.Post("/", h.createQuarterlyPlan)
		r.Get("/{id}", h.getQuarterlyPlan)
		r.Put("/{id}", h.updateQuarterlyPlan)
		r.Delete("/{id}", h.deleteQuarterlyPlan)
		r.Get("/{id}/adjustments", h.listAdjustments)
	})

	r.Route("/monthly-plans", func(r chi.Router) {
		r.Post("/", h.createMonthlyPlan)
		r.Get("/{id}", h.getMonthlyPlan)
		r.Put("/{id}", h.updateMonthlyPlan)
		r.Delete("/{id}", h.deleteMonthlyPlan)
		r.Post("/{id}/move", h.moveMonthlyPlan)
		r.Post("/{id}/top-up", h.addTopUp)
	})

	r.Get("/contracts/{id}/quarterly-plans", h.listContractQuarterlyPlans)
	r.Get("/contracts/{id}/monthly-plans", h.listContractMonthlyPlans)
}
