package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobsitesnap/rescue-engine/internal/scan"
)

// PlanHandler serves plan generation, apply, and undo. The scan itself
// stays write-free; apply is the single mutation path.
type PlanHandler struct {
	manager *scan.Manager
}

// NewPlanHandler creates a plan handler.
func NewPlanHandler(manager *scan.Manager) *PlanHandler {
	return &PlanHandler{manager: manager}
}

// Plan handles GET .../plan.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.manager.Plan(chi.URLParam(r, "scanID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// Apply handles POST .../apply.
func (h *PlanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.manager.Apply(r.Context(), chi.URLParam(r, "scanID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// Undo handles POST /rescue/undo/{token}.
func (h *PlanHandler) Undo(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Undo(r.Context(), chi.URLParam(r, "token")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "undone"})
}
