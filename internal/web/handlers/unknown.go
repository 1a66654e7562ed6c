package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jobsitesnap/rescue-engine/internal/scan"
)

// UnknownHandler acts on a scan's leftover photos: the unknown bucket
// (no usable GPS) and density noise. Leftovers can be skipped so they
// stop reappearing, or grouped into a project by hand.
type UnknownHandler struct {
	manager *scan.Manager
}

// NewUnknownHandler creates an unknown-bucket handler.
func NewUnknownHandler(manager *scan.Manager) *UnknownHandler {
	return &UnknownHandler{manager: manager}
}

type unknownSkipRequest struct {
	PhotoIDs []string `json:"photo_ids"`
}

type unknownAssignRequest struct {
	Name     string   `json:"name"`
	PhotoIDs []string `json:"photo_ids"`
}

type unknownActionResponse struct {
	Result     string   `json:"result"`
	ProjectID  string   `json:"project_id,omitempty"`
	PhotoIDs   []string `json:"photo_ids"`
	PhotoCount int      `json:"photo_count"`
}

// Skip handles POST .../unknown/skip: the named leftovers are marked
// reviewed and leave the candidate pool.
func (h *UnknownHandler) Skip(w http.ResponseWriter, r *http.Request) {
	var req unknownSkipRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.PhotoIDs) == 0 {
		respondError(w, http.StatusBadRequest, "photo_ids required")
		return
	}

	skipped, err := h.manager.SkipUnknown(r.Context(), chi.URLParam(r, "scanID"), req.PhotoIDs)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, unknownActionResponse{
		Result:     "skipped",
		PhotoIDs:   skipped,
		PhotoCount: len(skipped),
	})
}

// Assign handles POST .../unknown/assign: the named leftovers become a
// new project.
func (h *UnknownHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req unknownAssignRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.PhotoIDs) == 0 {
		respondError(w, http.StatusBadRequest, "photo_ids required")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "name required",
			"field": "name",
		})
		return
	}

	projectID, assigned, err := h.manager.AssignUnknown(r.Context(), chi.URLParam(r, "scanID"), name, req.PhotoIDs)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, unknownActionResponse{
		Result:     "assigned",
		ProjectID:  projectID,
		PhotoIDs:   assigned,
		PhotoCount: len(assigned),
	})
}
