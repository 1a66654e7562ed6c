package handlers

import (
	"net/http"

	"github.com/jobsitesnap/rescue-engine/internal/config"
	"github.com/jobsitesnap/rescue-engine/internal/scan"
	"github.com/jobsitesnap/rescue-engine/internal/store"
)

// maxMarkBatch caps one bulk classification request.
const maxMarkBatch = 500

// ReviewHandler serves the bulk review operations that work on photos
// directly, outside any scan session.
type ReviewHandler struct {
	cfg     *config.Config
	manager *scan.Manager
}

// NewReviewHandler creates a review handler.
func NewReviewHandler(cfg *config.Config, manager *scan.Manager) *ReviewHandler {
	return &ReviewHandler{cfg: cfg, manager: manager}
}

type markRequest struct {
	PhotoIDs       []string `json:"photo_ids"`
	Classification string   `json:"user_classification"`
}

type markResponse struct {
	Updated int `json:"updated"`
}

// Mark handles POST /rescue/review/mark: bulk-label photos as jobsite or
// personal shots. A null classification clears the label.
func (h *ReviewHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.PhotoIDs) < 1 || len(req.PhotoIDs) > maxMarkBatch {
		respondError(w, http.StatusBadRequest, "photo_ids must list 1 to 500 photos")
		return
	}
	if !store.ValidClassification(req.Classification) {
		respondError(w, http.StatusBadRequest, "user_classification must be jobsite, personal or null")
		return
	}

	updated, err := h.manager.Mark(r.Context(), h.cfg.Organization.ID, req.PhotoIDs, req.Classification)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, markResponse{Updated: updated})
}
