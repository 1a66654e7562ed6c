package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobsitesnap/rescue-engine/internal/rescue"
	"github.com/jobsitesnap/rescue-engine/internal/scan"
)

// NamingHandler drives the per-group confirmation state machine.
type NamingHandler struct {
	manager *scan.Manager
}

// NewNamingHandler creates a naming handler.
func NewNamingHandler(manager *scan.Manager) *NamingHandler {
	return &NamingHandler{manager: manager}
}

type nameRequest struct {
	Name string `json:"name"`
}

type namingResponse struct {
	ClusterID string        `json:"cluster_id"`
	Naming    rescue.Naming `json:"naming"`
}

// transition runs one state-machine event on a group under the session
// lock and renders the resulting state.
func (h *NamingHandler) transition(w http.ResponseWriter, r *http.Request, event func(g *scan.Group) error) {
	session, err := h.manager.Get(chi.URLParam(r, "scanID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	clusterID := chi.URLParam(r, "clusterID")

	var result rescue.Naming
	err = session.WithLock(func() error {
		g, ok := session.Groups[clusterID]
		if !ok {
			return scan.ErrClusterNotFound
		}
		// A group never shown a suggestion yet enters the flow when the
		// user first touches it.
		if g.Naming.State == rescue.StateEmpty {
			if err := g.Naming.ShowSuggestion(g.Geocode.Name); err != nil {
				return err
			}
		}
		if err := event(g); err != nil {
			result = *g.Naming
			return err
		}
		result = *g.Naming
		return nil
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, namingResponse{ClusterID: clusterID, Naming: result})
}

// Name handles POST .../clusters/{clusterID}/name (user typing).
func (h *NamingHandler) Name(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	h.transition(w, r, func(g *scan.Group) error {
		return g.Naming.Edit(req.Name)
	})
}

// Confirm handles POST .../clusters/{clusterID}/confirm.
func (h *NamingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	h.transition(w, r, func(g *scan.Group) error {
		return g.Naming.Confirm(req.Name)
	})
}

// Skip handles POST .../clusters/{clusterID}/skip.
func (h *NamingHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(g *scan.Group) error {
		return g.Naming.Skip()
	})
}

// Reopen handles POST .../clusters/{clusterID}/reopen.
func (h *NamingHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(g *scan.Group) error {
		return g.Naming.Reopen()
	})
}
