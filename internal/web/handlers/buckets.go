package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobsitesnap/rescue-engine/internal/rescue"
	"github.com/jobsitesnap/rescue-engine/internal/scan"
)

// BucketsHandler serves building buckets and the per-session assignment
// flow: one-tap bulk assign, auto-pick, and session splits.
type BucketsHandler struct {
	manager *scan.Manager
}

// NewBucketsHandler creates a buckets handler.
func NewBucketsHandler(manager *scan.Manager) *BucketsHandler {
	return &BucketsHandler{manager: manager}
}

type sessionView struct {
	rescue.SessionSegment
	DisplayState string `json:"display_state"`
}

type bucketView struct {
	BucketID     string                 `json:"bucket_id"`
	ClusterID    string                 `json:"cluster_id"`
	PhotoCount   int                    `json:"photo_count"`
	Sessions     []sessionView          `json:"sessions"`
	LastUsedUnit rescue.Unit            `json:"last_used_unit"`
	Assignments  map[string]rescue.Unit `json:"assignments"`
}

// List handles GET .../buckets.
func (h *BucketsHandler) List(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.Get(chi.URLParam(r, "scanID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var views []bucketView
	session.RLocked(func() {
		// Buckets follow cluster order for a stable response.
		byCluster := make(map[string]*rescue.BuildingBucket, len(session.Buckets))
		for _, b := range session.Buckets {
			byCluster[b.ClusterID] = b
		}
		for _, c := range session.Result.Clusters {
			b, ok := byCluster[c.ClusterID]
			if !ok {
				continue
			}
			views = append(views, buildBucketView(b))
		}
	})

	respondJSON(w, http.StatusOK, map[string]any{"buckets": views})
}

func buildBucketView(b *rescue.BuildingBucket) bucketView {
	view := bucketView{
		BucketID:     b.BucketID,
		ClusterID:    b.ClusterID,
		PhotoCount:   len(b.PhotoIDs),
		LastUsedUnit: b.LastUsedUnit,
		Assignments:  b.Assignments,
	}
	for _, s := range b.Sessions {
		state, _ := b.DisplayState(s.SessionID)
		view.Sessions = append(view.Sessions, sessionView{SessionSegment: *s, DisplayState: state})
	}
	return view
}

// withSession locates the bucket containing a session ID and runs fn on
// it under the scan session lock.
func (h *BucketsHandler) withSession(w http.ResponseWriter, r *http.Request, fn func(b *rescue.BuildingBucket, sessionID string) (any, error)) {
	session, err := h.manager.Get(chi.URLParam(r, "scanID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var response any
	err = session.WithLock(func() error {
		for _, b := range session.Buckets {
			if _, err := b.Session(sessionID); err == nil {
				resp, err := fn(b, sessionID)
				if err != nil {
					return err
				}
				response = resp
				return nil
			}
		}
		return rescue.ErrSessionNotFound
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

type assignRequest struct {
	UnitID   string   `json:"unit_id"`
	PhotoIDs []string `json:"photo_ids"`
}

// Assign handles POST .../sessions/{sessionID}/assign. Without photo_ids
// the whole session is assigned in one tap; with photo_ids only those
// photos move (the fix-mixed flow). An empty unit_id unassigns.
func (h *BucketsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	unit := rescue.Unassigned
	if req.UnitID != "" {
		unit = rescue.UnitOf(req.UnitID)
	}

	h.withSession(w, r, func(b *rescue.BuildingBucket, sessionID string) (any, error) {
		if len(req.PhotoIDs) > 0 {
			b.AssignPhotos(req.PhotoIDs, unit)
		} else if err := b.AssignSession(sessionID, unit); err != nil {
			return nil, err
		}
		state, err := b.DisplayState(sessionID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"session_id":     sessionID,
			"display_state":  state,
			"last_used_unit": b.LastUsedUnit,
		}, nil
	})
}

// AutoPick handles POST .../sessions/{sessionID}/autopick. The majority
// rule only reports; applying the pick stays an explicit user action via
// the apply flag.
func (h *BucketsHandler) AutoPick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Apply bool `json:"apply"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	h.withSession(w, r, func(b *rescue.BuildingBucket, sessionID string) (any, error) {
		result, err := b.AutoPick(sessionID)
		if err != nil {
			return nil, err
		}
		if req.Apply && result.AutoPick {
			b.AssignPhotos(result.Selected, result.MajorityUnit)
		}
		return map[string]any{
			"session_id": sessionID,
			"result":     result,
			"applied":    req.Apply && result.AutoPick,
		}, nil
	})
}

// Split handles POST .../sessions/{sessionID}/split.
func (h *BucketsHandler) Split(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhotoIDs []string `json:"photo_ids"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	h.withSession(w, r, func(b *rescue.BuildingBucket, sessionID string) (any, error) {
		newID, err := b.SplitSession(sessionID, req.PhotoIDs)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"session_id":     sessionID,
			"new_session_id": newID,
			"bucket":         buildBucketView(b),
		}, nil
	})
}
