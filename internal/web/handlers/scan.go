package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobsitesnap/rescue-engine/internal/cluster"
	"github.com/jobsitesnap/rescue-engine/internal/config"
	"github.com/jobsitesnap/rescue-engine/internal/geo"
	"github.com/jobsitesnap/rescue-engine/internal/geocode"
	"github.com/jobsitesnap/rescue-engine/internal/rescue"
	"github.com/jobsitesnap/rescue-engine/internal/scan"
)

// ScopeUnassigned is the only scan scope the engine accepts: photos that
// are not in any project yet.
const ScopeUnassigned = "unassigned"

// ScanHandler runs scans and serves session snapshots.
type ScanHandler struct {
	cfg     *config.Config
	manager *scan.Manager
}

// NewScanHandler creates a scan handler.
func NewScanHandler(cfg *config.Config, manager *scan.Manager) *ScanHandler {
	return &ScanHandler{cfg: cfg, manager: manager}
}

type scanScope struct {
	Mode string `json:"mode"`
}

type scanRequest struct {
	Scope    scanScope `json:"scope"`
	Limit    int       `json:"limit"`
	Strategy string    `json:"strategy"`
}

type photoSet struct {
	PhotoIDs []string `json:"photo_ids"`
	Count    int      `json:"count"`
}

type groupView struct {
	cluster.Suggestion
	BucketID string             `json:"bucket_id,omitempty"`
	Naming   *rescue.Naming     `json:"naming"`
	Geocode  geocode.Suggestion `json:"geocode"`
}

type scanView struct {
	ScanID    string          `json:"scan_id"`
	Stateless bool            `json:"stateless"`
	Scope     scanScope       `json:"scope"`
	Status    scan.ScanStatus `json:"status"`
	Stats     cluster.Stats   `json:"stats"`
	DateRange *geo.DateRange  `json:"date_range,omitempty"`
	Clusters  []groupView     `json:"clusters"`
	Unknown   photoSet        `json:"unknown"`
	Noise     photoSet        `json:"noise"`
}

// Start handles POST /rescue/scan.
func (h *ScanHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.Scope.Mode != "" && req.Scope.Mode != ScopeUnassigned {
		respondDomainError(w, fmt.Errorf("%w: only %s is supported", scan.ErrInvalidScope, ScopeUnassigned))
		return
	}
	switch req.Strategy {
	case "", cluster.StrategyGridHash, cluster.StrategyDensity:
	default:
		respondError(w, http.StatusBadRequest, "unknown clustering strategy")
		return
	}

	session, err := h.manager.Run(r.Context(), h.cfg.Organization.ID, scan.ScanOptions{
		Limit:    req.Limit,
		Strategy: req.Strategy,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, buildScanView(session))
}

// Get handles GET /rescue/scan/{scanID}.
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.Get(chi.URLParam(r, "scanID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildScanView(session))
}

// Debug handles GET /rescue/scan/{scanID}/debug?stage=count|stats|clusters.
// Each stage reveals one pipeline layer, cheapest first.
func (h *ScanHandler) Debug(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.Get(chi.URLParam(r, "scanID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	stage := r.URL.Query().Get("stage")
	switch stage {
	case "count":
		respondJSON(w, http.StatusOK, map[string]any{
			"stage":           stage,
			"candidate_count": session.Stats.TotalCandidates,
		})
	case "stats":
		respondJSON(w, http.StatusOK, map[string]any{
			"stage": stage,
			"stats": session.Stats,
		})
	case "clusters":
		respondJSON(w, http.StatusOK, map[string]any{
			"stage":         stage,
			"stats":         session.Stats,
			"cluster_count": len(session.Result.Clusters),
			"noise_count":   len(session.Result.Noise),
			"unknown_count": len(session.Result.Unknown),
			"parameters":    h.cfg.Clustering,
		})
	default:
		respondError(w, http.StatusBadRequest, "stage must be count, stats or clusters")
	}
}

// buildScanView renders a session snapshot under the session read lock.
func buildScanView(session *scan.Session) scanView {
	var view scanView
	session.RLocked(func() {
		bucketByCluster := make(map[string]string, len(session.Buckets))
		for id, b := range session.Buckets {
			bucketByCluster[b.ClusterID] = id
		}

		groups := make([]groupView, 0, len(session.Result.Clusters))
		for _, suggestion := range session.Result.Clusters {
			gv := groupView{
				Suggestion: suggestion,
				BucketID:   bucketByCluster[suggestion.ClusterID],
			}
			if g, ok := session.Groups[suggestion.ClusterID]; ok {
				naming := *g.Naming // copied so encoding happens outside the lock
				gv.Naming = &naming
				gv.Geocode = g.Geocode
			}
			groups = append(groups, gv)
		}

		view = scanView{
			ScanID:    session.ScanID,
			Stateless: true,
			Scope:     scanScope{Mode: ScopeUnassigned},
			Status:    session.Status,
			Stats:     session.Stats,
			DateRange: overallRange(session.Result.Clusters),
			Clusters:  groups,
			Unknown:   photoSet{PhotoIDs: session.Result.Unknown, Count: len(session.Result.Unknown)},
			Noise:     photoSet{PhotoIDs: session.Result.Noise, Count: len(session.Result.Noise)},
		}
	})
	return view
}

// overallRange spans all cluster date ranges, nil when nothing clustered.
func overallRange(clusters []cluster.Suggestion) *geo.DateRange {
	if len(clusters) == 0 {
		return nil
	}
	r := clusters[0].DateRange
	for _, c := range clusters[1:] {
		if c.DateRange.Start.Before(r.Start) {
			r.Start = c.DateRange.Start
		}
		if c.DateRange.End.After(r.End) {
			r.End = c.DateRange.End
		}
	}
	return &r
}
