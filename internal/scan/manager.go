// Package scan orchestrates rescue scans: it pulls candidates from the
// store, runs clustering, attaches naming and bucket state, and tracks
// live sessions through review, apply, and undo.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jobsitesnap/rescue-engine/internal/cluster"
	"github.com/jobsitesnap/rescue-engine/internal/config"
	"github.com/jobsitesnap/rescue-engine/internal/geocode"
	"github.com/jobsitesnap/rescue-engine/internal/rescue"
	"github.com/jobsitesnap/rescue-engine/internal/store"
)

var (
	// ErrScanNotFound is returned for unknown or expired scan IDs.
	ErrScanNotFound = errors.New("scan: not found or expired")

	// ErrClusterNotFound is returned when a cluster ID does not belong
	// to the scan.
	ErrClusterNotFound = errors.New("scan: cluster not found")

	// ErrBucketNotFound is returned when a bucket ID does not belong to
	// the scan.
	ErrBucketNotFound = errors.New("scan: bucket not found")

	// ErrInvalidScope rejects scan scopes other than the unassigned pool.
	ErrInvalidScope = errors.New("scan: invalid scope")

	// ErrNotUnknown rejects unknown-bucket actions whose photos are not
	// in the scan's unknown or noise sets, or were already acted on.
	ErrNotUnknown = errors.New("scan: photos not in the unknown set")

	// ErrInvalidToken is returned when an undo token is unknown,
	// expired, or already redeemed.
	ErrInvalidToken = errors.New("scan: invalid undo token")

	// ErrAlreadyApplied guards against double-applying a scan.
	ErrAlreadyApplied = errors.New("scan: plan already applied")

	// ErrNotApplied is returned when undo is attempted on a scan whose
	// plan never ran.
	ErrNotApplied = errors.New("scan: plan not applied")
)

// ScanOptions tune a single scan run.
type ScanOptions struct {
	Limit    int    // 0 means the configured maximum
	Strategy string // "" means the configured default
}

// Manager owns live scan sessions and the undo-token registry. Sessions
// are in-memory with a TTL; undo tokens live in a go-cache with the
// configured undo window.
type Manager struct {
	store    store.Store
	resolver geocode.Resolver
	cfg      *config.Config
	logger   zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	undoTokens *gocache.Cache // token -> scan ID
}

// NewManager wires a manager from its dependencies.
func NewManager(st store.Store, resolver geocode.Resolver, cfg *config.Config, logger zerolog.Logger) *Manager {
	return &Manager{
		store:      st,
		resolver:   resolver,
		cfg:        cfg,
		logger:     logger.With().Str("component", "scan").Logger(),
		sessions:   make(map[string]*Session),
		undoTokens: gocache.New(cfg.Scan.UndoTTL, 10*time.Minute),
	}
}

// Run executes a full scan for the organization and registers the
// resulting session.
func (m *Manager) Run(ctx context.Context, organizationID string, opts ScanOptions) (*Session, error) {
	limit := opts.Limit
	if limit <= 0 || limit > m.cfg.Scan.MaxLimit {
		limit = m.cfg.Scan.MaxLimit
	}

	fetchCtx, cancel := context.WithTimeout(ctx, m.cfg.Scan.FetchTimeout)
	defer cancel()

	photos, err := m.store.Candidates(fetchCtx, store.CandidateQuery{
		OrganizationID: organizationID,
		Limit:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}

	clusterCfg := m.cfg.Clustering
	if opts.Strategy != "" {
		clusterCfg.Strategy = opts.Strategy
	}

	result, stats, err := cluster.Run(photos, clusterCfg)
	if err != nil {
		return nil, fmt.Errorf("clustering candidates: %w", err)
	}

	now := time.Now()
	session := &Session{
		ScanID:         "rs_" + uuid.NewString()[:8],
		OrganizationID: organizationID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.cfg.Scan.SessionTTL),
		Stats:          stats,
		Result:         result,
		Groups:         make(map[string]*Group, len(result.Clusters)),
		Buckets:        make(map[string]*rescue.BuildingBucket, len(result.Clusters)),
		Status:         StatusReady,
	}

	for _, suggestion := range result.Clusters {
		naming := rescue.NewNaming()
		hint := m.resolver.Reverse(ctx, suggestion.Centroid)
		if hint.Name != "" {
			if err := naming.ShowSuggestion(hint.Name); err != nil {
				return nil, fmt.Errorf("seeding naming for %s: %w", suggestion.ClusterID, err)
			}
		}
		session.Groups[suggestion.ClusterID] = &Group{
			Suggestion: suggestion,
			Naming:     naming,
			Geocode:    hint,
		}

		bucket := rescue.NewBucket(suggestion, photos, rescue.DefaultSessionGap)
		session.Buckets[bucket.BucketID] = bucket
	}

	m.mu.Lock()
	m.sessions[session.ScanID] = session
	m.mu.Unlock()

	m.logger.Info().
		Str("scan_id", session.ScanID).
		Str("organization_id", organizationID).
		Int("candidates", stats.TotalCandidates).
		Int("clusters", len(result.Clusters)).
		Int("noise", len(result.Noise)).
		Int("unknown", len(result.Unknown)).
		Msg("scan completed")

	return session, nil
}

// Get returns a live session. Expired sessions are evicted on access.
func (m *Manager) Get(scanID string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[scanID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrScanNotFound
	}
	if time.Now().After(session.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, scanID)
		m.mu.Unlock()
		return nil, ErrScanNotFound
	}
	return session, nil
}

// Delete drops a session.
func (m *Manager) Delete(scanID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, scanID)
}

// Plan generates the current plan for a session without applying it.
func (m *Manager) Plan(scanID string) (rescue.Plan, error) {
	session, err := m.Get(scanID)
	if err != nil {
		return rescue.Plan{}, err
	}

	var plan rescue.Plan
	session.RLocked(func() {
		plan = rescue.GeneratePlan(session.ScanID, session.planGroups())
	})
	return plan, nil
}

// Apply executes the plan against the store and issues an undo token.
// Store writes are per-action transactional; a failure partway leaves
// earlier actions committed and reports the error, matching how the UI
// retries.
func (m *Manager) Apply(ctx context.Context, scanID string) (*ApplyReceipt, error) {
	session, err := m.Get(scanID)
	if err != nil {
		return nil, err
	}

	var receipt *ApplyReceipt
	err = session.WithLock(func() error {
		if session.Status == StatusApplied {
			return ErrAlreadyApplied
		}

		snap := session.takeSnapshot()
		plan := rescue.GeneratePlan(session.ScanID, session.planGroups())

		r := &ApplyReceipt{AppliedAt: time.Now()}
		for _, action := range plan.Actions {
			switch action.Type {
			case rescue.ActionCreateProject:
				projectID, err := m.store.CreateProject(ctx, session.OrganizationID, action.Name, action.PhotoIDs)
				if err != nil {
					m.revertPartial(ctx, session, r)
					session.restoreSnapshot(snap)
					return fmt.Errorf("creating project %q: %w", action.Name, err)
				}
				r.ProjectIDs = append(r.ProjectIDs, projectID)
			case rescue.ActionKeepUnassigned:
				if err := m.store.MarkReviewed(ctx, session.OrganizationID, action.PhotoIDs); err != nil {
					m.revertPartial(ctx, session, r)
					session.restoreSnapshot(snap)
					return fmt.Errorf("marking photos reviewed: %w", err)
				}
				r.ReviewedPhotoIDs = append(r.ReviewedPhotoIDs, action.PhotoIDs...)
			}
		}

		r.UndoToken = uuid.NewString()
		m.undoTokens.SetDefault(r.UndoToken, session.ScanID)

		session.Status = StatusApplied
		session.Receipt = r
		receipt = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("scan_id", scanID).
		Int("projects", len(receipt.ProjectIDs)).
		Int("reviewed", len(receipt.ReviewedPhotoIDs)).
		Msg("plan applied")

	return receipt, nil
}

// SkipUnknown marks photos from the scan's unknown or noise sets as
// reviewed so they stop reappearing in future scans. IDs outside those
// sets, or already acted on, are dropped; an empty remainder is
// rejected. Returns the photo IDs actually skipped.
func (m *Manager) SkipUnknown(ctx context.Context, scanID string, photoIDs []string) ([]string, error) {
	session, err := m.Get(scanID)
	if err != nil {
		return nil, err
	}

	var skipped []string
	err = session.WithLock(func() error {
		valid := session.unknownSelection(photoIDs)
		if len(valid) == 0 {
			return ErrNotUnknown
		}
		if err := m.store.MarkReviewed(ctx, session.OrganizationID, valid); err != nil {
			return fmt.Errorf("skipping unknown photos: %w", err)
		}
		session.UnknownSkipped = append(session.UnknownSkipped, valid...)
		skipped = valid
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("scan_id", scanID).
		Int("photos", len(skipped)).
		Msg("unknown photos skipped")
	return skipped, nil
}

// AssignUnknown creates a project from photos in the scan's unknown or
// noise sets, giving leftovers without a usable cluster a home. Returns
// the new project ID and the photos actually assigned.
func (m *Manager) AssignUnknown(ctx context.Context, scanID, name string, photoIDs []string) (string, []string, error) {
	session, err := m.Get(scanID)
	if err != nil {
		return "", nil, err
	}

	var (
		projectID string
		assigned  []string
	)
	err = session.WithLock(func() error {
		valid := session.unknownSelection(photoIDs)
		if len(valid) == 0 {
			return ErrNotUnknown
		}
		id, err := m.store.CreateProject(ctx, session.OrganizationID, name, valid)
		if err != nil {
			return fmt.Errorf("assigning unknown photos: %w", err)
		}
		session.UnknownAssigned = append(session.UnknownAssigned, valid...)
		projectID = id
		assigned = valid
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	m.logger.Info().
		Str("scan_id", scanID).
		Str("project_id", projectID).
		Int("photos", len(assigned)).
		Msg("unknown photos assigned")
	return projectID, assigned, nil
}

// Mark bulk-classifies photos as jobsite or personal shots. It is
// independent of any scan session; classification never affects the
// candidate pool.
func (m *Manager) Mark(ctx context.Context, organizationID string, photoIDs []string, classification string) (int, error) {
	updated, err := m.store.Mark(ctx, organizationID, photoIDs, classification)
	if err != nil {
		return 0, fmt.Errorf("marking photos: %w", err)
	}

	m.logger.Info().
		Str("organization_id", organizationID).
		Str("classification", classification).
		Int("updated", updated).
		Msg("photos classified")
	return updated, nil
}

// revertPartial rolls back the actions committed before a mid-apply
// failure, restoring all-or-nothing semantics at the plan level.
func (m *Manager) revertPartial(ctx context.Context, session *Session, r *ApplyReceipt) {
	if len(r.ProjectIDs) == 0 && len(r.ReviewedPhotoIDs) == 0 {
		return
	}
	if err := m.store.Revert(ctx, session.OrganizationID, r.ProjectIDs, r.ReviewedPhotoIDs); err != nil {
		m.logger.Error().Err(err).
			Str("scan_id", session.ScanID).
			Msg("could not roll back partial apply")
	}
}

// Undo redeems a token and reverts the apply it belongs to. Tokens are
// single-use and expire after the configured undo window.
func (m *Manager) Undo(ctx context.Context, token string) error {
	raw, ok := m.undoTokens.Get(token)
	if !ok {
		return ErrInvalidToken
	}
	scanID := raw.(string)

	session, err := m.Get(scanID)
	if err != nil {
		// The session may have expired; the token alone is not enough
		// to rebuild what was applied.
		return ErrInvalidToken
	}

	err = session.WithLock(func() error {
		if session.Status != StatusApplied || session.Receipt == nil {
			return ErrNotApplied
		}
		if err := m.store.Revert(ctx, session.OrganizationID, session.Receipt.ProjectIDs, session.Receipt.ReviewedPhotoIDs); err != nil {
			return fmt.Errorf("reverting apply: %w", err)
		}
		session.Status = StatusUndone
		session.Receipt = nil
		return nil
	})
	if err != nil {
		return err
	}

	m.undoTokens.Delete(token)
	m.logger.Info().Str("scan_id", scanID).Msg("apply undone")
	return nil
}
