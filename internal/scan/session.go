package scan

import (
	"sync"
	"time"

	"github.com/jobsitesnap/rescue-engine/internal/cluster"
	"github.com/jobsitesnap/rescue-engine/internal/geocode"
	"github.com/jobsitesnap/rescue-engine/internal/rescue"
)

// ScanStatus represents the lifecycle state of a scan session.
type ScanStatus string

const (
	StatusReady   ScanStatus = "ready"
	StatusApplied ScanStatus = "applied"
	StatusUndone  ScanStatus = "undone"
)

// Group pairs a suggested cluster with its naming state and the
// reverse-geocoded pre-fill shown to the user.
type Group struct {
	Suggestion cluster.Suggestion `json:"suggestion"`
	Naming     *rescue.Naming     `json:"naming"`
	Geocode    geocode.Suggestion `json:"geocode"`
}

// Session holds everything a scan produced: the cluster result, the
// per-group naming state machines, and the per-bucket session
// assignments. All review mutations go through the session under its
// lock.
type Session struct {
	mu sync.RWMutex

	ScanID         string
	OrganizationID string
	CreatedAt      time.Time
	ExpiresAt      time.Time

	Stats   cluster.Stats
	Result  cluster.Result
	Groups  map[string]*Group                 // keyed by cluster ID
	Buckets map[string]*rescue.BuildingBucket // keyed by bucket ID

	// Unknown/noise photos acted on outside the plan flow. The cluster
	// result itself stays immutable; these record which leftovers were
	// already given a home or skipped.
	UnknownAssigned []string
	UnknownSkipped  []string

	Status  ScanStatus
	Receipt *ApplyReceipt
}

// ApplyReceipt records what an apply changed, so undo can revert it.
type ApplyReceipt struct {
	AppliedAt        time.Time `json:"appliedAt"`
	ProjectIDs       []string  `json:"projectIds"`
	ReviewedPhotoIDs []string  `json:"reviewedPhotoIds"`
	UndoToken        string    `json:"undoToken"`
}

// snapshot captures the domain state mutated during review, so a
// reverted apply can also restore the in-memory session. Only fields the
// review flow writes are copied; the cluster result itself is immutable.
type snapshot struct {
	status ScanStatus
	naming map[string]rescue.Naming
}

func (s *Session) takeSnapshot() snapshot {
	snap := snapshot{status: s.Status, naming: make(map[string]rescue.Naming, len(s.Groups))}
	for id, g := range s.Groups {
		snap.naming[id] = *g.Naming
	}
	return snap
}

func (s *Session) restoreSnapshot(snap snapshot) {
	s.Status = snap.status
	for id, n := range s.Groups {
		if prev, ok := snap.naming[id]; ok {
			*n.Naming = prev
		}
	}
}

// Group returns a group by cluster ID.
func (s *Session) Group(clusterID string) (*Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.Groups[clusterID]
	return g, ok
}

// Bucket returns a bucket by ID.
func (s *Session) Bucket(bucketID string) (*rescue.BuildingBucket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.Buckets[bucketID]
	return b, ok
}

// WithLock runs fn while holding the session write lock. Handlers use it
// for multi-step review mutations.
func (s *Session) WithLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// RLocked runs fn under the read lock.
func (s *Session) RLocked(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// unknownSelection filters the requested IDs down to unknown or noise
// photos that have not been assigned or skipped yet, preserving request
// order and dropping duplicates. Callers hold the session lock.
func (s *Session) unknownSelection(photoIDs []string) []string {
	eligible := make(map[string]bool, len(s.Result.Unknown)+len(s.Result.Noise))
	for _, id := range s.Result.Unknown {
		eligible[id] = true
	}
	for _, id := range s.Result.Noise {
		eligible[id] = true
	}
	for _, id := range s.UnknownAssigned {
		delete(eligible, id)
	}
	for _, id := range s.UnknownSkipped {
		delete(eligible, id)
	}

	var valid []string
	for _, id := range photoIDs {
		if eligible[id] {
			valid = append(valid, id)
			eligible[id] = false
		}
	}
	return valid
}

// planGroups flattens the session's groups in deterministic cluster
// order for plan generation.
func (s *Session) planGroups() []rescue.Group {
	groups := make([]rescue.Group, 0, len(s.Groups))
	for _, c := range s.Result.Clusters {
		g, ok := s.Groups[c.ClusterID]
		if !ok {
			continue
		}
		groups = append(groups, rescue.Group{
			ID:       c.ClusterID,
			PhotoIDs: c.PhotoIDs,
			Naming:   g.Naming,
		})
	}
	return groups
}
