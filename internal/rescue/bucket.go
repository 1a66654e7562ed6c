package rescue

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jobsitesnap/rescue-engine/internal/cluster"
	"github.com/jobsitesnap/rescue-engine/internal/geo"
)

// DefaultSessionGap is the time-slice threshold for splitting a bucket into
// work sessions. Visits to different units of the same building are rarely
// closer together than an hour.
const DefaultSessionGap = 60 * time.Minute

var (
	// ErrSessionNotFound is returned when a session id does not exist in the bucket.
	ErrSessionNotFound = errors.New("session not found")

	// ErrBadSelection is returned when a split selects photos outside the
	// session, or nothing at all.
	ErrBadSelection = errors.New("invalid photo selection")
)

// SessionSegment is a time-sliced subdivision of a bucket. Its photo ids are
// disjoint from sibling sessions; Assignment is a human decision, never set
// automatically.
type SessionSegment struct {
	SessionID  string        `json:"session_id"`
	PhotoIDs   []string      `json:"photo_ids"`
	DateRange  geo.DateRange `json:"date_range"`
	Count      int           `json:"count"`
	Assignment Unit          `json:"assignment"`
}

// BuildingBucket is a cluster that plausibly spans multiple physical units
// and has been sliced into sessions for per-session unit assignment.
type BuildingBucket struct {
	BucketID  string            `json:"bucket_id"`
	ClusterID string            `json:"cluster_id"`
	Centroid  geo.Point         `json:"centroid"`
	PhotoIDs  []string          `json:"photo_ids"`
	Sessions  []*SessionSegment `json:"sessions"`

	// Assignments maps every photo in the bucket to its current unit.
	Assignments map[string]Unit `json:"assignments"`

	// LastUsedUnit is a UI convenience for one-tap repeat assignment. It is
	// not a majority computation and never influences auto-pick.
	LastUsedUnit Unit `json:"last_used_unit"`

	// photo effective times, kept for recomputing ranges on session split.
	times map[string]time.Time
}

// NewBucket slices the photos of one cluster suggestion into sessions by the
// given gap. The photo list may be the whole candidate set; only members of
// the suggestion end up in the bucket. Every photo starts unassigned.
func NewBucket(suggestion cluster.Suggestion, photos []cluster.CandidatePhoto, sessionGap time.Duration) *BuildingBucket {
	if sessionGap <= 0 {
		sessionGap = DefaultSessionGap
	}

	member := make(map[string]bool, len(suggestion.PhotoIDs))
	for _, id := range suggestion.PhotoIDs {
		member[id] = true
	}
	var members []cluster.CandidatePhoto
	for _, p := range photos {
		if member[p.ID] {
			members = append(members, p)
		}
	}

	b := &BuildingBucket{
		BucketID:    newID("bkt"),
		ClusterID:   suggestion.ClusterID,
		Centroid:    suggestion.Centroid,
		PhotoIDs:    append([]string{}, suggestion.PhotoIDs...),
		Assignments: make(map[string]Unit, len(members)),
		times:       make(map[string]time.Time, len(members)),
	}

	for _, p := range members {
		t, _ := p.EffectiveTime()
		b.times[p.ID] = t
		b.Assignments[p.ID] = Unassigned
	}

	for _, segment := range cluster.Segments(members, sessionGap) {
		ids := make([]string, len(segment))
		times := make([]time.Time, len(segment))
		for i, p := range segment {
			ids[i] = p.ID
			times[i], _ = p.EffectiveTime()
		}
		b.Sessions = append(b.Sessions, &SessionSegment{
			SessionID: newID("ses"),
			PhotoIDs:  ids,
			DateRange: geo.RangeOf(times),
			Count:     len(ids),
		})
	}
	return b
}

// Session returns the segment with the given id.
func (b *BuildingBucket) Session(sessionID string) (*SessionSegment, error) {
	for _, s := range b.Sessions {
		if s.SessionID == sessionID {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
}

// AssignSession assigns a unit to every photo in the session in one tap and
// remembers the unit as the bucket's last used destination.
func (b *BuildingBucket) AssignSession(sessionID string, unit Unit) error {
	session, err := b.Session(sessionID)
	if err != nil {
		return err
	}
	for _, id := range session.PhotoIDs {
		b.Assignments[id] = unit
	}
	session.Assignment = unit
	if unit.Assigned {
		b.LastUsedUnit = unit
	}
	return nil
}

// AssignPhotos assigns a unit to individual photos (the fix-mixed flow).
func (b *BuildingBucket) AssignPhotos(photoIDs []string, unit Unit) {
	for _, id := range photoIDs {
		if _, ok := b.Assignments[id]; ok {
			b.Assignments[id] = unit
		}
	}
	if unit.Assigned {
		b.LastUsedUnit = unit
	}
}

// DisplayState summarizes a session for the UI: "assigned" when every photo
// shares one unit, "mixed" when assignments disagree, otherwise "unassigned".
func (b *BuildingBucket) DisplayState(sessionID string) (string, error) {
	session, err := b.Session(sessionID)
	if err != nil {
		return "", err
	}

	units := make(map[Unit]struct{})
	for _, id := range session.PhotoIDs {
		units[b.Assignments[id]] = struct{}{}
	}

	if len(units) == 1 {
		for u := range units {
			if u.Assigned {
				return "assigned", nil
			}
		}
		return "unassigned", nil
	}
	if len(units) > 1 {
		return "mixed", nil
	}
	return "unassigned", nil
}

// AutoPick applies the majority rule to a session's current assignments.
func (b *BuildingBucket) AutoPick(sessionID string) (AutoPickResult, error) {
	session, err := b.Session(sessionID)
	if err != nil {
		return AutoPickResult{}, err
	}
	return ComputeMajority(session.PhotoIDs, b.Assignments), nil
}

// SplitSession pulls the given photos out of a session into a new unassigned
// session. The remaining and new photo sets are disjoint and together equal
// the original session; date ranges are recomputed for both. When every photo
// is pulled, the new session replaces the old one.
func (b *BuildingBucket) SplitSession(sessionID string, photoIDs []string) (string, error) {
	session, err := b.Session(sessionID)
	if err != nil {
		return "", err
	}

	pulled := make(map[string]bool, len(photoIDs))
	for _, id := range photoIDs {
		pulled[id] = true
	}

	member := make(map[string]bool, len(session.PhotoIDs))
	for _, id := range session.PhotoIDs {
		member[id] = true
	}
	for _, id := range photoIDs {
		if !member[id] {
			return "", fmt.Errorf("%w: photo %s is not part of session %s", ErrBadSelection, id, sessionID)
		}
	}
	if len(photoIDs) == 0 {
		return "", fmt.Errorf("%w: no photos selected", ErrBadSelection)
	}

	var remaining []string
	for _, id := range session.PhotoIDs {
		if !pulled[id] {
			remaining = append(remaining, id)
		}
	}

	newSession := &SessionSegment{
		SessionID: newID("ses"),
		PhotoIDs:  append([]string{}, photoIDs...),
		DateRange: b.rangeOf(photoIDs),
		Count:     len(photoIDs),
	}

	if len(remaining) == 0 {
		// Source emptied out; the new session takes its place.
		for i, s := range b.Sessions {
			if s.SessionID == sessionID {
				b.Sessions[i] = newSession
				break
			}
		}
		return newSession.SessionID, nil
	}

	session.PhotoIDs = remaining
	session.Count = len(remaining)
	session.DateRange = b.rangeOf(remaining)

	for i, s := range b.Sessions {
		if s.SessionID == sessionID {
			rest := append([]*SessionSegment{}, b.Sessions[i+1:]...)
			b.Sessions = append(b.Sessions[:i+1], newSession)
			b.Sessions = append(b.Sessions, rest...)
			break
		}
	}
	return newSession.SessionID, nil
}

func (b *BuildingBucket) rangeOf(photoIDs []string) geo.DateRange {
	times := make([]time.Time, 0, len(photoIDs))
	for _, id := range photoIDs {
		if t, ok := b.times[id]; ok {
			times = append(times, t)
		}
	}
	return geo.RangeOf(times)
}

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()[:8]
}
