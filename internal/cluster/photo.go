// Package cluster groups candidate photos into suggested job-site clusters
// using location and time proximity. It is purely computational: no I/O, no
// mutation, and the same input always yields the same partition of photo ids
// into clusters, the unknown bucket and the noise bucket.
package cluster

import (
	"time"

	"github.com/jobsitesnap/rescue-engine/internal/geo"
)

// Basis values report which timestamp field a cluster's ordering and date
// range were computed from, so UIs can be transparent about data quality.
const (
	BasisTakenAt           = "taken_at"
	BasisCreatedAtFallback = "created_at_fallback"
)

// CandidatePhoto is the metadata of one unassigned, unreviewed photo.
// Immutable once fetched; the external store owns the record.
type CandidatePhoto struct {
	ID        string     `json:"id"`
	TakenAt   *time.Time `json:"taken_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Lat       *float64   `json:"lat,omitempty"`
	Lng       *float64   `json:"lng,omitempty"`
	AccuracyM *float64   `json:"accuracy_m,omitempty"`
}

// EffectiveTime returns the timestamp used for sorting and date ranges:
// taken_at when present, otherwise the received (created_at) timestamp.
func (p CandidatePhoto) EffectiveTime() (time.Time, string) {
	if p.TakenAt != nil {
		return *p.TakenAt, BasisTakenAt
	}
	return p.CreatedAt, BasisCreatedAtFallback
}

// HasUsableGPS reports whether the photo carries a fix the clustering engine
// can trust: coordinates present and valid, and within the accuracy ceiling
// when one is configured and the photo reports accuracy at all.
func (p CandidatePhoto) HasUsableGPS(maxAccuracyM float64) bool {
	if p.Lat == nil || p.Lng == nil {
		return false
	}
	if !geo.Valid(*p.Lat, *p.Lng) {
		return false
	}
	if maxAccuracyM > 0 && p.AccuracyM != nil && *p.AccuracyM > maxAccuracyM {
		return false
	}
	return true
}

// Location returns the photo's coordinate. Only meaningful when HasUsableGPS.
func (p CandidatePhoto) Location() geo.Point {
	var pt geo.Point
	if p.Lat != nil && p.Lng != nil {
		pt.Lat = *p.Lat
		pt.Lng = *p.Lng
	}
	return pt
}
