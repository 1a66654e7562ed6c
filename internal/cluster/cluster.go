package cluster

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jobsitesnap/rescue-engine/internal/geo"
)

// defaultAccuracyM is reported in cluster stats when no photo in the cluster
// carries an accuracy value.
const defaultAccuracyM = 100

// Suggestion is a proposed, non-authoritative grouping of candidate photos.
// It is recomputed on every scan and never persisted as a record; ids are
// freshly generated per run.
type Suggestion struct {
	ClusterID string          `json:"cluster_id"`
	PhotoIDs  []string        `json:"photo_ids"`
	Centroid  geo.Point       `json:"centroid"`
	DateRange geo.DateRange   `json:"date_range"`
	Stats     SuggestionStats `json:"stats"`
	Basis     string          `json:"basis"`
	Geohash   string          `json:"geohash,omitempty"`
}

// SuggestionStats describes one cluster's size and data quality.
type SuggestionStats struct {
	Count           int     `json:"count"`
	GPSCount        int     `json:"gps_count"`
	MissingGPSCount int     `json:"missing_gps_count"`
	SpanMinutes     float64 `json:"span_minutes"`
	AvgAccuracyM    float64 `json:"avg_accuracy_m"`
}

// Result is the full partition of the candidate set. Every candidate photo
// appears in exactly one of Clusters, Unknown or Noise.
type Result struct {
	Clusters []Suggestion `json:"clusters"`
	// Unknown holds photos with no usable GPS fix.
	Unknown []string `json:"unknown"`
	// Noise holds photos whose GPS fix is present but too isolated to trust.
	// Only the density strategy produces noise.
	Noise []string `json:"noise"`
}

// PhotoCount returns the total number of photos across the partition.
func (r Result) PhotoCount() int {
	n := len(r.Unknown) + len(r.Noise)
	for _, c := range r.Clusters {
		n += len(c.PhotoIDs)
	}
	return n
}

// Strategy is one clustering implementation. Both strategies share the same
// contract: a pure function over the candidate list producing a disjoint
// partition, with the temporal split applied inside each spatial group.
type Strategy interface {
	Name() string
	Cluster(photos []CandidatePhoto) Result
}

// New returns the strategy selected by cfg.
func New(cfg Config) (Strategy, error) {
	switch cfg.Strategy {
	case StrategyGridHash, "":
		return &gridHashStrategy{cfg: cfg}, nil
	case StrategyDensity:
		return &densityStrategy{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown clustering strategy %q", cfg.Strategy)
	}
}

// Run partitions the candidates with the configured strategy and returns the
// partition together with the coverage stats. The stats always reconcile with
// the partition: with_gps == sum(cluster sizes) + len(noise) and
// missing_gps == len(unknown).
func Run(photos []CandidatePhoto, cfg Config) (Result, Stats, error) {
	strategy, err := New(cfg)
	if err != nil {
		return Result{}, Stats{}, err
	}
	return strategy.Cluster(photos), ComputeStats(photos, cfg), nil
}

// splitByGPS partitions candidates into those with a usable fix and those
// destined for the unknown bucket.
func splitByGPS(photos []CandidatePhoto, cfg Config) (located []CandidatePhoto, unknown []string) {
	unknown = []string{}
	for _, p := range photos {
		if p.HasUsableGPS(cfg.MaxAccuracyM) {
			located = append(located, p)
		} else {
			unknown = append(unknown, p.ID)
		}
	}
	return located, unknown
}

// makeSuggestion builds one ClusterSuggestion from a temporal segment.
// The segment must be non-empty and every photo must carry a usable fix.
func makeSuggestion(segment []CandidatePhoto, geohash string) Suggestion {
	ids := make([]string, len(segment))
	points := make([]geo.Point, len(segment))
	times := make([]time.Time, len(segment))

	basis := BasisTakenAt
	var sumAcc float64
	accCount := 0

	for i, p := range segment {
		ids[i] = p.ID
		points[i] = p.Location()

		t, b := p.EffectiveTime()
		times[i] = t
		if b == BasisCreatedAtFallback {
			basis = BasisCreatedAtFallback
		}
		if p.AccuracyM != nil {
			sumAcc += *p.AccuracyM
			accCount++
		}
	}

	centroid, _ := geo.Centroid(points)
	dateRange := geo.RangeOf(times)

	avgAcc := float64(defaultAccuracyM)
	if accCount > 0 {
		avgAcc = sumAcc / float64(accCount)
	}

	return Suggestion{
		ClusterID: newID("cl"),
		PhotoIDs:  ids,
		Centroid:  centroid,
		DateRange: dateRange,
		Stats: SuggestionStats{
			Count:           len(segment),
			GPSCount:        len(segment),
			MissingGPSCount: 0,
			SpanMinutes:     dateRange.SpanMinutes(),
			AvgAccuracyM:    avgAcc,
		},
		Basis:   basis,
		Geohash: geohash,
	}
}

// newID generates a prefixed short identifier, e.g. "cl_1f9a2b3c".
func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
