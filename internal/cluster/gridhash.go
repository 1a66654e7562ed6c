package cluster

import (
	"github.com/jobsitesnap/rescue-engine/internal/geo"
)

// gridHashStrategy is the canonical, deployed strategy: photos are bucketed
// into fixed-precision geohash cells, then each cell is split on time gaps.
// Every located photo ends up in a cluster; the grid variant produces no
// noise because even a single photo is a valid one-photo suggestion.
type gridHashStrategy struct {
	cfg Config
}

func (s *gridHashStrategy) Name() string { return StrategyGridHash }

func (s *gridHashStrategy) Cluster(photos []CandidatePhoto) Result {
	located, unknown := splitByGPS(photos, s.cfg)

	// Group by spatial cell, preserving first-seen cell order so cluster
	// emission order is deterministic for a given input order.
	cells := make(map[string][]CandidatePhoto)
	var order []string
	for _, p := range located {
		h := geo.EncodeGeohash(*p.Lat, *p.Lng, s.cfg.GeohashPrecision)
		if _, seen := cells[h]; !seen {
			order = append(order, h)
		}
		cells[h] = append(cells[h], p)
	}

	result := Result{Clusters: []Suggestion{}, Unknown: unknown, Noise: []string{}}
	maxGap := s.cfg.maxGap()

	for _, h := range order {
		for _, segment := range Segments(cells[h], maxGap) {
			result.Clusters = append(result.Clusters, makeSuggestion(segment, h))
		}
	}
	return result
}
