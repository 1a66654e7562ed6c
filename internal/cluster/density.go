package cluster

import (
	"github.com/jobsitesnap/rescue-engine/internal/geo"
)

// densityStrategy clusters located photos with DBSCAN over haversine
// distance, then applies the shared temporal split inside each density
// cluster. Photos below the density threshold become noise: their fix is
// present but too isolated to trust, a different signal than missing GPS.
type densityStrategy struct {
	cfg Config
}

func (s *densityStrategy) Name() string { return StrategyDensity }

func (s *densityStrategy) Cluster(photos []CandidatePhoto) Result {
	located, unknown := splitByGPS(photos, s.cfg)

	groups, noiseIdx := dbscan(located, s.cfg.EpsMeters, s.cfg.MinPts)

	result := Result{Clusters: []Suggestion{}, Unknown: unknown, Noise: []string{}}
	maxGap := s.cfg.maxGap()

	for _, idxs := range groups {
		members := make([]CandidatePhoto, len(idxs))
		for i, idx := range idxs {
			members[i] = located[idx]
		}
		for _, segment := range Segments(members, maxGap) {
			result.Clusters = append(result.Clusters, makeSuggestion(segment, ""))
		}
	}

	for _, idx := range noiseIdx {
		result.Noise = append(result.Noise, located[idx].ID)
	}
	return result
}

// dbscan labels for point states during the sweep.
const (
	labelUnvisited = 0
	labelNoise     = 1
	labelClustered = 2
)

// dbscan runs density-based clustering over the located photos and returns
// clusters as index lists plus the indices left as noise. minPts counts the
// point itself. The sweep visits points in input order, so output is
// deterministic for a given input order.
func dbscan(points []CandidatePhoto, epsMeters float64, minPts int) (clusters [][]int, noise []int) {
	labels := make([]int, len(points))

	for i := range points {
		if labels[i] != labelUnvisited {
			continue
		}

		neighbors := regionQuery(points, i, epsMeters)
		if len(neighbors)+1 < minPts {
			labels[i] = labelNoise
			continue
		}

		var members []int
		labels[i] = labelClustered
		members = append(members, i)

		queue := append([]int{}, neighbors...)
		for len(queue) > 0 {
			curr := queue[0]
			queue = queue[1:]

			if labels[curr] == labelNoise {
				// Border point: previously noise, absorbed into the cluster.
				labels[curr] = labelClustered
				members = append(members, curr)
				continue
			}
			if labels[curr] != labelUnvisited {
				continue
			}
			labels[curr] = labelClustered
			members = append(members, curr)

			currNeighbors := regionQuery(points, curr, epsMeters)
			if len(currNeighbors)+1 >= minPts {
				queue = append(queue, currNeighbors...)
			}
		}

		clusters = append(clusters, members)
	}

	for i, l := range labels {
		if l == labelNoise {
			noise = append(noise, i)
		}
	}
	return clusters, noise
}

// regionQuery returns the indices of all points within epsMeters of point i,
// excluding i itself.
func regionQuery(points []CandidatePhoto, i int, epsMeters float64) []int {
	var out []int
	a := points[i].Location()
	for j := range points {
		if j == i {
			continue
		}
		if geo.DistanceMeters(a, points[j].Location()) <= epsMeters {
			out = append(out, j)
		}
	}
	return out
}
