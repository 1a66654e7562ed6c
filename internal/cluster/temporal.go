package cluster

import (
	"sort"
	"time"
)

// Segments orders photos by their effective timestamp and splits the
// sequence wherever the gap between adjacent photos exceeds maxGap. Within a
// returned segment every adjacent pair is within maxGap; across a split the
// gap always exceeds it. Both clustering strategies and the building-bucket
// session slicing share this mechanism.
func Segments(photos []CandidatePhoto, maxGap time.Duration) [][]CandidatePhoto {
	if len(photos) == 0 {
		return nil
	}

	sorted := make([]CandidatePhoto, len(photos))
	copy(sorted, photos)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, _ := sorted[i].EffectiveTime()
		tj, _ := sorted[j].EffectiveTime()
		if ti.Equal(tj) {
			return sorted[i].ID < sorted[j].ID
		}
		return ti.Before(tj)
	})

	var segments [][]CandidatePhoto
	current := []CandidatePhoto{sorted[0]}
	prev, _ := sorted[0].EffectiveTime()

	for _, p := range sorted[1:] {
		t, _ := p.EffectiveTime()
		if t.Sub(prev) > maxGap {
			segments = append(segments, current)
			current = []CandidatePhoto{p}
		} else {
			current = append(current, p)
		}
		prev = t
	}
	segments = append(segments, current)
	return segments
}
