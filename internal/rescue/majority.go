package rescue

// MajorityThreshold is the minimum share of a session's photos a single unit
// must hold before auto-pick will act. Below it the rule returns an empty
// selection: genuine ambiguity is never auto-decided.
const MajorityThreshold = 0.70

// AutoPickResult is the outcome of the majority/minority rule for one session.
type AutoPickResult struct {
	MajorityUnit  Unit           `json:"majority_unit"`
	MajorityRatio float64        `json:"majority_ratio"`
	AutoPick      bool           `json:"auto_pick"`
	Selected      []string       `json:"selected"`
	Counts        map[string]int `json:"counts"`
}

// ComputeMajority tallies each unit's share of the session's photos,
// counting unassigned as its own value. When the top unit holds at least the
// threshold, Selected contains every photo whose assignment differs from it
// (the re-assignment candidates); otherwise Selected is empty and AutoPick
// is false.
func ComputeMajority(photoIDs []string, assignments map[string]Unit) AutoPickResult {
	counts := make(map[Unit]int)
	for _, id := range photoIDs {
		counts[assignments[id]]++
	}

	var majority Unit
	majorityCount := 0
	for u, c := range counts {
		if c > majorityCount {
			majorityCount = c
			majority = u
		}
	}

	displayCounts := make(map[string]int, len(counts))
	for u, c := range counts {
		displayCounts[u.String()] = c
	}

	total := len(photoIDs)
	ratio := 0.0
	if total > 0 {
		ratio = float64(majorityCount) / float64(total)
	}

	result := AutoPickResult{
		MajorityUnit:  majority,
		MajorityRatio: ratio,
		Selected:      []string{},
		Counts:        displayCounts,
	}

	if ratio < MajorityThreshold {
		return result
	}

	result.AutoPick = true
	for _, id := range photoIDs {
		if assignments[id] != majority {
			result.Selected = append(result.Selected, id)
		}
	}
	return result
}
