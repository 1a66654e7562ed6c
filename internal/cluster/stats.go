package cluster

// Stats is the coverage breakdown over the whole candidate set. It is cheap
// to compute without running clustering, so debug endpoints can return it on
// its own, and it reconciles exactly with the partition a full run produces:
// WithGPS equals the photos landing in clusters plus noise, MissingGPS equals
// the unknown bucket.
type Stats struct {
	TotalCandidates int `json:"total_candidates"`
	WithTakenAt     int `json:"with_taken_at"`
	MissingTakenAt  int `json:"missing_taken_at"`
	WithGPS         int `json:"with_gps"`
	MissingGPS      int `json:"missing_gps"`
}

// ComputeStats counts candidates by timestamp and GPS coverage. A photo
// counts as WithGPS only when its fix is usable under the configured
// accuracy ceiling, mirroring the gate the clustering pass applies.
func ComputeStats(photos []CandidatePhoto, cfg Config) Stats {
	s := Stats{TotalCandidates: len(photos)}
	for _, p := range photos {
		if p.TakenAt != nil {
			s.WithTakenAt++
		} else {
			s.MissingTakenAt++
		}
		if p.HasUsableGPS(cfg.MaxAccuracyM) {
			s.WithGPS++
		} else {
			s.MissingGPS++
		}
	}
	return s
}
