package cluster

import "time"

// Strategy names accepted in configuration and scan requests.
const (
	StrategyGridHash = "grid_hash"
	StrategyDensity  = "density"
)

// Config controls both clustering strategies. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// Strategy selects the clustering implementation.
	Strategy string `yaml:"strategy"`

	// GeohashPrecision is the spatial cell size for the grid-hash strategy.
	// Precision 7 is roughly 150 m.
	GeohashPrecision int `yaml:"geohash_precision"`

	// MaxGapDays is the temporal split threshold for the grid-hash strategy:
	// adjacent photos further apart than this land in separate clusters.
	MaxGapDays int `yaml:"max_gap_days"`

	// EpsMeters and MinPts parameterize the density strategy's neighbor
	// search. Points whose neighborhood stays below MinPts become noise.
	EpsMeters float64 `yaml:"eps_meters"`
	MinPts    int     `yaml:"min_pts"`

	// GapMinutes is the temporal split threshold for the density strategy.
	GapMinutes int `yaml:"gap_minutes"`

	// MaxAccuracyM treats photos reporting a worse GPS accuracy as having no
	// GPS at all. Zero disables the ceiling.
	MaxAccuracyM float64 `yaml:"max_accuracy_m"`
}

// DefaultConfig returns the deployed defaults: grid-hash cells of ~150 m with
// a 60 day split, and an 80 m / 6 photo density fallback with a 12 h split.
func DefaultConfig() Config {
	return Config{
		Strategy:         StrategyGridHash,
		GeohashPrecision: 7,
		MaxGapDays:       60,
		EpsMeters:        80,
		MinPts:           6,
		GapMinutes:       720,
		MaxAccuracyM:     100,
	}
}

// maxGap returns the temporal split threshold for the configured strategy.
func (c Config) maxGap() time.Duration {
	if c.Strategy == StrategyDensity {
		return time.Duration(c.GapMinutes) * time.Minute
	}
	return time.Duration(c.MaxGapDays) * 24 * time.Hour
}
