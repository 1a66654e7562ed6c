package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jobsitesnap/rescue-engine/internal/cluster"
)

//go:embed clustering.yaml
var clusteringDefaults []byte

// Config holds everything the engine reads from the environment plus the
// embedded clustering defaults. Call Load once at startup.
type Config struct {
	Organization OrganizationConfig
	Database     DatabaseConfig
	Geocode      GeocodeConfig
	Scan         ScanConfig
	Clustering   cluster.Config
}

type OrganizationConfig struct {
	ID string
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type GeocodeConfig struct {
	URL     string
	Timeout time.Duration
}

type ScanConfig struct {
	MaxLimit     int
	FetchTimeout time.Duration
	SessionTTL   time.Duration
	UndoTTL      time.Duration
}

// Load builds the configuration from environment variables. Only
// DATABASE_URL and ORGANIZATION_ID are required for the server; the CLI
// validates what it needs itself.
func Load() (*Config, error) {
	cfg := &Config{
		Organization: OrganizationConfig{
			ID: os.Getenv("ORGANIZATION_ID"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Geocode: GeocodeConfig{
			URL:     os.Getenv("GEOCODE_URL"),
			Timeout: envDuration("GEOCODE_TIMEOUT", 3*time.Second),
		},
		Scan: ScanConfig{
			MaxLimit:     envInt("SCAN_MAX_LIMIT", 2000),
			FetchTimeout: envDuration("SCAN_FETCH_TIMEOUT", 30*time.Second),
			SessionTTL:   envDuration("SCAN_SESSION_TTL", 2*time.Hour),
			UndoTTL:      envDuration("SCAN_UNDO_TTL", 24*time.Hour),
		},
		Clustering: clusteringConfig(),
	}

	if strategy := os.Getenv("CLUSTER_STRATEGY"); strategy != "" {
		cfg.Clustering.Strategy = strategy
	}

	return cfg, nil
}

func clusteringConfig() cluster.Config {
	var cfg cluster.Config
	if err := yaml.Unmarshal(clusteringDefaults, &cfg); err != nil {
		// The file is embedded at build time; a parse failure is a
		// packaging bug, not a runtime condition.
		panic(fmt.Sprintf("could not parse embedded clustering defaults: %s", err))
	}
	return cfg
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
