package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jobsitesnap/rescue-engine/internal/config"
	"github.com/jobsitesnap/rescue-engine/internal/geocode"
	"github.com/jobsitesnap/rescue-engine/internal/scan"
	"github.com/jobsitesnap/rescue-engine/internal/store"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a rescue scan and print the suggested groups",
	Long: `Run a one-shot rescue scan against the organization's unassigned photo
pool and print the suggested groups. The scan is read-only: nothing is
created or assigned. Use the API's apply flow to act on suggestions.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Int("limit", 0, "Maximum number of candidates to scan (0 = configured maximum)")
	scanCmd.Flags().String("strategy", "", "Clustering strategy override (grid_hash or density)")
	scanCmd.Flags().Bool("geocode", false, "Resolve suggested names via the configured geocoder")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.Organization.ID == "" {
		return errors.New("ORGANIZATION_ID environment variable is required")
	}

	logger := newLogger()

	pool, err := store.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	defer pool.Close()

	var resolver geocode.Resolver = geocode.Noop{}
	if mustGetBool(cmd, "geocode") {
		resolver = geocode.NewClient(cfg.Geocode, logger)
	}

	manager := scan.NewManager(store.NewPhotoRepository(pool), resolver, cfg, logger)
	session, err := manager.Run(context.Background(), cfg.Organization.ID, scan.ScanOptions{
		Limit:    mustGetInt(cmd, "limit"),
		Strategy: mustGetString(cmd, "strategy"),
	})
	if err != nil {
		return fmt.Errorf("running scan: %w", err)
	}

	stats := session.Stats
	fmt.Printf("Scan %s\n", session.ScanID)
	fmt.Printf("Candidates: %d (with GPS: %d, missing GPS: %d, missing taken_at: %d)\n",
		stats.TotalCandidates, stats.WithGPS, stats.MissingGPS, stats.MissingTakenAt)
	fmt.Printf("Clusters: %d, noise: %d, unknown: %d\n\n",
		len(session.Result.Clusters), len(session.Result.Noise), len(session.Result.Unknown))

	bar := progressbar.NewOptions(len(session.Result.Clusters),
		progressbar.OptionSetDescription("Summarizing clusters"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	for _, c := range session.Result.Clusters {
		line := fmt.Sprintf("%s  %d photos  %s .. %s  (%.5f, %.5f)",
			c.ClusterID, len(c.PhotoIDs),
			c.DateRange.Start.Format("2006-01-02 15:04"),
			c.DateRange.End.Format("2006-01-02 15:04"),
			c.Centroid.Lat, c.Centroid.Lng)
		if g, ok := session.Group(c.ClusterID); ok && g.Geocode.Name != "" {
			line += fmt.Sprintf("  %q", g.Geocode.Name)
		}
		bar.Add(1)
		fmt.Println(line)
	}

	return nil
}
