package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"govreporter/internal/models"
	"govreporter/internal/tracker"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show vector store collections and ingestion progress",
	Long: `Prints every Qdrant collection with its point count and vector layout,
then the per-type progress tracker statistics when tracker files exist.`,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	collections, err := store.ListCollections(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Collections (%d):\n", len(collections))
	for _, name := range collections {
		details, err := store.CollectionInfo(cmd.Context(), name)
		if err != nil {
			fmt.Printf("  %s: %v\n", name, err)
			continue
		}
		fmt.Printf("  %s: %d points, %d dims, %s\n",
			name, details.PointsCount, details.VectorSize, details.Distance)
	}

	for _, kind := range []models.DocumentKind{models.KindSCOTUS, models.KindExecutiveOrder} {
		path := trackerPath(cfg, kind)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		tr, err := tracker.New(path, kind.String())
		if err != nil {
			return err
		}
		stats, err := tr.GetStatistics()
		tr.Close()
		if err != nil {
			return err
		}
		fmt.Printf("\nProgress for %s (%s):\n", kind.String(), path)
		fmt.Printf("  %d total, %d completed, %d failed, %d pending, %d processing\n",
			stats.Total, stats.Completed, stats.Failed, stats.Pending, stats.Processing)
		if stats.Completed > 0 {
			fmt.Printf("  success rate %.1f%%, avg %.0fms per document\n",
				stats.SuccessRate*100, stats.AvgProcessingTimeMS)
		}
	}
	return nil
}
