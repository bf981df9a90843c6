package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/verdantlab/phenotrack/internal/config"
	"github.com/verdantlab/phenotrack/internal/database"
	"github.com/verdantlab/phenotrack/internal/database/mariadb"
	"github.com/verdantlab/phenotrack/internal/database/postgres"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import landmarks from a legacy snapshot database",
	Long: `Imports raw pseudo-landmark coordinates from a legacy MariaDB/MySQL
phenotyping database into the landmark store. Landmark names are built as
<plant>_s<snapshot>_d<date>_<point> so the imaging day stays recoverable.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("plant", "", "Only import snapshots of this plant id")
	importCmd.Flags().Bool("dry-run", false, "List what would be imported without writing")
}

func runImport(cmd *cobra.Command, args []string) error {
	plant := mustGetString(cmd, "plant")
	dryRun := mustGetBool(cmd, "dry-run")

	cfg := config.Load()
	if cfg.Snapshot.DatabaseURL == "" {
		return errors.New("SNAPSHOT_DATABASE_URL environment variable is required")
	}

	legacy, err := mariadb.NewPool(cfg.Snapshot.DatabaseURL)
	if err != nil {
		return err
	}
	defer legacy.Close()

	ctx := context.Background()

	var snapshots []mariadb.Snapshot
	if plant != "" {
		snapshots, err = legacy.SnapshotsForPlant(ctx, plant)
	} else {
		snapshots, err = legacy.Snapshots(ctx)
	}
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Println("No snapshots found")
		return nil
	}

	bar := progressbar.NewOptions(len(snapshots),
		progressbar.OptionSetDescription("Importing snapshots"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("snapshots"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var stored []database.StoredLandmark
	for _, snap := range snapshots {
		points, err := legacy.LandmarkPoints(ctx, snap.ID)
		if err != nil {
			return err
		}

		day := "d" + snap.TakenAt.Format("20060102")
		for _, pt := range points {
			// Legacy plant tags carry no underscores, so the day token
			// stays at the third position of the name.
			name := fmt.Sprintf("%s_s%d_%s_%s", snap.PlantID, snap.ID, day, pt.Name)
			stored = append(stored, database.StoredLandmark{
				Name:      name,
				Day:       day,
				Embedding: []float32{float32(pt.X), float32(pt.Y)},
				Dim:       2,
			})
		}
		bar.Add(1)
	}
	fmt.Println()

	if dryRun {
		total, err := legacy.CountSnapshots(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Would import %d landmarks from %d of %d snapshots\n", len(stored), len(snapshots), total)
		return nil
	}

	if err := initDatabase(cfg); err != nil {
		return err
	}
	defer postgres.GetGlobalPool().Close()

	repo := postgres.NewLandmarkRepository(postgres.GetGlobalPool())
	if err := repo.SaveBatch(ctx, stored); err != nil {
		return err
	}
	fmt.Printf("Imported %d landmarks from %d snapshots\n", len(stored), len(snapshots))
	return nil
}
