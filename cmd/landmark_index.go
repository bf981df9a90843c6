package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/verdantlab/phenotrack/internal/config"
	"github.com/verdantlab/phenotrack/internal/database"
	"github.com/verdantlab/phenotrack/internal/database/postgres"
)

var landmarkIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build an HNSW index over the stored landmarks",
	Long: `Builds an in-memory HNSW index from all landmarks in PostgreSQL and
saves it to disk for fast similarity search without a database round trip.`,
	RunE: runLandmarkIndex,
}

func init() {
	landmarkCmd.AddCommand(landmarkIndexCmd)

	landmarkIndexCmd.Flags().String("out", "landmarks.hnsw", "Output path for the index")
}

func runLandmarkIndex(cmd *cobra.Command, args []string) error {
	out := mustGetString(cmd, "out")

	cfg := config.Load()
	if err := initDatabase(cfg); err != nil {
		return err
	}
	defer postgres.GetGlobalPool().Close()

	repo := postgres.NewLandmarkRepository(postgres.GetGlobalPool())
	landmarks, err := repo.List(context.Background())
	if err != nil {
		return err
	}
	if len(landmarks) == 0 {
		return fmt.Errorf("no landmarks stored, nothing to index")
	}

	idx := database.NewLandmarkIndex()
	if err := idx.BuildFromLandmarks(landmarks); err != nil {
		return err
	}

	var maxID int64
	for _, lm := range landmarks {
		if lm.ID > maxID {
			maxID = lm.ID
		}
	}
	meta := database.LandmarkIndexMetadata{
		LandmarkCount: int64(len(landmarks)),
		MaxLandmarkID: maxID,
		BuildTime:     time.Now(),
	}
	if err := idx.Save(out, meta); err != nil {
		return err
	}

	fmt.Printf("Indexed %d landmarks to %s\n", len(landmarks), out)
	return nil
}
