package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/verdantlab/phenotrack/internal/config"
	"github.com/verdantlab/phenotrack/internal/database"
	"github.com/verdantlab/phenotrack/internal/database/postgres"
)

var landmarkSimilarCmd = &cobra.Command{
	Use:   "similar [embedding]",
	Short: "Find stored landmarks nearest to an embedding",
	Long: `Finds the stored pseudo-landmarks nearest to the given embedding, a
comma-separated list of coordinates. Searches a saved HNSW index when
--index is given, otherwise queries PostgreSQL.`,
	Args: cobra.ExactArgs(1),
	RunE: runLandmarkSimilar,
}

func init() {
	landmarkCmd.AddCommand(landmarkSimilarCmd)

	landmarkSimilarCmd.Flags().Int("limit", 10, "Maximum number of results")
	landmarkSimilarCmd.Flags().String("index", "", "Path to a saved HNSW index")
}

func parseEmbedding(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	embedding := make([]float32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid embedding coordinate %q: %w", p, err)
		}
		embedding = append(embedding, float32(v))
	}
	return embedding, nil
}

func runLandmarkSimilar(cmd *cobra.Command, args []string) error {
	embedding, err := parseEmbedding(args[0])
	if err != nil {
		return err
	}
	limit := mustGetInt(cmd, "limit")
	indexPath := mustGetString(cmd, "index")

	if indexPath != "" {
		return similarFromIndex(indexPath, embedding, limit)
	}
	return similarFromDatabase(embedding, limit)
}

func similarFromIndex(path string, embedding []float32, limit int) error {
	idx := database.NewLandmarkIndex()
	if err := idx.Load(path); err != nil {
		return err
	}

	ids, distances, err := idx.Search(embedding, limit)
	if err != nil {
		return err
	}

	for i, id := range ids {
		lm := idx.GetLandmark(id)
		if lm == nil {
			continue
		}
		printSimilarLandmark(*lm, distances[i])
	}
	return nil
}

func similarFromDatabase(embedding []float32, limit int) error {
	cfg := config.Load()
	if err := initDatabase(cfg); err != nil {
		return err
	}
	defer postgres.GetGlobalPool().Close()

	repo := postgres.NewLandmarkRepository(postgres.GetGlobalPool())
	landmarks, distances, err := repo.FindSimilar(context.Background(), embedding, limit)
	if err != nil {
		return err
	}

	for i, lm := range landmarks {
		printSimilarLandmark(lm, distances[i])
	}
	return nil
}

func printSimilarLandmark(lm database.StoredLandmark, distance float64) {
	group := "-"
	if lm.Group.Valid {
		group = strconv.FormatInt(lm.Group.Int64, 10)
	}
	fmt.Printf("%-40s day=%-10s group=%-6s distance=%.4f\n", lm.Name, lm.Day, group, distance)
}
