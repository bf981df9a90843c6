package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/verdantlab/phenotrack/internal/config"
	"github.com/verdantlab/phenotrack/internal/database/postgres"
	"github.com/verdantlab/phenotrack/internal/homology"
	"github.com/verdantlab/phenotrack/internal/landmarks"
	"github.com/verdantlab/phenotrack/internal/viz"
)

var groupCmd = &cobra.Command{
	Use:   "group [landmarks.csv]",
	Short: "Assign homology groups to a pseudo-landmark table",
	Long: `Reads a pseudo-landmark CSV table, clusters the landmark embeddings and
assigns homology group identities that link the same anatomical feature
across imaging days. Landmarks that already carry a group keep it.`,
	Args: cobra.ExactArgs(1),
	RunE: runGroup,
}

func init() {
	rootCmd.AddCommand(groupCmd)

	groupCmd.Flags().Int("group-iter", 0, "First group id to mint")
	groupCmd.Flags().String("debug", "off", "Debug mode: off, print or plot")
	groupCmd.Flags().String("out-prefix", "", "Path prefix for debug charts (defaults to the input name)")
	groupCmd.Flags().String("output", "", "Output CSV path (defaults to stdout)")
	groupCmd.Flags().Bool("save-db", false, "Persist the grouped landmarks to PostgreSQL")
}

func runGroup(cmd *cobra.Command, args []string) error {
	path := args[0]
	groupIter := mustGetInt(cmd, "group-iter")
	output := mustGetString(cmd, "output")
	saveDB := mustGetBool(cmd, "save-db")

	mode, err := viz.ParseMode(mustGetString(cmd, "debug"))
	if err != nil {
		return err
	}
	outPrefix := mustGetString(cmd, "out-prefix")
	if outPrefix == "" {
		outPrefix = strings.TrimSuffix(path, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening landmark table: %w", err)
	}
	defer f.Close()

	table, err := landmarks.ReadTable(f)
	if err != nil {
		return err
	}

	grouped, nextIter, err := homology.Constella(table, groupIter, homology.Options{
		Debug:     mode,
		OutPrefix: outPrefix,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Grouped %d landmarks, next group id is %d\n", len(grouped), nextIter)

	out := os.Stdout
	if output != "" {
		out, err = os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer out.Close()
	}
	if err := landmarks.WriteTable(out, grouped); err != nil {
		return err
	}

	if saveDB {
		cfg := config.Load()
		if err := initDatabase(cfg); err != nil {
			return err
		}
		defer postgres.GetGlobalPool().Close()

		stored, err := storedLandmarks(grouped)
		if err != nil {
			return err
		}
		repo := postgres.NewLandmarkRepository(postgres.GetGlobalPool())
		if err := repo.SaveBatch(context.Background(), stored); err != nil {
			return err
		}
		fmt.Printf("Saved %d landmarks to database\n", len(stored))
	}

	return nil
}
