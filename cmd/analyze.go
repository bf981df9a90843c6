package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/verdantlab/phenotrack/internal/analyze"
	"github.com/verdantlab/phenotrack/internal/config"
	"github.com/verdantlab/phenotrack/internal/database/postgres"
	"github.com/verdantlab/phenotrack/internal/observations"
	"github.com/verdantlab/phenotrack/internal/report"
	"github.com/verdantlab/phenotrack/internal/viz"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [mask...]",
	Short: "Measure the spatial distribution of objects in labeled masks",
	Long: `Analyzes labeled mask images and records the X and Y spatial distribution
of each object: frequency histograms plus mean, median and standard
deviation. Results are printed as a report and can be exported as JSON,
CSV, or saved to PostgreSQL.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Int("nlabels", 1, "Number of labeled objects per mask")
	analyzeCmd.Flags().Int("bin-size-x", 100, "Histogram bin width in pixels along X")
	analyzeCmd.Flags().Int("bin-size-y", 100, "Histogram bin width in pixels along Y")
	analyzeCmd.Flags().String("label", "", "Sample label (defaults to the mask file name)")
	analyzeCmd.Flags().String("debug", "off", "Debug mode: off, print or plot")
	analyzeCmd.Flags().Int("concurrency", 4, "Number of masks analyzed in parallel")
	analyzeCmd.Flags().String("json", "", "Write observations as JSON to this path")
	analyzeCmd.Flags().String("csv", "", "Write observations as CSV to this path")
	analyzeCmd.Flags().Bool("save-db", false, "Persist observations to PostgreSQL")
}

// analyzeMasksConcurrently runs the distribution analysis over masks with
// workers and returns the per-mask errors.
func analyzeMasksConcurrently(paths []string, store *observations.Store, opts analyze.DistributionOptions, label string, concurrency int, bar *progressbar.ProgressBar) []error {
	var errs []error
	var mu sync.Mutex
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, path := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := analyzeMask(path, store, opts, label, len(paths) > 1); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}

			if bar != nil {
				bar.Add(1)
			}
		}(path)
	}
	wg.Wait()
	return errs
}

func analyzeMask(path string, store *observations.Store, opts analyze.DistributionOptions, label string, multi bool) error {
	mask, err := analyze.LoadLabeledMask(path)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	opts.OutPrefix = base
	opts.Label = label
	if opts.Label == "" || multi {
		opts.Label = filepath.Base(base)
	}

	return analyze.Distribution(mask, store, opts)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	mode, err := viz.ParseMode(mustGetString(cmd, "debug"))
	if err != nil {
		return err
	}

	cfg := config.Load()
	opts := analyze.DistributionOptions{
		NLabels:  mustGetInt(cmd, "nlabels"),
		BinSizeX: mustGetInt(cmd, "bin-size-x"),
		BinSizeY: mustGetInt(cmd, "bin-size-y"),
		Debug:    mode,
		TraitFor: func(variable string) (string, string) {
			t := cfg.TraitFor(variable)
			return t.Trait, t.Scale
		},
	}
	concurrency := mustGetInt(cmd, "concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	store := observations.NewStore()

	var bar *progressbar.ProgressBar
	if len(args) > 1 {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetDescription("Analyzing masks"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("masks"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	errs := analyzeMasksConcurrently(args, store, opts, mustGetString(cmd, "label"), concurrency, bar)
	if bar != nil {
		fmt.Println()
	}

	if err := report.Write(os.Stdout, store); err != nil {
		return err
	}
	if len(errs) > 0 {
		fmt.Printf("\nErrors: %d\n", len(errs))
		for _, e := range errs {
			fmt.Printf("  - %v\n", e)
		}
	}

	if err := exportObservations(cmd, store); err != nil {
		return err
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d masks failed", len(errs), len(args))
	}
	return nil
}

func exportObservations(cmd *cobra.Command, store *observations.Store) error {
	if jsonPath := mustGetString(cmd, "json"); jsonPath != "" {
		f, err := os.Create(jsonPath)
		if err != nil {
			return fmt.Errorf("creating JSON output: %w", err)
		}
		defer f.Close()
		if err := store.SaveJSON(f); err != nil {
			return err
		}
		fmt.Printf("Wrote observations to %s\n", jsonPath)
	}

	if csvPath := mustGetString(cmd, "csv"); csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("creating CSV output: %w", err)
		}
		defer f.Close()
		if err := store.SaveCSV(f); err != nil {
			return err
		}
		fmt.Printf("Wrote observations to %s\n", csvPath)
	}

	if mustGetBool(cmd, "save-db") {
		cfg := config.Load()
		if err := initDatabase(cfg); err != nil {
			return err
		}
		defer postgres.GetGlobalPool().Close()

		stored, err := storedObservations(store)
		if err != nil {
			return err
		}
		repo := postgres.NewObservationRepository(postgres.GetGlobalPool())
		if err := repo.SaveBatch(context.Background(), stored); err != nil {
			return err
		}
		fmt.Printf("Saved %d observations to database (run %s)\n", len(stored), store.RunID())
	}

	return nil
}
