package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/verdantlab/phenotrack/internal/config"
	"github.com/verdantlab/phenotrack/internal/database/postgres"
	"github.com/verdantlab/phenotrack/internal/observations"
	"github.com/verdantlab/phenotrack/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the PhenoTrack web server. The API serves recorded observations,
runs homology grouping for posted landmark tables and answers landmark
similarity queries against the database.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// loadLatestRun fills the store with the newest persisted observation run.
func loadLatestRun(ctx context.Context, store *observations.Store) error {
	repo := postgres.NewObservationRepository(postgres.GetGlobalPool())

	runs, err := repo.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return nil
	}

	records, err := repo.ByRun(ctx, runs[0])
	if err != nil {
		return err
	}
	for _, rec := range records {
		var value, label any
		if len(rec.Value) > 0 {
			if err := json.Unmarshal(rec.Value, &value); err != nil {
				return fmt.Errorf("decode value of %s/%s: %w", rec.Sample, rec.Variable, err)
			}
		}
		if len(rec.Label) > 0 {
			if err := json.Unmarshal(rec.Label, &label); err != nil {
				return fmt.Errorf("decode label of %s/%s: %w", rec.Sample, rec.Variable, err)
			}
		}

		store.Add(observations.Observation{
			Sample:   rec.Sample,
			Variable: rec.Variable,
			Trait:    rec.Trait,
			Method:   rec.Method,
			Scale:    rec.Scale,
			Datatype: observations.Datatype(rec.Datatype),
			Value:    floatSlices(value),
			Label:    floatSlices(label),
		})
	}
	fmt.Printf("Loaded %d observations from run %s\n", len(records), runs[0])
	return nil
}

// floatSlices converts a decoded JSON array to []float64 where possible so
// list observations keep their in-memory shape.
func floatSlices(v any) any {
	items, ok := v.([]any)
	if !ok {
		return v
	}
	floats := make([]float64, len(items))
	for i, item := range items {
		f, ok := item.(float64)
		if !ok {
			return v
		}
		floats[i] = f
	}
	return floats
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	store := observations.NewStore()

	if cfg.Database.URL != "" {
		if err := initDatabase(cfg); err != nil {
			return err
		}
		defer postgres.GetGlobalPool().Close()

		if err := loadLatestRun(context.Background(), store); err != nil {
			fmt.Printf("Warning: failed to load stored observations: %v\n", err)
		}
	} else {
		fmt.Println("No DATABASE_URL set, landmark similarity search is disabled")
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, store)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting PhenoTrack API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
