package cmd

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verdantlab/phenotrack/internal/config"
	"github.com/verdantlab/phenotrack/internal/database"
	"github.com/verdantlab/phenotrack/internal/database/postgres"
	"github.com/verdantlab/phenotrack/internal/homology"
	"github.com/verdantlab/phenotrack/internal/observations"
)

// initDatabase connects the global PostgreSQL pool and runs migrations.
func initDatabase(cfg *config.Config) error {
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	fmt.Printf("Connecting to PostgreSQL database...\n")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return nil
}

// storedLandmarks converts a landmark table to database records.
func storedLandmarks(table homology.Table) ([]database.StoredLandmark, error) {
	stored := make([]database.StoredLandmark, 0, len(table))
	for _, lm := range table {
		day, err := homology.DayToken(lm.Name)
		if err != nil {
			return nil, err
		}

		var group sql.NullInt64
		if lm.Group.Valid {
			group = sql.NullInt64{Int64: int64(lm.Group.ID), Valid: true}
		}

		embedding := make([]float32, len(lm.Embedding))
		for i, v := range lm.Embedding {
			embedding[i] = float32(v)
		}

		stored = append(stored, database.StoredLandmark{
			Name:      lm.Name,
			Day:       day,
			Group:     group,
			Embedding: embedding,
			Dim:       len(embedding),
		})
	}
	return stored, nil
}

// storedObservations converts the in-memory store to database records.
func storedObservations(store *observations.Store) ([]database.StoredObservation, error) {
	var stored []database.StoredObservation
	for _, sample := range store.Samples() {
		for _, variable := range store.Variables(sample) {
			obs, ok := store.Get(sample, variable)
			if !ok {
				continue
			}

			value, err := json.Marshal(obs.Value)
			if err != nil {
				return nil, fmt.Errorf("marshal value of %s/%s: %w", sample, variable, err)
			}
			label, err := json.Marshal(obs.Label)
			if err != nil {
				return nil, fmt.Errorf("marshal label of %s/%s: %w", sample, variable, err)
			}

			stored = append(stored, database.StoredObservation{
				RunID:    store.RunID(),
				Sample:   obs.Sample,
				Variable: obs.Variable,
				Trait:    obs.Trait,
				Method:   obs.Method,
				Scale:    obs.Scale,
				Datatype: string(obs.Datatype),
				Value:    value,
				Label:    label,
			})
		}
	}
	return stored, nil
}
