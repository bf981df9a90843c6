package postgres

import (
	"context"
	"fmt"

	"github.com/verdantlab/phenotrack/internal/database"
)

// ObservationRepository provides PostgreSQL-backed observation storage.
type ObservationRepository struct {
	pool *Pool
}

// NewObservationRepository creates a new PostgreSQL observation repository.
func NewObservationRepository(pool *Pool) *ObservationRepository {
	return &ObservationRepository{pool: pool}
}

// SaveBatch saves observations in a single transaction. A repeated
// (run, sample, variable) triple overwrites the earlier value.
func (r *ObservationRepository) SaveBatch(ctx context.Context, observations []database.StoredObservation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (run_id, sample, variable, trait, method, scale, datatype, value, label)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id, sample, variable) DO UPDATE
		SET trait = EXCLUDED.trait,
		    method = EXCLUDED.method,
		    scale = EXCLUDED.scale,
		    datatype = EXCLUDED.datatype,
		    value = EXCLUDED.value,
		    label = EXCLUDED.label
	`)
	if err != nil {
		return fmt.Errorf("prepare observation insert: %w", err)
	}
	defer stmt.Close()

	for _, obs := range observations {
		_, err := stmt.ExecContext(ctx,
			obs.RunID, obs.Sample, obs.Variable,
			obs.Trait, obs.Method, obs.Scale, obs.Datatype,
			obs.Value, obs.Label,
		)
		if err != nil {
			return fmt.Errorf("save observation %s/%s: %w", obs.Sample, obs.Variable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit observation batch: %w", err)
	}
	return nil
}

// ByRun returns all observations for a run, ordered by sample then variable.
func (r *ObservationRepository) ByRun(ctx context.Context, runID string) ([]database.StoredObservation, error) {
	query := `
		SELECT id, run_id, sample, variable, trait, method, scale, datatype, value, label, created_at
		FROM observations
		WHERE run_id = $1
		ORDER BY sample, variable
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []database.StoredObservation
	for rows.Next() {
		var obs database.StoredObservation
		err := rows.Scan(
			&obs.ID, &obs.RunID, &obs.Sample, &obs.Variable,
			&obs.Trait, &obs.Method, &obs.Scale, &obs.Datatype,
			&obs.Value, &obs.Label, &obs.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return observations, nil
}

// Runs returns the distinct run IDs present, newest first.
func (r *ObservationRepository) Runs(ctx context.Context) ([]string, error) {
	query := `
		SELECT run_id::text
		FROM observations
		GROUP BY run_id
		ORDER BY MAX(created_at) DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		runs = append(runs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Count returns the total number of observations stored.
func (r *ObservationRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM observations").Scan(&count); err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return count, nil
}
