package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/verdantlab/phenotrack/internal/database"
)

// LandmarkRepository provides PostgreSQL-backed landmark storage.
type LandmarkRepository struct {
	pool *Pool
}

// NewLandmarkRepository creates a new PostgreSQL landmark repository.
func NewLandmarkRepository(pool *Pool) *LandmarkRepository {
	return &LandmarkRepository{pool: pool}
}

// Save inserts a landmark or updates its group and embedding if the name
// already exists.
func (r *LandmarkRepository) Save(ctx context.Context, lm database.StoredLandmark) error {
	query := `
		INSERT INTO landmarks (name, day, group_id, embedding, dim)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET day = EXCLUDED.day,
		    group_id = EXCLUDED.group_id,
		    embedding = EXCLUDED.embedding,
		    dim = EXCLUDED.dim
	`

	vec := pgvector.NewVector(lm.Embedding)
	if _, err := r.pool.Exec(ctx, query, lm.Name, lm.Day, lm.Group, vec, len(lm.Embedding)); err != nil {
		return fmt.Errorf("save landmark %s: %w", lm.Name, err)
	}
	return nil
}

// SaveBatch saves landmarks in a single transaction.
func (r *LandmarkRepository) SaveBatch(ctx context.Context, landmarks []database.StoredLandmark) error {
	if len(landmarks) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO landmarks (name, day, group_id, embedding, dim)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET day = EXCLUDED.day,
		    group_id = EXCLUDED.group_id,
		    embedding = EXCLUDED.embedding,
		    dim = EXCLUDED.dim
	`)
	if err != nil {
		return fmt.Errorf("prepare landmark insert: %w", err)
	}
	defer stmt.Close()

	for _, lm := range landmarks {
		vec := pgvector.NewVector(lm.Embedding)
		if _, err := stmt.ExecContext(ctx, lm.Name, lm.Day, lm.Group, vec, len(lm.Embedding)); err != nil {
			return fmt.Errorf("save landmark %s: %w", lm.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit landmark batch: %w", err)
	}
	return nil
}

// Get retrieves a landmark by name, returns nil if not found.
func (r *LandmarkRepository) Get(ctx context.Context, name string) (*database.StoredLandmark, error) {
	query := `
		SELECT id, name, day, group_id, embedding, dim, created_at
		FROM landmarks
		WHERE name = $1
	`

	lm, err := scanLandmark(r.pool.QueryRow(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query landmark %s: %w", name, err)
	}
	return lm, nil
}

// List returns all landmarks ordered by name.
func (r *LandmarkRepository) List(ctx context.Context) ([]database.StoredLandmark, error) {
	query := `
		SELECT id, name, day, group_id, embedding, dim, created_at
		FROM landmarks
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLandmarks(rows)
}

// ListByGroup returns all landmarks assigned to the given homology group.
func (r *LandmarkRepository) ListByGroup(ctx context.Context, groupID int) ([]database.StoredLandmark, error) {
	query := `
		SELECT id, name, day, group_id, embedding, dim, created_at
		FROM landmarks
		WHERE group_id = $1
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLandmarks(rows)
}

// Count returns the total number of landmarks stored.
func (r *LandmarkRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM landmarks").Scan(&count); err != nil {
		return 0, fmt.Errorf("count landmarks: %w", err)
	}
	return count, nil
}

// UpdateGroup sets the homology group of a landmark by name.
func (r *LandmarkRepository) UpdateGroup(ctx context.Context, name string, group sql.NullInt64) error {
	result, err := r.pool.Exec(ctx, "UPDATE landmarks SET group_id = $1 WHERE name = $2", group, name)
	if err != nil {
		return fmt.Errorf("update group for %s: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("landmark %s not found", name)
	}
	return nil
}

// FindSimilar returns the landmarks nearest to the query embedding by
// Euclidean distance, along with the distances. Only landmarks with the
// same dimension as the query are considered.
func (r *LandmarkRepository) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]database.StoredLandmark, []float64, error) {
	query := `
		SELECT id, name, day, group_id, embedding, dim, created_at,
		       embedding <-> $1::vector AS distance
		FROM landmarks
		WHERE dim = $2
		ORDER BY distance
		LIMIT $3
	`

	vec := pgvector.NewVector(embedding)
	rows, err := r.pool.Query(ctx, query, vec, len(embedding), limit)
	if err != nil {
		return nil, nil, fmt.Errorf("query similar landmarks: %w", err)
	}
	defer rows.Close()

	var landmarks []database.StoredLandmark
	var distances []float64
	for rows.Next() {
		var lm database.StoredLandmark
		var vec pgvector.Vector
		var distance float64
		if err := rows.Scan(&lm.ID, &lm.Name, &lm.Day, &lm.Group, &vec, &lm.Dim, &lm.CreatedAt, &distance); err != nil {
			return nil, nil, fmt.Errorf("scan landmark: %w", err)
		}
		lm.Embedding = vec.Slice()
		landmarks = append(landmarks, lm)
		distances = append(distances, distance)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate landmarks: %w", err)
	}
	return landmarks, distances, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLandmark(row rowScanner) (*database.StoredLandmark, error) {
	var lm database.StoredLandmark
	var vec pgvector.Vector
	if err := row.Scan(&lm.ID, &lm.Name, &lm.Day, &lm.Group, &vec, &lm.Dim, &lm.CreatedAt); err != nil {
		return nil, err
	}
	lm.Embedding = vec.Slice()
	return &lm, nil
}

func scanLandmarks(rows *sql.Rows) ([]database.StoredLandmark, error) {
	var landmarks []database.StoredLandmark
	for rows.Next() {
		lm, err := scanLandmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan landmark: %w", err)
		}
		landmarks = append(landmarks, *lm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate landmarks: %w", err)
	}
	return landmarks, nil
}
