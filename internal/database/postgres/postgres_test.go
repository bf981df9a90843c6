//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/verdantlab/phenotrack/internal/config"
	"github.com/verdantlab/phenotrack/internal/database"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestLandmarkRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewLandmarkRepository(pool)

	t.Run("SaveAndGet", func(t *testing.T) {
		lm := database.StoredLandmark{
			Name:      "plantA_rep1_d10_plm0",
			Day:       "d10",
			Embedding: []float32{0.5, -1.25, 3},
			Dim:       3,
		}
		if err := repo.Save(ctx, lm); err != nil {
			t.Fatalf("Failed to save landmark: %v", err)
		}

		got, err := repo.Get(ctx, "plantA_rep1_d10_plm0")
		if err != nil {
			t.Fatalf("Failed to get landmark: %v", err)
		}
		if got == nil {
			t.Fatal("Expected landmark, got nil")
		}
		if got.Day != "d10" {
			t.Errorf("Day = %q; want d10", got.Day)
		}
		if got.Group.Valid {
			t.Error("Group should be NULL for an unassigned landmark")
		}
		if len(got.Embedding) != 3 {
			t.Errorf("Embedding has %d dims, want 3", len(got.Embedding))
		}
	})

	t.Run("SaveBatchAndList", func(t *testing.T) {
		batch := []database.StoredLandmark{
			{Name: "plantA_rep1_d11_plm0", Day: "d11", Group: sql.NullInt64{Int64: 4, Valid: true}, Embedding: []float32{0.6, -1.2, 3.1}, Dim: 3},
			{Name: "plantA_rep1_d11_plm1", Day: "d11", Embedding: []float32{9, 9, 9}, Dim: 3},
		}
		if err := repo.SaveBatch(ctx, batch); err != nil {
			t.Fatalf("Failed to save batch: %v", err)
		}

		all, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("Failed to list landmarks: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("Expected 3 landmarks, got %d", len(all))
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 3 {
			t.Errorf("Count = %d; want 3", count)
		}
	})

	t.Run("UpdateGroupAndListByGroup", func(t *testing.T) {
		err := repo.UpdateGroup(ctx, "plantA_rep1_d10_plm0", sql.NullInt64{Int64: 4, Valid: true})
		if err != nil {
			t.Fatalf("Failed to update group: %v", err)
		}

		members, err := repo.ListByGroup(ctx, 4)
		if err != nil {
			t.Fatalf("Failed to list by group: %v", err)
		}
		if len(members) != 2 {
			t.Errorf("Expected 2 members of group 4, got %d", len(members))
		}

		if err := repo.UpdateGroup(ctx, "missing", sql.NullInt64{}); err == nil {
			t.Error("Expected error for unknown landmark")
		}
	})

	t.Run("FindSimilar", func(t *testing.T) {
		results, distances, err := repo.FindSimilar(ctx, []float32{0.5, -1.25, 3}, 2)
		if err != nil {
			t.Fatalf("Failed to find similar: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(results))
		}
		if results[0].Name != "plantA_rep1_d10_plm0" {
			t.Errorf("Nearest = %q; want plantA_rep1_d10_plm0", results[0].Name)
		}
		if distances[0] != 0 {
			t.Errorf("Nearest distance = %v; want 0", distances[0])
		}
		if distances[1] < distances[0] {
			t.Error("Distances not sorted")
		}
	})
}

func TestObservationRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewObservationRepository(pool)
	runID := uuid.NewString()

	mustJSON := func(v any) []byte {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}

	t.Run("SaveBatchAndByRun", func(t *testing.T) {
		batch := []database.StoredObservation{
			{
				RunID: runID, Sample: "default_1", Variable: "X_frequencies",
				Trait: "X frequencies", Method: "phenotrack.analyze.distribution",
				Scale: "frequency", Datatype: "list",
				Value: mustJSON([]float64{120, 0, 5}), Label: mustJSON([]float64{0, 100, 200}),
			},
			{
				RunID: runID, Sample: "default_1", Variable: "X_distribution_mean",
				Trait: "X distribution mean", Method: "phenotrack.analyze.distribution",
				Scale: "pixels", Datatype: "float",
				Value: mustJSON(42.5), Label: mustJSON("none"),
			},
		}
		if err := repo.SaveBatch(ctx, batch); err != nil {
			t.Fatalf("Failed to save batch: %v", err)
		}

		got, err := repo.ByRun(ctx, runID)
		if err != nil {
			t.Fatalf("Failed to load run: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 observations, got %d", len(got))
		}
		if got[0].Variable != "X_distribution_mean" {
			t.Errorf("First variable = %q; want X_distribution_mean (sorted)", got[0].Variable)
		}
	})

	t.Run("UpsertOverwrites", func(t *testing.T) {
		update := []database.StoredObservation{{
			RunID: runID, Sample: "default_1", Variable: "X_distribution_mean",
			Datatype: "float", Value: mustJSON(50.0), Label: mustJSON("none"),
		}}
		if err := repo.SaveBatch(ctx, update); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}

		got, err := repo.ByRun(ctx, runID)
		if err != nil {
			t.Fatalf("Failed to load run: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Upsert should not add rows, got %d", len(got))
		}

		var v float64
		for _, obs := range got {
			if obs.Variable == "X_distribution_mean" {
				if err := json.Unmarshal(obs.Value, &v); err != nil {
					t.Fatalf("unmarshal value: %v", err)
				}
			}
		}
		if v != 50.0 {
			t.Errorf("Value after upsert = %v; want 50", v)
		}
	})

	t.Run("Runs", func(t *testing.T) {
		runs, err := repo.Runs(ctx)
		if err != nil {
			t.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) != 1 || runs[0] != runID {
			t.Errorf("Runs = %v; want [%s]", runs, runID)
		}
	})
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	applied, err := pool.MigrationsApplied(context.Background())
	if err != nil {
		t.Fatalf("Failed to get applied migrations: %v", err)
	}

	expected := []string{
		"001_create_landmarks.sql",
		"002_create_observations.sql",
		"003_create_indexes.sql",
	}

	if len(applied) != len(expected) {
		t.Errorf("Expected %d migrations, got %d", len(expected), len(applied))
	}
	for i, want := range expected {
		if i < len(applied) && applied[i] != want {
			t.Errorf("Migration %d: expected %q, got %q", i, want, applied[i])
		}
	}
}
