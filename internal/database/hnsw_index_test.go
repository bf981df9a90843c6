package database

import (
	"path/filepath"
	"testing"
	"time"
)

func testLandmarks() []StoredLandmark {
	return []StoredLandmark{
		{ID: 1, Name: "plantA_rep1_d10_plm0", Day: "d10", Embedding: []float32{0, 0}, Dim: 2},
		{ID: 2, Name: "plantA_rep1_d11_plm0", Day: "d11", Embedding: []float32{0.1, 0}, Dim: 2},
		{ID: 3, Name: "plantA_rep1_d10_plm1", Day: "d10", Embedding: []float32{5, 5}, Dim: 2},
		{ID: 4, Name: "plantA_rep1_d11_plm1", Day: "d11", Embedding: []float32{5.1, 5}, Dim: 2},
	}
}

func TestLandmarkIndexSearch(t *testing.T) {
	idx := NewLandmarkIndex()
	if err := idx.BuildFromLandmarks(testLandmarks()); err != nil {
		t.Fatalf("BuildFromLandmarks failed: %v", err)
	}
	if idx.Count() != 4 {
		t.Fatalf("Count = %d; want 4", idx.Count())
	}

	ids, distances, err := idx.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d results, want 2", len(ids))
	}
	if ids[0] != 1 {
		t.Errorf("nearest id = %d; want 1", ids[0])
	}
	if distances[0] != 0 {
		t.Errorf("nearest distance = %v; want 0", distances[0])
	}
	if ids[1] != 2 {
		t.Errorf("second id = %d; want 2", ids[1])
	}
}

func TestLandmarkIndexSearchWithDistance(t *testing.T) {
	idx := NewLandmarkIndex()
	if err := idx.BuildFromLandmarks(testLandmarks()); err != nil {
		t.Fatalf("BuildFromLandmarks failed: %v", err)
	}

	ids, distances, err := idx.SearchWithDistance([]float32{0, 0}, 4, 1.0)
	if err != nil {
		t.Fatalf("SearchWithDistance failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d results within distance 1.0, want 2", len(ids))
	}
	for i, d := range distances {
		if d > 1.0 {
			t.Errorf("result %d has distance %v beyond the cutoff", i, d)
		}
	}
}

func TestLandmarkIndexEmpty(t *testing.T) {
	idx := NewLandmarkIndex()
	if !idx.IsEmpty() {
		t.Error("new index should be empty")
	}
	if _, _, err := idx.Search([]float32{0, 0}, 1); err == nil {
		t.Error("search on empty index should fail")
	}
	if err := idx.BuildFromLandmarks(nil); err != nil {
		t.Fatalf("BuildFromLandmarks(nil) failed: %v", err)
	}
	if !idx.IsEmpty() {
		t.Error("index built from nothing should stay empty")
	}
}

func TestLandmarkIndexDelete(t *testing.T) {
	idx := NewLandmarkIndex()
	if err := idx.BuildFromLandmarks(testLandmarks()); err != nil {
		t.Fatalf("BuildFromLandmarks failed: %v", err)
	}

	idx.Delete(1)
	if idx.GetLandmark(1) != nil {
		t.Error("deleted landmark still resolvable")
	}
	if idx.Count() != 3 {
		t.Errorf("Count = %d; want 3", idx.Count())
	}
}

func TestLandmarkIndexSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landmarks.hnsw")

	idx := NewLandmarkIndex()
	if err := idx.BuildFromLandmarks(testLandmarks()); err != nil {
		t.Fatalf("BuildFromLandmarks failed: %v", err)
	}

	meta := LandmarkIndexMetadata{LandmarkCount: 4, MaxLandmarkID: 4, BuildTime: time.Now()}
	if err := idx.Save(path, meta); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewLandmarkIndex()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Count() != 4 {
		t.Errorf("loaded Count = %d; want 4", loaded.Count())
	}

	ids, _, err := loaded.Search([]float32{5, 5}, 1)
	if err != nil {
		t.Fatalf("search on loaded index failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != 3 {
		t.Errorf("loaded search returned %v; want [3]", ids)
	}

	lm := loaded.GetLandmark(3)
	if lm == nil || lm.Name != "plantA_rep1_d10_plm1" {
		t.Errorf("GetLandmark(3) = %+v", lm)
	}

	gotMeta, err := LoadLandmarkIndexMetadata(path)
	if err != nil {
		t.Fatalf("LoadLandmarkIndexMetadata failed: %v", err)
	}
	if gotMeta.LandmarkCount != 4 || gotMeta.Version != 1 {
		t.Errorf("metadata = %+v", gotMeta)
	}
}
