package database

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/coder/hnsw"
)

// LandmarkIndexMetadata stores metadata for validating cached HNSW indexes.
type LandmarkIndexMetadata struct {
	LandmarkCount int64     `json:"landmark_count"`
	MaxLandmarkID int64     `json:"max_landmark_id"`
	BuildTime     time.Time `json:"build_time"`
	Version       int       `json:"version"`
}

const landmarkIndexMetadataVersion = 1

// LandmarkIndex wraps an HNSW graph for fast nearest-neighbor lookup over
// pseudo-landmark embeddings. Distances are Euclidean since embeddings live
// in a PCA coordinate space.
type LandmarkIndex struct {
	graph        *hnsw.Graph[int64]
	savedGraph   *hnsw.SavedGraph[int64] // Loaded from disk
	idToLandmark map[int64]*StoredLandmark
	mu           sync.RWMutex
	path         string
}

// NewLandmarkIndex creates a new empty index.
func NewLandmarkIndex() *LandmarkIndex {
	return &LandmarkIndex{
		idToLandmark: make(map[int64]*StoredLandmark),
	}
}

func newLandmarkGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.EuclideanDistance
	return g
}

// BuildFromLandmarks builds the index from a slice of landmarks.
func (h *LandmarkIndex) BuildFromLandmarks(landmarks []StoredLandmark) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(landmarks) == 0 {
		h.graph = nil
		h.savedGraph = nil
		h.idToLandmark = make(map[int64]*StoredLandmark)
		return nil
	}

	g := newLandmarkGraph()
	h.idToLandmark = make(map[int64]*StoredLandmark, len(landmarks))

	for i := range landmarks {
		lm := &landmarks[i]
		if len(lm.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(lm.ID, lm.Embedding))
		h.idToLandmark[lm.ID] = lm
	}

	h.graph = g
	return nil
}

// Add adds a single landmark to the index.
func (h *LandmarkIndex) Add(lm *StoredLandmark) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(lm.Embedding) == 0 {
		return nil
	}

	if h.graph == nil {
		h.graph = newLandmarkGraph()
	}

	h.graph.Add(hnsw.MakeNode(lm.ID, lm.Embedding))
	h.idToLandmark[lm.ID] = lm
	return nil
}

// Search finds the k nearest neighbors to the query embedding.
// Returns landmark IDs and their Euclidean distances.
func (h *LandmarkIndex) Search(query []float32, k int) ([]int64, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil && h.savedGraph == nil {
		return nil, nil, errors.New("index not initialized")
	}

	var neighbors []hnsw.Node[int64]
	if h.savedGraph != nil {
		neighbors = h.savedGraph.Search(query, k)
	} else {
		neighbors = h.graph.Search(query, k)
	}

	ids := make([]int64, len(neighbors))
	distances := make([]float64, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.Key
		if len(n.Value) > 0 {
			distances[i] = EuclideanDistance(query, n.Value)
		}
	}
	return ids, distances, nil
}

// SearchWithDistance finds up to k neighbors within maxDistance of the query.
// Requests more candidates than k so distance filtering still leaves enough.
func (h *LandmarkIndex) SearchWithDistance(query []float32, k int, maxDistance float64) ([]int64, []float64, error) {
	searchK := max(k*HNSWSearchMultiplier, 100)

	ids, distances, err := h.Search(query, searchK)
	if err != nil {
		return nil, nil, err
	}

	filteredIDs := make([]int64, 0, k)
	filteredDistances := make([]float64, 0, k)
	for i, id := range ids {
		if distances[i] > maxDistance {
			continue
		}
		filteredIDs = append(filteredIDs, id)
		filteredDistances = append(filteredDistances, distances[i])
		if len(filteredIDs) >= k {
			break
		}
	}
	return filteredIDs, filteredDistances, nil
}

// GetLandmark returns the landmark for a given ID, nil if not indexed.
func (h *LandmarkIndex) GetLandmark(id int64) *StoredLandmark {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.idToLandmark[id]
}

// Delete removes a landmark from the index lookup map. HNSW does not support
// true deletion, but a landmark without a map entry never reaches callers.
func (h *LandmarkIndex) Delete(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.idToLandmark, id)
}

// Count returns the number of indexed landmarks.
func (h *LandmarkIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idToLandmark)
}

// IsEmpty returns true if the index has no graph data loaded.
func (h *LandmarkIndex) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph == nil && h.savedGraph == nil
}

// Save persists the index, its metadata, and the landmark lookup map to disk.
// The graph goes to path, metadata to path+".meta", landmarks to path+".landmarks".
func (h *LandmarkIndex) Save(path string, metadata LandmarkIndexMetadata) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil && h.savedGraph == nil {
		// Empty index, remove any stale files (best-effort cleanup).
		_ = os.Remove(path)
		_ = os.Remove(path + ".meta")
		_ = os.Remove(path + ".landmarks")
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer f.Close()

	if h.savedGraph != nil {
		err = h.savedGraph.Export(f)
	} else {
		err = h.graph.Export(f)
	}
	if err != nil {
		return fmt.Errorf("exporting HNSW graph: %w", err)
	}

	metadata.Version = landmarkIndexMetadataVersion
	metaData, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", metaData, 0600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	landmarks := make([]StoredLandmark, 0, len(h.idToLandmark))
	for _, lm := range h.idToLandmark {
		landmarks = append(landmarks, *lm)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(landmarks); err != nil {
		return fmt.Errorf("failed to encode landmarks: %w", err)
	}
	if err := os.WriteFile(path+".landmarks", buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write landmarks file: %w", err)
	}

	return nil
}

// Load loads the HNSW graph and landmark lookup map from disk.
func (h *LandmarkIndex) Load(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("index file not found: %s", path)
	}

	saved, err := hnsw.LoadSavedGraph[int64](path)
	if err != nil {
		return fmt.Errorf("failed to load HNSW index: %w", err)
	}

	data, err := os.ReadFile(path + ".landmarks")
	if err != nil {
		return fmt.Errorf("failed to read landmarks file: %w", err)
	}
	var landmarks []StoredLandmark
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&landmarks); err != nil {
		return fmt.Errorf("failed to decode landmarks: %w", err)
	}

	h.savedGraph = saved
	h.idToLandmark = make(map[int64]*StoredLandmark, len(landmarks))
	for i := range landmarks {
		h.idToLandmark[landmarks[i].ID] = &landmarks[i]
	}
	return nil
}

// LoadLandmarkIndexMetadata loads metadata from the .meta sidecar file.
func LoadLandmarkIndexMetadata(path string) (LandmarkIndexMetadata, error) {
	var metadata LandmarkIndexMetadata

	data, err := os.ReadFile(path + ".meta")
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return metadata, nil
}
