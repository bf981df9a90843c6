package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/verdantlab/phenotrack/internal/database/postgres"
)

// LandmarksHandler serves similarity queries backed by the landmark store.
type LandmarksHandler struct{}

// NewLandmarksHandler creates a new landmarks handler.
func NewLandmarksHandler() *LandmarksHandler {
	return &LandmarksHandler{}
}

type similarRequest struct {
	Embedding []float32 `json:"embedding"`
	Limit     int       `json:"limit"`
}

type similarLandmark struct {
	Name     string  `json:"name"`
	Day      string  `json:"day"`
	Group    *int64  `json:"group"`
	Distance float64 `json:"distance"`
}

// Similar returns the stored landmarks nearest to the posted embedding.
func (h *LandmarksHandler) Similar(w http.ResponseWriter, r *http.Request) {
	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) == 0 {
		respondError(w, http.StatusBadRequest, "embedding is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	if !postgres.IsAvailable() {
		respondError(w, http.StatusServiceUnavailable, "landmark database not configured")
		return
	}

	repo := postgres.NewLandmarkRepository(postgres.GetGlobalPool())
	landmarks, distances, err := repo.FindSimilar(r.Context(), req.Embedding, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "similarity search failed")
		return
	}

	results := make([]similarLandmark, 0, len(landmarks))
	for i, lm := range landmarks {
		out := similarLandmark{Name: lm.Name, Day: lm.Day, Distance: distances[i]}
		if lm.Group.Valid {
			g := lm.Group.Int64
			out.Group = &g
		}
		results = append(results, out)
	}
	respondJSON(w, http.StatusOK, map[string]any{"landmarks": results})
}
