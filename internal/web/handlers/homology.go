package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/verdantlab/phenotrack/internal/homology"
)

// HomologyHandler runs homology grouping for API clients.
type HomologyHandler struct{}

// NewHomologyHandler creates a new homology handler.
func NewHomologyHandler() *HomologyHandler {
	return &HomologyHandler{}
}

type groupRequest struct {
	Landmarks homology.Table `json:"landmarks"`
	GroupIter int            `json:"group_iter"`
}

type groupResponse struct {
	Landmarks homology.Table `json:"landmarks"`
	GroupIter int            `json:"group_iter"`
}

// Group assigns homology groups to the posted landmark table and returns the
// annotated table with the advanced group counter.
func (h *HomologyHandler) Group(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.GroupIter < 0 {
		respondError(w, http.StatusBadRequest, "group_iter must not be negative")
		return
	}

	grouped, nextIter, err := homology.Constella(req.Landmarks, req.GroupIter, homology.Options{})
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, groupResponse{
		Landmarks: grouped,
		GroupIter: nextIter,
	})
}
