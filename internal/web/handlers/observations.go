package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/verdantlab/phenotrack/internal/observations"
)

// ObservationsHandler serves the in-memory observation store of the running
// analysis process.
type ObservationsHandler struct {
	store *observations.Store
}

// NewObservationsHandler creates a new observations handler.
func NewObservationsHandler(store *observations.Store) *ObservationsHandler {
	return &ObservationsHandler{store: store}
}

// List returns the whole store as one JSON document.
func (h *ObservationsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Export())
}

type sampleResponse struct {
	Sample       string                              `json:"sample"`
	Observations map[string]observations.Observation `json:"observations"`
}

// Get returns the observations recorded for one sample.
func (h *ObservationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sample := chi.URLParam(r, "sample")

	variables := h.store.Variables(sample)
	if len(variables) == 0 {
		respondError(w, http.StatusNotFound, "sample not found")
		return
	}

	resp := sampleResponse{
		Sample:       sample,
		Observations: make(map[string]observations.Observation, len(variables)),
	}
	for _, v := range variables {
		if obs, ok := h.store.Get(sample, v); ok {
			resp.Observations[v] = obs
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
