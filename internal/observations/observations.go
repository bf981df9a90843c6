// Package observations collects named measurements produced by the
// analysis routines. Each observation is tagged with the sample it was
// measured on, the variable name, a trait description, the producing
// method, a scale unit and a datatype, mirroring the export format used by
// downstream phenotyping pipelines.
package observations

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Datatype names the value type of an observation.
type Datatype string

const (
	TypeInt   Datatype = "int"
	TypeFloat Datatype = "float"
	TypeStr   Datatype = "str"
	TypeBool  Datatype = "bool"
	TypeList  Datatype = "list"
)

// Observation is a single recorded measurement.
type Observation struct {
	Sample   string   `json:"sample"`
	Variable string   `json:"variable"`
	Trait    string   `json:"trait"`
	Method   string   `json:"method"`
	Scale    string   `json:"scale"`
	Datatype Datatype `json:"datatype"`
	Value    any      `json:"value"`
	Label    any      `json:"label"`
}

// Store accumulates observations for one analysis run. Re-recording the
// same sample/variable pair overwrites the previous value. Safe for
// concurrent use so web handlers can share a store with analysis code.
type Store struct {
	mu      sync.RWMutex
	runID   string
	samples map[string]map[string]Observation
}

// NewStore creates an empty store with a fresh run id.
func NewStore() *Store {
	return &Store{
		runID:   uuid.NewString(),
		samples: make(map[string]map[string]Observation),
	}
}

// RunID returns the unique id stamped into every export of this store.
func (s *Store) RunID() string { return s.runID }

// Add records an observation, replacing any previous observation for the
// same sample and variable.
func (s *Store) Add(o Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars, ok := s.samples[o.Sample]
	if !ok {
		vars = make(map[string]Observation)
		s.samples[o.Sample] = vars
	}
	vars[o.Variable] = o
}

// Get returns the observation recorded for the sample and variable.
func (s *Store) Get(sample, variable string) (Observation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.samples[sample][variable]
	return o, ok
}

// Samples returns all sample labels in sorted order.
func (s *Store) Samples() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.samples))
	for sample := range s.samples {
		out = append(out, sample)
	}
	sort.Strings(out)
	return out
}

// Variables returns the variable names recorded for a sample, sorted.
func (s *Store) Variables(sample string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vars := s.samples[sample]
	out := make([]string, 0, len(vars))
	for v := range vars {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Len returns the total number of recorded observations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, vars := range s.samples {
		n += len(vars)
	}
	return n
}

// export is the JSON document shape shared by SaveJSON and the web API.
type export struct {
	RunID        string                            `json:"run_id"`
	Observations map[string]map[string]Observation `json:"observations"`
}

// Export returns a snapshot of the store suitable for JSON encoding.
func (s *Store) Export() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]map[string]Observation, len(s.samples))
	for sample, vars := range s.samples {
		inner := make(map[string]Observation, len(vars))
		for v, o := range vars {
			inner[v] = o
		}
		snap[sample] = inner
	}
	return export{RunID: s.runID, Observations: snap}
}

// SaveJSON writes the whole store as a single JSON document.
func (s *Store) SaveJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Export()); err != nil {
		return fmt.Errorf("observations: encoding JSON: %w", err)
	}
	return nil
}

// SaveCSV writes the store in long format, one row per observation. List
// values are expanded to one row per element, paired with their label.
func (s *Store) SaveCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"run_id", "sample", "variable", "trait", "method", "scale", "datatype", "label", "value"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("observations: writing CSV header: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sample := range s.samplesLocked() {
		vars := s.samples[sample]
		names := make([]string, 0, len(vars))
		for v := range vars {
			names = append(names, v)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := s.writeCSVRows(cw, vars[name]); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("observations: flushing CSV: %w", err)
	}
	return nil
}

func (s *Store) samplesLocked() []string {
	out := make([]string, 0, len(s.samples))
	for sample := range s.samples {
		out = append(out, sample)
	}
	sort.Strings(out)
	return out
}

func (s *Store) writeCSVRows(cw *csv.Writer, o Observation) error {
	row := func(label, value string) error {
		rec := []string{s.runID, o.Sample, o.Variable, o.Trait, o.Method, o.Scale, string(o.Datatype), label, value}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("observations: writing CSV row: %w", err)
		}
		return nil
	}

	values, ok := o.Value.([]float64)
	if !ok {
		return row(formatAny(o.Label), formatAny(o.Value))
	}
	labels, _ := o.Label.([]float64)
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = formatAny(labels[i])
		}
		if err := row(label, formatAny(v)); err != nil {
			return err
		}
	}
	return nil
}

func formatAny(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
