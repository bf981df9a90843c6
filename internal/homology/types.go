// Package homology groups pseudo-landmark points sampled from adjacent
// frames of a time series into homology groups: sets of landmarks believed
// to correspond to the same physical point on the tracked plant. Grouping
// walks a ward-linkage dendrogram from fine to coarse cuts, pairing
// landmarks whose names prove they come from different acquisition days.
package homology

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Group is an optional homology group assignment. The zero value means
// unassigned; Valid disambiguates a legitimate group id 0 from "no group".
type Group struct {
	ID    int
	Valid bool
}

// GroupID returns an assigned Group carrying the given id.
func GroupID(id int) Group { return Group{ID: id, Valid: true} }

// MarshalJSON encodes an unassigned group as null and an assigned one as
// its bare id.
func (g Group) MarshalJSON() ([]byte, error) {
	if !g.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(g.ID)
}

// UnmarshalJSON accepts null for unassigned or an integer id.
func (g *Group) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = Group{}
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("homology: group must be null or an integer: %w", err)
	}
	*g = GroupID(id)
	return nil
}

// Landmark is one pseudo-landmark row. Name encodes the source image
// metadata as underscore-delimited tokens with the acquisition day at a
// fixed position; Embedding holds the reduced-space (PCA) coordinates used
// for clustering.
type Landmark struct {
	Name      string    `json:"name"`
	Group     Group     `json:"group"`
	Embedding []float64 `json:"embedding"`
}

// Table is an ordered list of landmark records, indexed 0..N-1.
type Table []Landmark

// Clone returns a deep copy of the table, including embeddings. Grouping
// always operates on a clone so the caller's table is never mutated.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for i, lm := range t {
		out[i] = lm
		out[i].Embedding = append([]float64(nil), lm.Embedding...)
	}
	return out
}

// sanityCheckPos is the index of the acquisition-day token within the
// underscore-delimited landmark name. Pairings are only legal between
// landmarks whose day tokens differ.
const sanityCheckPos = 2

// DayToken extracts the acquisition-day token from a landmark name. It
// fails when the name has too few underscore-delimited tokens rather than
// indexing out of range.
func DayToken(name string) (string, error) {
	parts := strings.Split(name, "_")
	if len(parts) <= sanityCheckPos {
		return "", fmt.Errorf("homology: landmark name %q has %d underscore-delimited tokens, need at least %d for the day field",
			name, len(parts), sanityCheckPos+1)
	}
	return parts[sanityCheckPos], nil
}
