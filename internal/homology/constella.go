package homology

import (
	"fmt"

	"github.com/verdantlab/phenotrack/internal/cluster"
	"github.com/verdantlab/phenotrack/internal/viz"
	"github.com/verdantlab/phenotrack/internal/warnings"
)

// Options configures the non-algorithmic behavior of Constella. The zero
// value disables all debug output.
type Options struct {
	// Debug selects whether progress is logged and a dendrogram rendered.
	Debug viz.Mode
	// OutPrefix is the path prefix for debug graphics; the dendrogram is
	// written to "<OutPrefix>_plmHCA.png".
	OutPrefix string
}

// Constella groups the pseudo-landmarks of two adjacent frames into
// homology groups. It returns a labeled copy of the table (the input is
// never mutated) and the advanced group id counter.
//
// The grouper cuts a ward-linkage dendrogram over the landmark embeddings
// at every cluster count from N-1 down to 3. Fine cuts resolve unambiguous
// pairs first; coarser cuts let existing identities adopt the lone
// unassigned member of their cluster. Counts 2 and 1 are reserved for the
// finalization pass, where every still-unassigned landmark becomes a
// singleton "rogue" group. A group id may only span landmarks from
// different acquisition days, so every output row carries a concrete group
// and groupIter advances by exactly the number of ids minted.
//
// Landmarks already carrying a group id keep it untouched; re-running on a
// fully labeled table changes nothing and mints no ids.
func Constella(plms Table, groupIter int, opts Options) (Table, int, error) {
	n := len(plms)
	if n < 3 {
		return nil, groupIter, fmt.Errorf("homology: grouping requires at least 3 landmarks, got %d", n)
	}

	// Fail fast on names that cannot produce a day token; the pairing
	// sanity checks rely on it unconditionally.
	days := make([]string, n)
	for i, lm := range plms {
		day, err := DayToken(lm.Name)
		if err != nil {
			return nil, groupIter, err
		}
		days[i] = day
	}

	work := plms.Clone()
	points := make([][]float64, n)
	for i := range work {
		points[i] = work[i].Embedding
	}

	tree, err := cluster.Linkage(points)
	if err != nil {
		return nil, groupIter, fmt.Errorf("homology: clustering landmarks: %w", err)
	}

	if opts.Debug.Enabled() {
		fmt.Printf("%d plms to group\n", n)
	}

	// Fine to coarse; counts 2 and 1 stay reserved for finalization.
	for c := n - 1; c >= 3; c-- {
		cut, err := tree.Cut(c)
		if err != nil {
			return nil, groupIter, fmt.Errorf("homology: cutting tree at %d clusters: %w", c, err)
		}
		for g := 0; g < c; g++ {
			view := newClusterView(work, cut, g)
			switch view.unassignedCount() {
			case 2:
				groupIter = pairEmpty(work, view, days, groupIter)
			case 1:
				adoptLone(work, view, days)
			}
		}
	}

	for _, i := range rogues(work) {
		work[i].Group = GroupID(groupIter)
		groupIter++
	}

	if opts.Debug.Enabled() {
		if err := renderDendrogram(tree, work, opts.OutPrefix); err != nil {
			// Debug graphics are a side effect, not part of the grouping
			// contract.
			warnings.Warnf("homology: dendrogram not rendered: %v", err)
		}
	}

	return work, groupIter, nil
}

// pairEmpty handles a cluster whose two unassigned members are candidates
// for a new pair. Landmarks from different days share one fresh id; same-day
// landmarks each get their own fresh id, never a pair.
func pairEmpty(work Table, view clusterView, days []string, groupIter int) int {
	idx := view.unassigned()
	if days[idx[0]] != days[idx[1]] {
		work[idx[0]].Group = GroupID(groupIter)
		work[idx[1]].Group = GroupID(groupIter)
		return groupIter + 1
	}
	work[idx[0]].Group = GroupID(groupIter)
	work[idx[1]].Group = GroupID(groupIter + 1)
	return groupIter + 2
}

// adoptLone transfers an existing identity onto the cluster's single
// unassigned member, provided exactly one member bears that identity and
// the two landmarks come from different days. At most one identity is
// transferred per cluster per cut.
func adoptLone(work Table, view clusterView, days []string) {
	lone := view.unassigned()[0]
	for _, uid := range view.assignedIDs() {
		if view.countID(uid) != 1 {
			continue
		}
		bearer := view.bearerOf(uid)
		if days[bearer] == days[lone] {
			continue
		}
		work[lone].Group = GroupID(uid)
		return
	}
}

// renderDendrogram draws the grouped table as a left-labeled dendrogram,
// one "{name} ({group})" label per leaf.
func renderDendrogram(tree *cluster.Tree, work Table, outPrefix string) error {
	labels := make([]string, len(work))
	for i, lm := range work {
		labels[i] = fmt.Sprintf("%s (%d)", lm.Name, lm.Group.ID)
	}
	return viz.Dendrogram(tree, labels, outPrefix+"_plmHCA.png")
}
