package homology

// clusterView answers membership queries for a single cluster of one tree
// cut against the current state of the working table.
type clusterView struct {
	table   Table
	indices []int // row indices belonging to this cluster, ascending
}

// newClusterView collects the rows of table assigned to cluster g in the
// given cut.
func newClusterView(table Table, cut []int, g int) clusterView {
	v := clusterView{table: table}
	for i, c := range cut {
		if c == g {
			v.indices = append(v.indices, i)
		}
	}
	return v
}

// unassigned returns the row indices of members without a group, ascending.
func (v clusterView) unassigned() []int {
	var out []int
	for _, i := range v.indices {
		if !v.table[i].Group.Valid {
			out = append(out, i)
		}
	}
	return out
}

// unassignedCount returns how many members have no group yet.
func (v clusterView) unassignedCount() int {
	n := 0
	for _, i := range v.indices {
		if !v.table[i].Group.Valid {
			n++
		}
	}
	return n
}

// assignedIDs returns the distinct group ids present in the cluster, in
// first-appearance order.
func (v clusterView) assignedIDs() []int {
	var out []int
	seen := make(map[int]bool)
	for _, i := range v.indices {
		g := v.table[i].Group
		if g.Valid && !seen[g.ID] {
			seen[g.ID] = true
			out = append(out, g.ID)
		}
	}
	return out
}

// countID returns how many members carry the given group id.
func (v clusterView) countID(id int) int {
	n := 0
	for _, i := range v.indices {
		if g := v.table[i].Group; g.Valid && g.ID == id {
			n++
		}
	}
	return n
}

// bearerOf returns the row index of the first member carrying the given
// group id, or -1 if none does.
func (v clusterView) bearerOf(id int) int {
	for _, i := range v.indices {
		if g := v.table[i].Group; g.Valid && g.ID == id {
			return i
		}
	}
	return -1
}

// rogues returns the indices of all rows in the table still lacking a
// group, in table order.
func rogues(table Table) []int {
	var out []int
	for i := range table {
		if !table[i].Group.Valid {
			out = append(out, i)
		}
	}
	return out
}
