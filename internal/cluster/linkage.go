// Package cluster implements agglomerative hierarchical clustering with the
// ward linkage criterion. The merge tree it produces is deterministic for a
// fixed input ordering: distance ties are broken toward the lowest cluster
// ids, so repeated runs over the same matrix always yield the same tree and
// the same cuts.
package cluster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrTooFewPoints is returned when fewer than two points are supplied.
	ErrTooFewPoints = errors.New("cluster: linkage requires at least 2 points")
	// ErrDimensionMismatch is returned when the rows of the input matrix do
	// not all share the same non-zero dimension.
	ErrDimensionMismatch = errors.New("cluster: all points must share the same non-zero dimension")
)

// Merge records a single agglomeration step. A and B identify the clusters
// merged at this step: ids 0..n-1 are the input leaves, and id n+i is the
// cluster created by merge i. Height is the ward distance at which the merge
// happened and Size the number of leaves in the merged cluster.
type Merge struct {
	A      int
	B      int
	Height float64
	Size   int
}

// Tree is the merge hierarchy over n leaves produced by Linkage.
type Tree struct {
	n      int
	merges []Merge
}

// Linkage builds a ward-linkage merge tree over the given points. Base
// distances are Euclidean; cluster distances follow the Lance-Williams ward
// update. The input is not retained.
func Linkage(points [][]float64) (*Tree, error) {
	n := len(points)
	if n < 2 {
		return nil, ErrTooFewPoints
	}
	dim := len(points[0])
	if dim == 0 {
		return nil, ErrDimensionMismatch
	}
	for _, p := range points[1:] {
		if len(p) != dim {
			return nil, ErrDimensionMismatch
		}
	}

	// Squared ward distances between all clusters ever created. Leaves are
	// ids 0..n-1, merged clusters take ids n..2n-2.
	total := 2*n - 1
	d2 := make([][]float64, total)
	for i := range d2 {
		d2[i] = make([]float64, total)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(points[i], points[j], 2)
			d2[i][j] = d * d
			d2[j][i] = d * d
		}
	}

	size := make([]int, total)
	for i := 0; i < n; i++ {
		size[i] = 1
	}

	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	t := &Tree{n: n, merges: make([]Merge, 0, n-1)}
	for step := 0; step < n-1; step++ {
		// Lowest-id pair wins on ties, keeping the tree deterministic.
		ai, bi := -1, -1
		best := math.Inf(1)
		for x := 0; x < len(active); x++ {
			for y := x + 1; y < len(active); y++ {
				a, b := active[x], active[y]
				if d2[a][b] < best {
					best = d2[a][b]
					ai, bi = x, y
				}
			}
		}
		a, b := active[ai], active[bi]
		id := n + step
		size[id] = size[a] + size[b]
		t.merges = append(t.merges, Merge{A: a, B: b, Height: math.Sqrt(best), Size: size[id]})

		// Lance-Williams ward update against every other active cluster.
		for _, k := range active {
			if k == a || k == b {
				continue
			}
			sa, sb, sk := float64(size[a]), float64(size[b]), float64(size[k])
			upd := ((sa+sk)*d2[a][k] + (sb+sk)*d2[b][k] - sk*d2[a][b]) / (sa + sb + sk)
			d2[id][k] = upd
			d2[k][id] = upd
		}

		// Replace a with the merged cluster and drop b.
		active[ai] = id
		active = append(active[:bi], active[bi+1:]...)
	}

	return t, nil
}

// NumLeaves returns the number of input points the tree was built over.
func (t *Tree) NumLeaves() int { return t.n }

// Merges returns the agglomeration steps in merge order.
func (t *Tree) Merges() []Merge { return t.merges }

// Cut returns the cluster membership obtained by stopping agglomeration at
// exactly k clusters: element i is the cluster id of leaf i. Cluster ids are
// numbered by first appearance in leaf order, so the assignment is
// deterministic. k must be between 1 and the number of leaves.
func (t *Tree) Cut(k int) ([]int, error) {
	if k < 1 || k > t.n {
		return nil, fmt.Errorf("cluster: cut at %d clusters is out of range [1, %d]", k, t.n)
	}

	// Replay the first n-k merges with a union-find over leaf ids.
	parent := make([]int, 2*t.n-1)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for step := 0; step < t.n-k; step++ {
		m := t.merges[step]
		id := t.n + step
		parent[find(m.A)] = id
		parent[find(m.B)] = id
	}

	assignment := make([]int, t.n)
	next := 0
	seen := make(map[int]int, k)
	for i := 0; i < t.n; i++ {
		root := find(i)
		c, ok := seen[root]
		if !ok {
			c = next
			seen[root] = c
			next++
		}
		assignment[i] = c
	}
	return assignment, nil
}

// LeafOrder returns the leaves in dendrogram order: a depth-first traversal
// from the final merge, visiting the A child before the B child. For a tree
// with a single leaf the order is trivially [0].
func (t *Tree) LeafOrder() []int {
	if len(t.merges) == 0 {
		return []int{0}
	}
	order := make([]int, 0, t.n)
	var walk func(id int)
	walk = func(id int) {
		if id < t.n {
			order = append(order, id)
			return
		}
		m := t.merges[id-t.n]
		walk(m.A)
		walk(m.B)
	}
	walk(t.n + len(t.merges) - 1)
	return order
}
