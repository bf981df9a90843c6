package viz

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/verdantlab/phenotrack/internal/cluster"
)

// DendrogramColorThreshold is the merge height below which subtrees are
// drawn in distinct colors. Matches the fixed threshold used by the homology
// grouper's reference graphics.
const DendrogramColorThreshold = 100.0

// subtreePalette cycles for the colored subtrees hanging below the
// threshold; links above the threshold use the default link color.
var subtreePalette = []color.Color{
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}, // green
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}, // red
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff}, // purple
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}, // orange
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff}, // brown
}

var defaultLinkColor = color.Color(color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}) // blue

// Dendrogram renders a horizontal dendrogram of the merge tree with one
// label per leaf, leaves stacked on the vertical axis and merge heights
// extending to the right, and saves it to path (format from the extension).
// len(labels) must equal the tree's leaf count.
func Dendrogram(tree *cluster.Tree, labels []string, path string) error {
	n := tree.NumLeaves()
	if len(labels) != n {
		return fmt.Errorf("viz: %d labels for %d leaves", len(labels), n)
	}

	p := plot.New()
	p.X.Label.Text = "ward distance"
	p.Y.Min = -0.5
	p.Y.Max = float64(n) - 0.5

	// Leaf positions follow dendrogram order so subtrees stay contiguous.
	order := tree.LeafOrder()
	pos := make([]float64, n) // leaf id -> y coordinate
	ticks := make([]plot.Tick, n)
	for rank, leaf := range order {
		pos[leaf] = float64(rank)
		ticks[rank] = plot.Tick{Value: float64(rank), Label: labels[leaf]}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)

	merges := tree.Merges()
	// Y coordinate and height of every cluster id (leaves then merges).
	y := make([]float64, 2*n-1)
	x := make([]float64, 2*n-1)
	copy(y, pos)
	for i, m := range merges {
		id := n + i
		y[id] = (y[m.A] + y[m.B]) / 2
		x[id] = m.Height
	}

	colors := subtreeColors(tree, DendrogramColorThreshold)
	for i, m := range merges {
		// One elbow per merge: out from each child to the merge height,
		// then the connecting rung.
		elbow := plotter.XYs{
			{X: x[m.A], Y: y[m.A]},
			{X: m.Height, Y: y[m.A]},
			{X: m.Height, Y: y[m.B]},
			{X: x[m.B], Y: y[m.B]},
		}
		line, err := plotter.NewLine(elbow)
		if err != nil {
			return fmt.Errorf("viz: building dendrogram link: %w", err)
		}
		line.Color = colors[i]
		p.Add(line)
	}

	// Scale the canvas with the leaf count so labels stay readable.
	height := vg.Points(float64(14*n)) + vg.Inch
	if err := p.Save(6*vg.Inch, height, path); err != nil {
		return fmt.Errorf("viz: saving dendrogram: %w", err)
	}
	return nil
}

// subtreeColors assigns a color to every merge: merges at or above the
// threshold get the default link color, and each maximal subtree strictly
// below the threshold gets its own palette color.
func subtreeColors(tree *cluster.Tree, threshold float64) []color.Color {
	n := tree.NumLeaves()
	merges := tree.Merges()

	// parent[id] is the merge index that consumed cluster id.
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = -1
	}
	for i, m := range merges {
		parent[m.A] = i
		parent[m.B] = i
	}

	colors := make([]color.Color, len(merges))
	next := 0
	// Walk top-down so a merge can inherit its parent's subtree color.
	for i := len(merges) - 1; i >= 0; i-- {
		if merges[i].Height >= threshold {
			colors[i] = defaultLinkColor
			continue
		}
		pi := parent[n+i]
		if pi >= 0 && merges[pi].Height < threshold {
			colors[i] = colors[pi]
			continue
		}
		colors[i] = subtreePalette[next%len(subtreePalette)]
		next++
	}
	return colors
}
