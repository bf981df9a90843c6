package viz

import (
	"fmt"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// BarChart renders a bar chart of values positioned at the given axis
// coordinates and saves it to path. Used for the distribution analyzer's
// debug histograms; len(values) must equal len(axis).
func BarChart(values, axis []float64, title, xLabel, path string) error {
	if len(values) != len(axis) {
		return fmt.Errorf("viz: %d values for %d axis positions", len(values), len(axis))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "count"

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(12))
	if err != nil {
		return fmt.Errorf("viz: building bar chart: %w", err)
	}
	bars.Color = defaultLinkColor
	bars.LineStyle.Width = 0
	p.Add(bars)

	names := make([]string, len(axis))
	for i, a := range axis {
		names[i] = strconv.FormatFloat(a, 'f', -1, 64)
	}
	p.NominalX(names...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("viz: saving bar chart: %w", err)
	}
	return nil
}
