package analyze

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/verdantlab/phenotrack/internal/observations"
	"github.com/verdantlab/phenotrack/internal/viz"
	"github.com/verdantlab/phenotrack/internal/warnings"
)

// distributionMethod tags every observation recorded by the analyzer.
const distributionMethod = "phenotrack.analyze.distribution"

// DistributionOptions configures the spatial distribution analysis.
type DistributionOptions struct {
	// NLabels is the number of individual objects expected in the mask.
	// Defaults to 1.
	NLabels int
	// BinSizeX and BinSizeY are the bin widths in pixels. Default 100.
	BinSizeX int
	BinSizeY int
	// Label is the sample label observations are recorded under. With more
	// than one object, samples become "<Label>_<i>". Defaults to "default".
	Label string
	// Debug selects whether histogram charts are written.
	Debug viz.Mode
	// OutPrefix is the path prefix for debug charts.
	OutPrefix string
	// TraitFor overrides the trait and scale recorded for a variable.
	// When nil, built-in metadata is used.
	TraitFor func(variable string) (trait, scale string)
}

func (o *DistributionOptions) setDefaults() {
	if o.NLabels <= 0 {
		o.NLabels = 1
	}
	if o.BinSizeX <= 0 {
		o.BinSizeX = 100
	}
	if o.BinSizeY <= 0 {
		o.BinSizeY = 100
	}
	if o.Label == "" {
		o.Label = "default"
	}
}

// Distribution analyzes the X and Y spatial distribution of every labeled
// object in the mask and records per-object histograms and statistics into
// the sink.
func Distribution(mask *LabeledMask, sink *observations.Store, opts DistributionOptions) error {
	if mask == nil {
		return fmt.Errorf("analyze: nil mask")
	}
	opts.setDefaults()
	if mask.Width < opts.BinSizeX {
		return fmt.Errorf("analyze: bin size %d exceeds mask width %d", opts.BinSizeX, mask.Width)
	}
	if mask.Height < opts.BinSizeY {
		return fmt.Errorf("analyze: bin size %d exceeds mask height %d", opts.BinSizeY, mask.Height)
	}

	for i := 1; i <= opts.NLabels; i++ {
		sample := opts.Label
		if opts.NLabels > 1 {
			sample = fmt.Sprintf("%s_%d", opts.Label, i)
		}
		if err := analyzeDistribution(mask, i, sample, sink, opts); err != nil {
			return err
		}
	}
	return nil
}

// axisStats holds one axis of the distribution measurement.
type axisStats struct {
	histogram []float64
	axis      []float64
	mean      float64
	median    float64
	std       float64
	empty     bool
}

func analyzeDistribution(mask *LabeledMask, label int, sample string, sink *observations.Store, opts DistributionOptions) error {
	x, y := distributionHistograms(mask, label, opts.BinSizeX, opts.BinSizeY)
	if x.empty {
		warnings.Warnf("analyze: mask has no pixels for object %d, distribution stats undefined", label)
	}

	recordAxis(sink, sample, "X", x, opts)
	recordAxis(sink, sample, "Y", y, opts)

	if opts.Debug.Enabled() {
		if err := viz.BarChart(x.histogram, x.axis, "x-axis distribution", "position (px)",
			opts.OutPrefix+"_x_distribution_hist.png"); err != nil {
			return err
		}
		if err := viz.BarChart(y.histogram, y.axis, "y-axis distribution", "position (px)",
			opts.OutPrefix+"_y_distribution_hist.png"); err != nil {
			return err
		}
	}
	return nil
}

// distributionHistograms bins the pixels of one object along both axes.
// Pixels beyond the last full bin accumulate into it.
func distributionHistograms(mask *LabeledMask, label, binSizeX, binSizeY int) (x, y axisStats) {
	numBinsX := mask.Width / binSizeX
	numBinsY := mask.Height / binSizeY
	x.histogram = make([]float64, numBinsX)
	y.histogram = make([]float64, numBinsY)
	x.axis = binAxis(numBinsX, binSizeX)
	y.axis = binAxis(numBinsY, binSizeY)

	count := 0
	for py := 0; py < mask.Height; py++ {
		for px := 0; px < mask.Width; px++ {
			if mask.At(px, py) != label {
				continue
			}
			count++
			x.histogram[min(px/binSizeX, numBinsX-1)]++
			y.histogram[min(py/binSizeY, numBinsY-1)]++
		}
	}

	if count == 0 {
		x.empty, y.empty = true, true
		return x, y
	}

	x.mean = stat.Mean(x.axis, x.histogram)
	y.mean = stat.Mean(y.axis, y.histogram)
	x.median = median(x.axis)
	y.median = median(y.axis)
	x.std = stat.PopStdDev(x.axis, nil)
	y.std = stat.PopStdDev(y.axis, nil)
	return x, y
}

func binAxis(numBins, binSize int) []float64 {
	axis := make([]float64, numBins)
	for i := range axis {
		axis[i] = float64(i * binSize)
	}
	return axis
}

// median returns the midpoint median: for an even count, the mean of the
// two middle values.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// recordAxis saves the histogram and its statistics for one axis. Stats of
// an empty object are recorded as null rather than NaN so exports stay
// valid JSON.
func recordAxis(sink *observations.Store, sample, axisName string, s axisStats, opts DistributionOptions) {
	traitFor := func(variable, trait, scale string) (string, string) {
		if opts.TraitFor != nil {
			return opts.TraitFor(variable)
		}
		return trait, scale
	}

	freqTrait, freqScale := traitFor(axisName+"_frequencies", axisName+" frequencies", "frequency")
	sink.Add(observations.Observation{
		Sample:   sample,
		Variable: axisName + "_frequencies",
		Trait:    freqTrait,
		Method:   distributionMethod,
		Scale:    freqScale,
		Datatype: observations.TypeList,
		Value:    s.histogram,
		Label:    s.axis,
	})

	stats := []struct {
		name  string
		trait string
		scale string
		value float64
	}{
		{"_distribution_mean", " distribution mean", "pixels", s.mean},
		{"_distribution_median", " distribution median", "pixel", s.median},
		{"_distribution_std", " distribution standard deviation", "pixel", s.std},
	}
	for _, st := range stats {
		var value any = st.value
		if s.empty {
			value = nil
		}
		trait, scale := traitFor(axisName+st.name, axisName+st.trait, st.scale)
		sink.Add(observations.Observation{
			Sample:   sample,
			Variable: axisName + st.name,
			Trait:    trait,
			Method:   distributionMethod,
			Scale:    scale,
			Datatype: observations.TypeFloat,
			Value:    value,
			Label:    "pixel",
		})
	}
}
