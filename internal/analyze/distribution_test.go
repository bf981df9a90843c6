package analyze

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/verdantlab/phenotrack/internal/observations"
	"github.com/verdantlab/phenotrack/internal/warnings"
)

// rectMask builds a mask with one labeled rectangle.
func rectMask(t *testing.T, w, h int, label, x0, y0, x1, y1 int) *LabeledMask {
	t.Helper()
	m, err := NewLabeledMask(w, h)
	if err != nil {
		t.Fatalf("NewLabeledMask failed: %v", err)
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(x, y, label)
		}
	}
	return m
}

func getList(t *testing.T, sink *observations.Store, sample, variable string) []float64 {
	t.Helper()
	o, ok := sink.Get(sample, variable)
	if !ok {
		t.Fatalf("observation %s/%s not recorded", sample, variable)
	}
	values, ok := o.Value.([]float64)
	if !ok {
		t.Fatalf("observation %s/%s value is %T, want []float64", sample, variable, o.Value)
	}
	return values
}

func getFloat(t *testing.T, sink *observations.Store, sample, variable string) float64 {
	t.Helper()
	o, ok := sink.Get(sample, variable)
	if !ok {
		t.Fatalf("observation %s/%s not recorded", sample, variable)
	}
	v, ok := o.Value.(float64)
	if !ok {
		t.Fatalf("observation %s/%s value is %T, want float64", sample, variable, o.Value)
	}
	return v
}

func TestDistributionHistograms(t *testing.T) {
	// One object filling the leftmost 100 columns of a 400x200 mask.
	mask := rectMask(t, 400, 200, 1, 0, 0, 100, 200)
	sink := observations.NewStore()

	err := Distribution(mask, sink, DistributionOptions{Label: "plant1"})
	if err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}

	xHist := getList(t, sink, "plant1", "X_frequencies")
	if !reflect.DeepEqual(xHist, []float64{20000, 0, 0, 0}) {
		t.Errorf("X histogram = %v; want [20000 0 0 0]", xHist)
	}
	yHist := getList(t, sink, "plant1", "Y_frequencies")
	if !reflect.DeepEqual(yHist, []float64{10000, 10000}) {
		t.Errorf("Y histogram = %v; want [10000 10000]", yHist)
	}

	// Histogram axis labels are the bin start positions.
	xAxisObs, _ := sink.Get("plant1", "X_frequencies")
	if !reflect.DeepEqual(xAxisObs.Label, []float64{0, 100, 200, 300}) {
		t.Errorf("X axis = %v; want [0 100 200 300]", xAxisObs.Label)
	}
}

func TestDistributionStatistics(t *testing.T) {
	mask := rectMask(t, 400, 200, 1, 0, 0, 100, 200)
	sink := observations.NewStore()

	if err := Distribution(mask, sink, DistributionOptions{Label: "plant1"}); err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}

	// All X weight sits in the bin at position 0.
	if mean := getFloat(t, sink, "plant1", "X_distribution_mean"); mean != 0 {
		t.Errorf("X mean = %v; want 0", mean)
	}
	// Median and std describe the axis itself.
	if med := getFloat(t, sink, "plant1", "X_distribution_median"); med != 150 {
		t.Errorf("X median = %v; want 150", med)
	}
	wantStd := math.Sqrt(12500) // population std of [0 100 200 300]
	if std := getFloat(t, sink, "plant1", "X_distribution_std"); math.Abs(std-wantStd) > 1e-9 {
		t.Errorf("X std = %v; want %v", std, wantStd)
	}
	// Y weight is split evenly between positions 0 and 100.
	if mean := getFloat(t, sink, "plant1", "Y_distribution_mean"); mean != 50 {
		t.Errorf("Y mean = %v; want 50", mean)
	}
}

func TestDistributionMultipleObjects(t *testing.T) {
	mask := rectMask(t, 400, 200, 1, 0, 0, 100, 200)
	for y := 0; y < 200; y++ {
		for x := 300; x < 400; x++ {
			mask.Set(x, y, 2)
		}
	}
	sink := observations.NewStore()

	err := Distribution(mask, sink, DistributionOptions{NLabels: 2, Label: "tray"})
	if err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}

	first := getList(t, sink, "tray_1", "X_frequencies")
	second := getList(t, sink, "tray_2", "X_frequencies")
	if !reflect.DeepEqual(first, []float64{20000, 0, 0, 0}) {
		t.Errorf("object 1 X histogram = %v", first)
	}
	if !reflect.DeepEqual(second, []float64{0, 0, 0, 20000}) {
		t.Errorf("object 2 X histogram = %v", second)
	}
}

func TestDistributionEmptyObject(t *testing.T) {
	mask := rectMask(t, 200, 200, 1, 0, 0, 50, 50)
	sink := observations.NewStore()

	var buf bytes.Buffer
	prev := warnings.SetOutput(&buf)
	defer warnings.SetOutput(prev)

	// Object 2 has no pixels.
	err := Distribution(mask, sink, DistributionOptions{NLabels: 2, Label: "tray"})
	if err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}

	o, ok := sink.Get("tray_2", "X_distribution_mean")
	if !ok {
		t.Fatal("stats for the empty object not recorded")
	}
	if o.Value != nil {
		t.Errorf("empty object mean = %v; want null", o.Value)
	}
	hist := getList(t, sink, "tray_2", "X_frequencies")
	for _, v := range hist {
		if v != 0 {
			t.Errorf("empty object histogram = %v; want all zeros", hist)
		}
	}
	if buf.Len() == 0 {
		t.Error("expected a warning for the empty object")
	}
}

func TestDistributionPartialLastBin(t *testing.T) {
	// 250 wide with bin 100: two bins, the trailing 50 columns accumulate
	// into the last bin.
	mask := rectMask(t, 250, 100, 1, 0, 0, 250, 100)
	sink := observations.NewStore()

	if err := Distribution(mask, sink, DistributionOptions{Label: "p"}); err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}
	hist := getList(t, sink, "p", "X_frequencies")
	if !reflect.DeepEqual(hist, []float64{10000, 15000}) {
		t.Errorf("X histogram = %v; want [10000 15000]", hist)
	}
}

func TestDistributionBinLargerThanMask(t *testing.T) {
	mask := rectMask(t, 50, 50, 1, 0, 0, 50, 50)
	sink := observations.NewStore()
	if err := Distribution(mask, sink, DistributionOptions{}); err == nil {
		t.Error("expected error when the bin size exceeds the mask")
	}
}

func TestLoadLabeledMaskPNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	img.SetGray(2, 1, color.Gray{Y: 1})
	img.SetGray(5, 3, color.Gray{Y: 2})

	path := filepath.Join(t.TempDir(), "mask.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding PNG: %v", err)
	}
	f.Close()

	mask, err := LoadLabeledMask(path)
	if err != nil {
		t.Fatalf("LoadLabeledMask failed: %v", err)
	}
	if mask.Width != 8 || mask.Height != 4 {
		t.Fatalf("mask size = %dx%d; want 8x4", mask.Width, mask.Height)
	}
	if mask.At(2, 1) != 1 || mask.At(5, 3) != 2 {
		t.Errorf("labels not preserved: got %d and %d", mask.At(2, 1), mask.At(5, 3))
	}
	if mask.At(0, 0) != 0 {
		t.Errorf("background = %d; want 0", mask.At(0, 0))
	}
}
