package viz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/verdantlab/phenotrack/internal/cluster"
)

func testTree(t *testing.T) *cluster.Tree {
	t.Helper()
	tree, err := cluster.Linkage([][]float64{
		{0, 0}, {0, 0.5}, {8, 8}, {8, 8.5},
	})
	if err != nil {
		t.Fatalf("Linkage failed: %v", err)
	}
	return tree
}

func TestDendrogramWritesPNG(t *testing.T) {
	tree := testTree(t)
	path := filepath.Join(t.TempDir(), "out_plmHCA.png")

	labels := []string{"a_r1_d1_p0 (0)", "a_r1_d2_p0 (0)", "a_r1_d1_p1 (1)", "a_r1_d2_p1 (1)"}
	if err := Dendrogram(tree, labels, path); err != nil {
		t.Fatalf("Dendrogram failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output file is empty")
	}
}

func TestDendrogramLabelCountMismatch(t *testing.T) {
	tree := testTree(t)
	path := filepath.Join(t.TempDir(), "out.png")
	if err := Dendrogram(tree, []string{"only-one"}, path); err == nil {
		t.Error("expected error for label/leaf count mismatch")
	}
}

func TestBarChartWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.png")
	values := []float64{3, 0, 12, 7}
	axis := []float64{0, 100, 200, 300}

	if err := BarChart(values, axis, "x-axis distribution", "position (px)", path); err != nil {
		t.Fatalf("BarChart failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output file is empty")
	}
}

func TestBarChartLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.png")
	if err := BarChart([]float64{1, 2}, []float64{0}, "t", "x", path); err == nil {
		t.Error("expected error for value/axis length mismatch")
	}
}
