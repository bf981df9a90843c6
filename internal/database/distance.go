package database

import "math"

// EuclideanDistance computes the Euclidean distance between two vectors.
// Landmark embeddings live in a PCA coordinate space, so Euclidean distance
// is the meaningful similarity measure for them.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
