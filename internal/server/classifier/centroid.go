package classifier

import (
	"errors"
	"fmt"
	"math"
)

// NearestCentroid labels a feature vector with the class whose centroid is
// closest in Euclidean distance. It has no probability output.
type NearestCentroid struct {
	Labels    []string
	Centroids [][]float64
}

func (c *NearestCentroid) validate() error {
	if len(c.Labels) == 0 {
		return errors.New("centroid: no labels")
	}
	if len(c.Centroids) != len(c.Labels) {
		return fmt.Errorf("centroid: %d centroids for %d labels", len(c.Centroids), len(c.Labels))
	}
	dim := len(c.Centroids[0])
	if dim == 0 {
		return errors.New("centroid: empty centroid")
	}
	for i, row := range c.Centroids {
		if len(row) != dim {
			return fmt.Errorf("centroid: row %d has %d columns, want %d", i, len(row), dim)
		}
	}
	return nil
}

func (c *NearestCentroid) Predict(features []float64) (string, error) {
	dim := len(c.Centroids[0])
	if len(features) != dim {
		return "", fmt.Errorf("expected %d features, got %d", dim, len(features))
	}

	best, bestDist := -1, math.Inf(1)
	for i, centroid := range c.Centroids {
		d := 0.0
		for j, v := range features {
			diff := v - centroid[j]
			d += diff * diff
		}
		if math.IsNaN(d) {
			return "", errors.New("distance is not a number")
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return "", errors.New("no centroid in range")
	}

	return c.Labels[best], nil
}
