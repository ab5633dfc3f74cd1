package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	KindSoftmax  = "softmax"
	KindCentroid = "centroid"
)

// ArtifactFile returns the file name a model of the given type is stored in.
func ArtifactFile(modelType string) string {
	return modelType + "_model.json"
}

// artifact is the on-disk representation of a trained model.
type artifact struct {
	Kind      string      `json:"kind"`
	Labels    []string    `json:"labels"`
	Weights   [][]float64 `json:"weights,omitempty"`
	Bias      []float64   `json:"bias,omitempty"`
	Mean      []float64   `json:"mean,omitempty"`
	Scale     []float64   `json:"scale,omitempty"`
	Centroids [][]float64 `json:"centroids,omitempty"`
	// Serialize marks a model whose predict calls must not run concurrently.
	Serialize bool `json:"serialize,omitempty"`
}

// LoadModel reads and validates one artifact and picks its variant.
func LoadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseModel(data)
}

// ParseModel decodes an artifact body.
func ParseModel(data []byte) (Model, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	var m Model
	switch a.Kind {
	case KindSoftmax:
		s := &Softmax{Labels: a.Labels, Weights: a.Weights, Bias: a.Bias, Mean: a.Mean, Scale: a.Scale}
		if err := s.validate(); err != nil {
			return nil, err
		}
		m = LabelWithConfidence{P: s}
	case KindCentroid:
		c := &NearestCentroid{Labels: a.Labels, Centroids: a.Centroids}
		if err := c.validate(); err != nil {
			return nil, err
		}
		m = LabelOnly{P: c}
	default:
		return nil, fmt.Errorf("unknown model kind %q", a.Kind)
	}

	if a.Serialize {
		m = &serialized{m: m}
	}
	return m, nil
}

// serialized guards a non-reentrant model with a mutex.
type serialized struct {
	mu sync.Mutex
	m  Model
}

func (s *serialized) Classify(features []float64) (string, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Classify(features)
}

// ModelPath joins the models directory and the artifact name for modelType.
func ModelPath(dir, modelType string) string {
	return filepath.Join(dir, ArtifactFile(modelType))
}
