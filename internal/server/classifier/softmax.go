package classifier

import (
	"errors"
	"fmt"
	"math"
)

// Softmax is a multinomial linear model: logits = W·x + b, probabilities
// via softmax. Optional Mean and Scale standardize features first.
type Softmax struct {
	Labels  []string
	Weights [][]float64
	Bias    []float64
	Mean    []float64
	Scale   []float64
}

func (s *Softmax) validate() error {
	if len(s.Labels) == 0 {
		return errors.New("softmax: no labels")
	}
	if len(s.Weights) != len(s.Labels) {
		return fmt.Errorf("softmax: %d weight rows for %d labels", len(s.Weights), len(s.Labels))
	}
	if len(s.Bias) != 0 && len(s.Bias) != len(s.Labels) {
		return fmt.Errorf("softmax: %d biases for %d labels", len(s.Bias), len(s.Labels))
	}
	dim := len(s.Weights[0])
	if dim == 0 {
		return errors.New("softmax: empty weight row")
	}
	for i, row := range s.Weights {
		if len(row) != dim {
			return fmt.Errorf("softmax: weight row %d has %d columns, want %d", i, len(row), dim)
		}
	}
	if len(s.Mean) != 0 && len(s.Mean) != dim {
		return fmt.Errorf("softmax: mean has %d entries, want %d", len(s.Mean), dim)
	}
	if len(s.Scale) != 0 && len(s.Scale) != dim {
		return fmt.Errorf("softmax: scale has %d entries, want %d", len(s.Scale), dim)
	}
	return nil
}

func (s *Softmax) Predict(features []float64) (string, error) {
	probs, err := s.PredictProbabilities(features)
	if err != nil {
		return "", err
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return s.Labels[best], nil
}

func (s *Softmax) PredictProbabilities(features []float64) ([]float64, error) {
	dim := len(s.Weights[0])
	if len(features) != dim {
		return nil, fmt.Errorf("expected %d features, got %d", dim, len(features))
	}

	x := make([]float64, dim)
	for j, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("feature %d is not finite", j)
		}
		if len(s.Mean) > 0 {
			v -= s.Mean[j]
		}
		if len(s.Scale) > 0 && s.Scale[j] != 0 {
			v /= s.Scale[j]
		}
		x[j] = v
	}

	logits := make([]float64, len(s.Weights))
	maxLogit := math.Inf(-1)
	for i, row := range s.Weights {
		z := 0.0
		if len(s.Bias) > 0 {
			z = s.Bias[i]
		}
		for j, w := range row {
			z += w * x[j]
		}
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return nil, fmt.Errorf("logit %d is not finite", i)
		}
		logits[i] = z
		maxLogit = math.Max(maxLogit, z)
	}

	sum := 0.0
	for i, z := range logits {
		logits[i] = math.Exp(z - maxLogit)
		sum += logits[i]
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, errors.New("probabilities do not normalize")
	}
	for i := range logits {
		logits[i] /= sum
	}

	return logits, nil
}
