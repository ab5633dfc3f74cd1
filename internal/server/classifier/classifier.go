// Package classifier wraps the two pre-trained driving classifiers behind a
// uniform predict contract.
//
// A classifier either produces only a label, or a label plus a probability
// distribution over labels. Which of the two a model is gets decided once,
// when it is loaded, by wrapping it as LabelOnly or LabelWithConfidence.
package classifier

import (
	"errors"
	"slices"
)

var (
	ErrModelUnavailable = errors.New("model not loaded")
	ErrPredictionFailed = errors.New("prediction failed")
)

// Verdict is the outcome of one classification.
type Verdict struct {
	Label      string
	Confidence float64
	ModelType  string
}

// Predictor is the minimal classifier capability.
type Predictor interface {
	Predict(features []float64) (string, error)
}

// ProbabilisticPredictor can also report a distribution over its labels.
type ProbabilisticPredictor interface {
	Predictor
	PredictProbabilities(features []float64) ([]float64, error)
}

// Model is what the gateway dispatches to.
type Model interface {
	Classify(features []float64) (label string, confidence float64, err error)
}

// LabelOnly adapts a Predictor without probability output; confidence is
// always 0.
type LabelOnly struct {
	P Predictor
}

func (m LabelOnly) Classify(features []float64) (string, float64, error) {
	label, err := m.P.Predict(features)
	if err != nil {
		return "", 0, err
	}
	return label, 0, nil
}

// LabelWithConfidence reports the highest class probability as confidence.
type LabelWithConfidence struct {
	P ProbabilisticPredictor
}

func (m LabelWithConfidence) Classify(features []float64) (string, float64, error) {
	label, err := m.P.Predict(features)
	if err != nil {
		return "", 0, err
	}
	probs, err := m.P.PredictProbabilities(features)
	if err != nil {
		return "", 0, err
	}
	if len(probs) == 0 {
		return label, 0, nil
	}
	return label, slices.Max(probs), nil
}
