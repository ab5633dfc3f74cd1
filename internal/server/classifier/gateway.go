package classifier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/logging"
)

// Gateway holds the event and style classifiers. Either slot may be empty;
// the set of loaded models does not change after construction.
type Gateway struct {
	event Model
	style Model
}

func NewGateway(event, style Model) *Gateway {
	return &Gateway{event: event, style: style}
}

// LoadGateway loads both artifacts from dir. A missing or broken artifact
// leaves its slot empty and is logged; it never fails the caller.
func LoadGateway(ctx context.Context, dir string, logger logging.Logger) *Gateway {
	load := func(modelType string) Model {
		path := ModelPath(dir, modelType)
		m, err := LoadModel(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn(ctx, "model artifact not found", "model_type", modelType, "path", path)
			return nil
		case err != nil:
			logger.Error(ctx, "error loading model", "model_type", modelType, "path", path, "err", err)
			return nil
		}
		logger.Info(ctx, "loaded model", "model_type", modelType, "path", path)
		return m
	}

	return NewGateway(load(common.ModelTypeDrivingEvent), load(common.ModelTypeDrivingStyle))
}

func (g *Gateway) ClassifyEvent(features []float64) (*Verdict, error) {
	return classify(g.event, common.ModelTypeDrivingEvent, features)
}

func (g *Gateway) ClassifyStyle(features []float64) (*Verdict, error) {
	return classify(g.style, common.ModelTypeDrivingStyle, features)
}

// Available reports whether the model of the given type is loaded.
func (g *Gateway) Available(modelType string) bool {
	switch modelType {
	case common.ModelTypeDrivingEvent:
		return g.event != nil
	case common.ModelTypeDrivingStyle:
		return g.style != nil
	}
	return false
}

func classify(m Model, modelType string, features []float64) (v *Verdict, err error) {
	if m == nil {
		return nil, ErrModelUnavailable
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: empty feature vector", ErrPredictionFailed)
	}

	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: %v", ErrPredictionFailed, r)
		}
	}()

	label, confidence, err := m.Classify(features)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", ErrPredictionFailed, confidence)
	}

	return &Verdict{Label: label, Confidence: confidence, ModelType: modelType}, nil
}
