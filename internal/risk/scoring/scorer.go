// Package scoring adapts scoring backends to a single Score operation. The
// variant is fixed when the backend is loaded: a backend that can produce
// class probabilities is always scored by probability, anything else falls
// back to its raw prediction.
package scoring

import (
	"context"
	"fmt"
	"math"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
)

// ProbabilityModel returns one row of class probabilities per input row.
type ProbabilityModel interface {
	PredictProba(ctx context.Context, rows [][]float64) ([][]float64, error)
}

// LabelModel returns one raw prediction per input row.
type LabelModel interface {
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
}

// Scorer scores a single feature vector.
type Scorer interface {
	Score(ctx context.Context, vec models.FeatureVector) (float64, error)
	Capability() models.Capability
}

// NewScorer picks the scoring variant for model. Models implementing
// ProbabilityModel are scored by the positive-class probability; models that
// only implement LabelModel return their raw prediction.
func NewScorer(name string, model interface{}) (Scorer, error) {
	switch m := model.(type) {
	case ProbabilityModel:
		return &ProbabilityScorer{name: name, model: m}, nil
	case LabelModel:
		return &LabelScorer{name: name, model: m}, nil
	default:
		return nil, fmt.Errorf("model %q exposes neither PredictProba nor Predict", name)
	}
}

// ProbabilityScorer returns the probability of the positive class, always in [0,1].
type ProbabilityScorer struct {
	name  string
	model ProbabilityModel
}

func (s *ProbabilityScorer) Capability() models.Capability {
	return models.CapabilityProbability
}

func (s *ProbabilityScorer) Score(ctx context.Context, vec models.FeatureVector) (float64, error) {
	probs, err := s.model.PredictProba(ctx, [][]float64{vec.Slice()})
	if err != nil {
		return 0, errors.NewBackendInvocationFailedError(s.name, err)
	}
	if len(probs) == 0 || len(probs[0]) < 2 {
		return 0, errors.NewBackendInvocationFailedError(s.name,
			fmt.Errorf("expected probabilities for 2 classes, got %v", probs))
	}

	p := probs[0][1]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, errors.NewBackendInvocationFailedError(s.name,
			fmt.Errorf("probability %v outside [0,1]", p))
	}
	return p, nil
}

// LabelScorer returns the backend's raw prediction without clamping.
type LabelScorer struct {
	name  string
	model LabelModel
}

func (s *LabelScorer) Capability() models.Capability {
	return models.CapabilityLabelOnly
}

func (s *LabelScorer) Score(ctx context.Context, vec models.FeatureVector) (float64, error) {
	preds, err := s.model.Predict(ctx, [][]float64{vec.Slice()})
	if err != nil {
		return 0, errors.NewBackendInvocationFailedError(s.name, err)
	}
	if len(preds) == 0 {
		return 0, errors.NewBackendInvocationFailedError(s.name, fmt.Errorf("empty prediction"))
	}
	return preds[0], nil
}
