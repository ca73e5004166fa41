package scoring

import (
	"context"
	"fmt"
	"math"

	"credit-risk-workers/pkg/artifact"
)

// NewLinearModel wraps a linear artifact. A logit artifact yields a model with
// PredictProba; an identity artifact yields a model with Predict only.
func NewLinearModel(m *artifact.LinearModel) interface{} {
	if m.IsProbability() {
		return &LogisticModel{artifact: m}
	}
	return &IdentityModel{artifact: m}
}

// LogisticModel scores with sigmoid(w·x + b).
type LogisticModel struct {
	artifact *artifact.LinearModel
}

func (m *LogisticModel) PredictProba(_ context.Context, rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		z, err := margin(m.artifact, row)
		if err != nil {
			return nil, err
		}
		p := sigmoid(z)
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

// Predict returns the hard class label at a 0.5 cut-off.
func (m *LogisticModel) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	probs, err := m.PredictProba(ctx, rows)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(probs))
	for i, p := range probs {
		if p[1] >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

// IdentityModel returns w·x + b unchanged.
type IdentityModel struct {
	artifact *artifact.LinearModel
}

func (m *IdentityModel) Predict(_ context.Context, rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		z, err := margin(m.artifact, row)
		if err != nil {
			return nil, err
		}
		out[i] = z
	}
	return out, nil
}

func margin(m *artifact.LinearModel, row []float64) (float64, error) {
	if len(row) != len(m.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.Coefficients), len(row))
	}
	z := m.Intercept
	for i, w := range m.Coefficients {
		z += w * row[i]
	}
	return z, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
