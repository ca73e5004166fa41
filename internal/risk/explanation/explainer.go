package explanation

import (
	"context"
	"fmt"

	"credit-risk-workers/internal/models"
	"credit-risk-workers/pkg/artifact"
)

// Explainer produces a raw attribution for one feature vector.
type Explainer interface {
	Explain(ctx context.Context, vec models.FeatureVector) (Raw, error)
	// ExpectedValue is the baseline stored on the explainer itself, used when
	// a result carries no base value. It may be empty.
	ExpectedValue() Array
}

// Shapes the linear explainer can emit, chosen by configuration so every
// normalizer path can be exercised against a real backend.
const (
	ShapeStructured           = "structured"
	ShapeStructuredMulticlass = "structured_multiclass"
	ShapeLegacyArray          = "legacy_array"
	ShapeLegacyPerClass       = "legacy_per_class"
)

// LinearExplainer computes exact attributions for a linear model in margin
// space: phi_i = w_i * (x_i - mean_i), with expected value b + w·mean.
type LinearExplainer struct {
	artifact *artifact.LinearModel
	shape    string
	expected float64
}

func NewLinearExplainer(m *artifact.LinearModel, shape string) (*LinearExplainer, error) {
	switch shape {
	case "":
		shape = ShapeStructured
	case ShapeStructured, ShapeStructuredMulticlass, ShapeLegacyArray, ShapeLegacyPerClass:
	default:
		return nil, fmt.Errorf("unsupported explanation shape %q", shape)
	}

	expected := m.Intercept
	for i, w := range m.Coefficients {
		expected += w * m.Mean(i)
	}
	return &LinearExplainer{artifact: m, shape: shape, expected: expected}, nil
}

func (e *LinearExplainer) Explain(_ context.Context, vec models.FeatureVector) (Raw, error) {
	phi := make([]float64, len(e.artifact.Coefficients))
	for i, w := range e.artifact.Coefficients {
		phi[i] = w * (vec[i] - e.artifact.Mean(i))
	}

	switch e.shape {
	case ShapeLegacyArray:
		return LegacyArray{Values: Vector(phi)}, nil
	case ShapeLegacyPerClass:
		return LegacyPerClassList{ValuesByClass: []Array{Vector(negate(phi)), Vector(phi)}}, nil
	case ShapeStructuredMulticlass:
		// (1, F, 2) with the negative class first.
		data := make([]float64, 0, 2*len(phi))
		for _, v := range phi {
			data = append(data, -v, v)
		}
		return ModernStructured{
			Values:     Array{Shape: []int{1, len(phi), 2}, Data: data},
			BaseValues: Array{Shape: []int{1, 2}, Data: []float64{-e.expected, e.expected}},
		}, nil
	default:
		return ModernStructured{
			Values:     Array{Shape: []int{1, len(phi)}, Data: phi},
			BaseValues: Vector([]float64{e.expected}),
		}, nil
	}
}

// ExpectedValue is per-class for the per-class shape and a scalar otherwise.
func (e *LinearExplainer) ExpectedValue() Array {
	if e.shape == ShapeLegacyPerClass {
		return Vector([]float64{-e.expected, e.expected})
	}
	return Scalar(e.expected)
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = -v[i]
	}
	return out
}
