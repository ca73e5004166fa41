package scoring

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk/remote"
	"credit-risk-workers/pkg/artifact"
)

// ==========================
// Mocks
// ==========================

type MockRemoteClient struct {
	mock.Mock
}

func (m *MockRemoteClient) Capabilities(ctx context.Context) (remote.Capabilities, error) {
	args := m.Called(ctx)
	return args.Get(0).(remote.Capabilities), args.Error(1)
}

func (m *MockRemoteClient) PredictProba(ctx context.Context, rows [][]float64) ([][]float64, error) {
	args := m.Called(ctx, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float64), args.Error(1)
}

func (m *MockRemoteClient) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	args := m.Called(ctx, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

type probaFunc func() ([][]float64, error)

func (f probaFunc) PredictProba(context.Context, [][]float64) ([][]float64, error) { return f() }

type labelFunc func() ([]float64, error)

func (f labelFunc) Predict(context.Context, [][]float64) ([]float64, error) { return f() }

func createTestArtifact(link string) *artifact.LinearModel {
	coefs := make([]float64, models.FeatureCount)
	coefs[0] = 2
	coefs[6] = 0.5
	return &artifact.LinearModel{
		FeatureNames: models.FeatureNameList(),
		Coefficients: coefs,
		Intercept:    -1,
		Link:         link,
	}
}

// ==========================
// Variant selection
// ==========================

func TestNewScorer_SelectsVariant(t *testing.T) {
	prob, err := NewScorer("linear", NewLinearModel(createTestArtifact(artifact.LinkLogit)))
	require.NoError(t, err)
	assert.Equal(t, models.CapabilityProbability, prob.Capability())

	label, err := NewScorer("linear", NewLinearModel(createTestArtifact(artifact.LinkIdentity)))
	require.NoError(t, err)
	assert.Equal(t, models.CapabilityLabelOnly, label.Capability())

	_, err = NewScorer("bogus", struct{}{})
	assert.Error(t, err)
}

// ==========================
// Probability scorer
// ==========================

func TestProbabilityScorer_LogisticArtifact(t *testing.T) {
	scorer, err := NewScorer("linear", NewLinearModel(createTestArtifact(artifact.LinkLogit)))
	require.NoError(t, err)

	var vec models.FeatureVector
	vec[0] = 0.5
	vec[6] = 2

	score, err := scorer.Score(context.Background(), vec)
	require.NoError(t, err)
	// z = -1 + 2*0.5 + 0.5*2 = 1
	assert.InDelta(t, 1/(1+math.Exp(-1)), score, 1e-12)
}

func TestProbabilityScorer_AlwaysInUnitInterval(t *testing.T) {
	scorer, err := NewScorer("linear", NewLinearModel(createTestArtifact(artifact.LinkLogit)))
	require.NoError(t, err)

	for _, x := range []float64{-1e6, -10, 0, 10, 1e6} {
		var vec models.FeatureVector
		vec[0] = x
		score, err := scorer.Score(context.Background(), vec)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestProbabilityScorer_RejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name  string
		probs [][]float64
		err   error
	}{
		{"backend error", nil, fmt.Errorf("connection refused")},
		{"no rows", [][]float64{}, nil},
		{"single column", [][]float64{{0.4}}, nil},
		{"above one", [][]float64{{-0.2, 1.2}}, nil},
		{"nan", [][]float64{{0.5, math.NaN()}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer, err := NewScorer("stub", probaFunc(func() ([][]float64, error) { return tt.probs, tt.err }))
			require.NoError(t, err)

			_, err = scorer.Score(context.Background(), models.FeatureVector{})
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrBackendInvocationFailed)
		})
	}
}

// ==========================
// Label-only scorer
// ==========================

func TestLabelScorer_ReturnsRawPredictionUnclamped(t *testing.T) {
	scorer, err := NewScorer("linear", NewLinearModel(createTestArtifact(artifact.LinkIdentity)))
	require.NoError(t, err)

	var vec models.FeatureVector
	vec[0] = 10

	score, err := scorer.Score(context.Background(), vec)
	require.NoError(t, err)
	assert.Equal(t, 19.0, score)
}

func TestLabelScorer_EmptyPrediction(t *testing.T) {
	scorer, err := NewScorer("stub", labelFunc(func() ([]float64, error) { return []float64{}, nil }))
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), models.FeatureVector{})
	assert.ErrorIs(t, err, errors.ErrBackendInvocationFailed)
}

func TestLogisticModel_PredictLabels(t *testing.T) {
	m := NewLinearModel(createTestArtifact(artifact.LinkLogit)).(*LogisticModel)

	labels, err := m.Predict(context.Background(), [][]float64{
		make([]float64, models.FeatureCount),
		append([]float64{5}, make([]float64, models.FeatureCount-1)...),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, labels)

	_, err = m.PredictProba(context.Background(), [][]float64{{1, 2}})
	assert.Error(t, err)
}

// ==========================
// Remote models
// ==========================

func TestNewRemoteModel_ProbabilityCapable(t *testing.T) {
	client := new(MockRemoteClient)
	client.On("Capabilities", mock.Anything).Return(remote.Capabilities{PredictProba: true}, nil)
	client.On("PredictProba", mock.Anything, mock.Anything).Return([][]float64{{0.25, 0.75}}, nil)

	model, err := NewRemoteModel(context.Background(), client)
	require.NoError(t, err)
	scorer, err := NewScorer("remote", model)
	require.NoError(t, err)
	assert.Equal(t, models.CapabilityProbability, scorer.Capability())

	score, err := scorer.Score(context.Background(), models.FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, 0.75, score)
	client.AssertExpectations(t)
	client.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestNewRemoteModel_LabelOnly(t *testing.T) {
	client := new(MockRemoteClient)
	client.On("Capabilities", mock.Anything).Return(remote.Capabilities{}, nil)
	client.On("Predict", mock.Anything, mock.Anything).Return([]float64{3}, nil)

	model, err := NewRemoteModel(context.Background(), client)
	require.NoError(t, err)
	scorer, err := NewScorer("remote", model)
	require.NoError(t, err)
	assert.Equal(t, models.CapabilityLabelOnly, scorer.Capability())

	score, err := scorer.Score(context.Background(), models.FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)
}

func TestNewRemoteModel_ProbeFailure(t *testing.T) {
	client := new(MockRemoteClient)
	client.On("Capabilities", mock.Anything).Return(remote.Capabilities{}, fmt.Errorf("dial tcp: refused"))

	_, err := NewRemoteModel(context.Background(), client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe capabilities")
}
