package explanation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"credit-risk-workers/internal/common/errors"
	commonhttp "credit-risk-workers/internal/common/http"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk/remote"
	"credit-risk-workers/pkg/artifact"
)

// ==========================
// Linear explainer
// ==========================

func createTestArtifact() *artifact.LinearModel {
	coefs := make([]float64, models.FeatureCount)
	means := make([]float64, models.FeatureCount)
	for i := range coefs {
		coefs[i] = float64(i+1) / 10
		means[i] = 1
	}
	return &artifact.LinearModel{
		FeatureNames: models.FeatureNameList(),
		Coefficients: coefs,
		Intercept:    -2,
		Link:         artifact.LinkLogit,
		Means:        means,
	}
}

func TestLinearExplainer_AllShapesNormalizeAlike(t *testing.T) {
	m := createTestArtifact()
	vec := testVector()

	wantValues := make([]float64, models.FeatureCount)
	wantBase := m.Intercept
	for i, w := range m.Coefficients {
		wantValues[i] = w * (vec[i] - 1)
		wantBase += w
	}

	shapes := []string{ShapeStructured, ShapeStructuredMulticlass, ShapeLegacyArray, ShapeLegacyPerClass}
	for _, shape := range shapes {
		t.Run(shape, func(t *testing.T) {
			explainer, err := NewLinearExplainer(m, shape)
			require.NoError(t, err)

			raw, err := explainer.Explain(context.Background(), vec)
			require.NoError(t, err)

			result, err := Normalize(raw, explainer.ExpectedValue(), vec)
			require.NoError(t, err)
			assert.InDeltaSlice(t, wantValues, result.Values, 1e-9)
			assert.InDelta(t, wantBase, result.BaseValue, 1e-9)
		})
	}
}

func TestLinearExplainer_RawKinds(t *testing.T) {
	tests := map[string]string{
		"":                        KindModernStructured,
		ShapeStructured:           KindModernStructured,
		ShapeStructuredMulticlass: KindModernStructured,
		ShapeLegacyArray:          KindLegacyArray,
		ShapeLegacyPerClass:       KindLegacyPerClassList,
	}
	for shape, kind := range tests {
		explainer, err := NewLinearExplainer(createTestArtifact(), shape)
		require.NoError(t, err)
		raw, err := explainer.Explain(context.Background(), models.FeatureVector{})
		require.NoError(t, err)
		assert.Equal(t, kind, raw.Kind(), shape)
	}

	_, err := NewLinearExplainer(createTestArtifact(), "kernel")
	assert.Error(t, err)
}

// ==========================
// Remote explainer
// ==========================

type MockRemoteClient struct {
	mock.Mock
}

func (m *MockRemoteClient) Capabilities(ctx context.Context) (remote.Capabilities, error) {
	args := m.Called(ctx)
	return args.Get(0).(remote.Capabilities), args.Error(1)
}

func (m *MockRemoteClient) Explain(ctx context.Context, rows [][]float64) (json.RawMessage, error) {
	args := m.Called(ctx, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockRemoteClient) ExpectedValue(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func TestRemoteExplainer_LegacyPerClass(t *testing.T) {
	client := new(MockRemoteClient)
	client.On("Capabilities", mock.Anything).Return(remote.Capabilities{Explain: true}, nil)
	client.On("ExpectedValue", mock.Anything).Return(json.RawMessage(`[0.3, 0.4]`), nil)
	client.On("Explain", mock.Anything, mock.Anything).
		Return(json.RawMessage(`[`+jsonSeq(0)+`,`+jsonSeq(100)+`]`), nil)

	explainer, err := NewRemoteExplainer(context.Background(), client)
	require.NoError(t, err)

	raw, err := explainer.Explain(context.Background(), testVector())
	require.NoError(t, err)

	result, err := Normalize(raw, explainer.ExpectedValue(), testVector())
	require.NoError(t, err)
	assert.Equal(t, seq(100), result.Values)
	assert.Equal(t, 0.4, result.BaseValue)
	client.AssertExpectations(t)
}

func TestRemoteExplainer_MissingExpectedValueEndpoint(t *testing.T) {
	client := new(MockRemoteClient)
	client.On("Capabilities", mock.Anything).Return(remote.Capabilities{Explain: true}, nil)
	client.On("ExpectedValue", mock.Anything).
		Return(nil, &commonhttp.StatusError{StatusCode: http.StatusNotFound, Status: "404 Not Found"})

	explainer, err := NewRemoteExplainer(context.Background(), client)
	require.NoError(t, err)
	assert.True(t, explainer.ExpectedValue().Empty())
}

func TestRemoteExplainer_LoadFailures(t *testing.T) {
	t.Run("no explain capability", func(t *testing.T) {
		client := new(MockRemoteClient)
		client.On("Capabilities", mock.Anything).Return(remote.Capabilities{PredictProba: true}, nil)

		_, err := NewRemoteExplainer(context.Background(), client)
		assert.Error(t, err)
	})

	t.Run("expected value server error", func(t *testing.T) {
		client := new(MockRemoteClient)
		client.On("Capabilities", mock.Anything).Return(remote.Capabilities{Explain: true}, nil)
		client.On("ExpectedValue", mock.Anything).
			Return(nil, &commonhttp.StatusError{StatusCode: http.StatusInternalServerError, Status: "500"})

		_, err := NewRemoteExplainer(context.Background(), client)
		assert.Error(t, err)
	})
}

func TestRemoteExplainer_InvocationFailure(t *testing.T) {
	client := new(MockRemoteClient)
	client.On("Capabilities", mock.Anything).Return(remote.Capabilities{Explain: true}, nil)
	client.On("ExpectedValue", mock.Anything).Return(json.RawMessage(`0.1`), nil)
	client.On("Explain", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("timeout"))

	explainer, err := NewRemoteExplainer(context.Background(), client)
	require.NoError(t, err)

	_, err = explainer.Explain(context.Background(), testVector())
	assert.ErrorIs(t, err, errors.ErrBackendInvocationFailed)
}
