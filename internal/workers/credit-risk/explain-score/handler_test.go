// internal/workers/credit-risk/explain-score/handler_test.go
package explainscore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk/explanation"
	"credit-risk-workers/internal/risk/pipeline"
	"credit-risk-workers/internal/risk/scoring"
	"credit-risk-workers/pkg/artifact"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestArtifact() *artifact.LinearModel {
	coefs := make([]float64, models.FeatureCount)
	coefs[4] = -0.0001
	coefs[10] = 0.9
	return &artifact.LinearModel{
		FeatureNames: models.FeatureNameList(),
		Coefficients: coefs,
		Intercept:    -2,
		Link:         artifact.LinkLogit,
	}
}

func createTestPipeline(t *testing.T, shape string, withExplainer bool) *pipeline.Pipeline {
	t.Helper()
	m := createTestArtifact()
	scorer, err := scoring.NewScorer("linear", scoring.NewLinearModel(m))
	require.NoError(t, err)

	var explainer explanation.Explainer
	if withExplainer {
		e, err := explanation.NewLinearExplainer(m, shape)
		require.NoError(t, err)
		explainer = e
	}
	return pipeline.New(pipeline.NewBackends(scorer, explainer), logger.NewTestLogger(t))
}

func createTestInput(applicant string) *Input {
	return &Input{RequestID: "req-7", Applicant: json.RawMessage(applicant)}
}

// ==========================
// Execute
// ==========================

func TestExecute_AllExplainerShapes(t *testing.T) {
	shapes := []string{
		explanation.ShapeStructured,
		explanation.ShapeStructuredMulticlass,
		explanation.ShapeLegacyArray,
		explanation.ShapeLegacyPerClass,
	}

	for _, shape := range shapes {
		t.Run(shape, func(t *testing.T) {
			handler := NewHandler(createTestConfig(), createTestPipeline(t, shape, true), logger.NewTestLogger(t))

			output, err := handler.Execute(context.Background(), createTestInput(`{
				"MonthlyIncome": 3000,
				"NumberOfTime30-59DaysPastDueNotWorse": 2,
				"NumberOfTimes90DaysLate": 3
			}`))
			require.NoError(t, err)

			result := output.RiskExplanation
			assert.Equal(t, "req-7", output.RequestID)
			assert.Len(t, result.Values, models.FeatureCount)
			assert.Equal(t, models.FeatureNameList(), result.FeatureNames)
			assert.InDelta(t, 4.5, result.Values[10], 1e-9)
			assert.InDelta(t, -0.3, result.Values[4], 1e-9)
			assert.InDelta(t, -2.0, result.BaseValue, 1e-9)
			assert.Equal(t, 5.0, result.FeatureValues[10])
			assert.Equal(t, "TotalPastDue", output.TopFeature)
		})
	}
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		applicant string
		explainer bool
		wantCode  errors.ErrorCode
	}{
		{"malformed applicant", `{"age": 3`, true, errors.ErrCodeParse},
		{"boolean attribute", `{"DebtRatio": false}`, true, errors.ErrCodeValidation},
		{"explainer not loaded", `{"age": 40}`, false, errors.ErrCodeExplanationUnavailable},
		{"explainer not loaded wins over invalid applicant", `{"DebtRatio": false}`, false, errors.ErrCodeExplanationUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(createTestConfig(), createTestPipeline(t, "", tt.explainer), logger.NewTestLogger(t))

			_, err := handler.Execute(context.Background(), createTestInput(tt.applicant))
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
}

func TestTopFeature(t *testing.T) {
	assert.Equal(t, "", topFeature(models.AttributionResult{}))
	assert.Equal(t, "b", topFeature(models.AttributionResult{
		Values:       []float64{0.1, -0.9, 0.5},
		FeatureNames: []string{"a", "b", "c"},
	}))
}
