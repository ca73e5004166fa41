package explainscore

import (
	"fmt"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/validation"
	"credit-risk-workers/pkg/registry"
)

// Activity describes this worker for the activity registry.
func Activity(cfg *Config) registry.Activity {
	applicant := validation.ApplicantSchema()
	delete(applicant, "$schema")

	numbers := map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "number"},
	}

	return registry.Activity{
		ID:                   TaskType,
		DisplayName:          "Explain Credit Risk",
		Description:          "Returns per-feature attributions and the base value behind an applicant's risk score.",
		Category:             "credit-risk",
		Version:              "1.0.0",
		TaskType:             TaskType,
		ImplementationStatus: registry.StatusCompleted,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"requestId": map[string]interface{}{"type": "string"},
				"applicant": applicant,
			},
			"required": []string{"applicant"},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"requestId": map[string]interface{}{"type": "string"},
				"riskExplanation": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"shap_values":    numbers,
						"feature_names":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"base_value":     map[string]interface{}{"type": "number"},
						"feature_values": numbers,
					},
				},
				"topFeature": map[string]interface{}{"type": "string"},
			},
		},
		ErrorCodes: []string{
			string(errors.ErrCodeScoringUnavailable),
			string(errors.ErrCodeExplanationUnavailable),
			string(errors.ErrCodeValidation),
			string(errors.ErrCodeParse),
			string(errors.ErrCodeExplanationShapeUnrecognized),
			string(errors.ErrCodeBackendInvocationFailed),
		},
		Timeout: fmt.Sprint(cfg.Timeout),
		Retries: errors.GetRetryCount(errors.ErrCodeBackendInvocationFailed),
		Tags:    []string{"credit-risk", "explainability"},
	}
}
