package predictscore

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

	return registry.Activity{
		ID:                   TaskType,
		DisplayName:          "Predict Credit Risk",
		Description:          "Derives the 14 model features from an applicant and returns the risk score.",
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
				"requestId":       map[string]interface{}{"type": "string"},
				"riskScore":       map[string]interface{}{"type": "number"},
				"scoreCapability": map[string]interface{}{"type": "string", "enum": []string{"probability", "label_only"}},
			},
		},
		ErrorCodes: []string{
			string(errors.ErrCodeScoringUnavailable),
			string(errors.ErrCodeValidation),
			string(errors.ErrCodeParse),
			string(errors.ErrCodeBackendInvocationFailed),
		},
		Timeout: fmt.Sprint(cfg.Timeout),
		Retries: errors.GetRetryCount(errors.ErrCodeBackendInvocationFailed),
		Tags:    []string{"credit-risk", "scoring"},
	}
}
