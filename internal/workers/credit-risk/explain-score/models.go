// internal/workers/credit-risk/explain-score/models.go
package explainscore

import (
	"encoding/json"

	"credit-risk-workers/internal/models"
)

type Input struct {
	RequestID string          `json:"requestId,omitempty"`
	Applicant json.RawMessage `json:"applicant"`
}

type Output struct {
	RequestID       string                   `json:"requestId"`
	RiskExplanation models.AttributionResult `json:"riskExplanation"`
	TopFeature      string                   `json:"topFeature"`
}
