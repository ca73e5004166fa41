// internal/workers/credit-risk/predict-score/models.go
package predictscore

import "encoding/json"

type Input struct {
	RequestID string          `json:"requestId,omitempty"`
	Applicant json.RawMessage `json:"applicant"`
}

type Output struct {
	RequestID       string  `json:"requestId"`
	RiskScore       float64 `json:"riskScore"`
	ScoreCapability string  `json:"scoreCapability"`
}
