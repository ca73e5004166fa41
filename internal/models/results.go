// internal/models/results.go
package models

// Capability identifies which scoring variant produced a score.
type Capability string

const (
	CapabilityProbability Capability = "probability"
	CapabilityLabelOnly   Capability = "label_only"
)

// ScoreResult is the outcome of predict. Score lies in [0,1] for probability
// backends; label-only backends return the raw prediction unclamped.
type ScoreResult struct {
	Score      float64    `json:"score"`
	Capability Capability `json:"-"`
}

// AttributionResult is the canonical explanation of one prediction.
type AttributionResult struct {
	Values        []float64 `json:"shap_values"`
	FeatureNames  []string  `json:"feature_names"`
	BaseValue     float64   `json:"base_value"`
	FeatureValues []float64 `json:"feature_values"`
}

// PredictionRecord is what the decision sinks receive after a successful predict.
type PredictionRecord struct {
	RequestID  string        `json:"requestId"`
	Features   FeatureVector `json:"features"`
	Score      float64       `json:"score"`
	Capability Capability    `json:"capability"`
	Source     string        `json:"source"`
	CreatedAt  string        `json:"createdAt"`
}

// ExplanationRecord is what the decision sinks receive after a successful explain.
type ExplanationRecord struct {
	RequestID   string            `json:"requestId"`
	Attribution AttributionResult `json:"attribution"`
	Shape       string            `json:"shape"`
	Source      string            `json:"source"`
	CreatedAt   string            `json:"createdAt"`
}
