package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
)

// MessagePublisher publishes a message to a topic.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, topicARN, subject, message string, attrs map[string]string) (string, error)
}

// AlertPublisher publishes an alert for every probability score at or above
// the threshold. Label-only scores are not probabilities and never alert.
type AlertPublisher struct {
	publisher MessagePublisher
	topicARN  string
	threshold float64
}

func NewAlertPublisher(publisher MessagePublisher, topicARN string, threshold float64) *AlertPublisher {
	return &AlertPublisher{publisher: publisher, topicARN: topicARN, threshold: threshold}
}

func (a *AlertPublisher) Name() string { return "alerts" }

type highRiskAlert struct {
	RequestID string  `json:"requestId"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Source    string  `json:"source"`
	CreatedAt string  `json:"createdAt"`
}

func (a *AlertPublisher) OnPrediction(ctx context.Context, rec models.PredictionRecord) error {
	if rec.Capability != models.CapabilityProbability || rec.Score < a.threshold {
		return nil
	}

	message, err := json.Marshal(highRiskAlert{
		RequestID: rec.RequestID,
		Score:     rec.Score,
		Threshold: a.threshold,
		Source:    rec.Source,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return errors.NewSinkError(errors.ErrCodeAlertPublishFailed, err)
	}

	_, err = a.publisher.PublishMessage(ctx, a.topicARN,
		fmt.Sprintf("High credit risk: %.2f", rec.Score),
		string(message),
		map[string]string{
			"requestId": rec.RequestID,
			"score":     strconv.FormatFloat(rec.Score, 'f', 4, 64),
		},
	)
	if err != nil {
		return errors.NewSinkError(errors.ErrCodeAlertPublishFailed, err)
	}
	return nil
}

// OnExplanation is a no-op; alerts fire on scores only.
func (a *AlertPublisher) OnExplanation(context.Context, models.ExplanationRecord) error {
	return nil
}
