package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
)

// ExplanationArchive indexes every explanation in Elasticsearch so that
// attributions can be searched per feature later.
type ExplanationArchive struct {
	es    *elasticsearch.Client
	index string
}

func NewExplanationArchive(es *elasticsearch.Client, index string) *ExplanationArchive {
	return &ExplanationArchive{es: es, index: index}
}

func (a *ExplanationArchive) Name() string { return "archive" }

// OnPrediction is a no-op; only explanations are archived.
func (a *ExplanationArchive) OnPrediction(context.Context, models.PredictionRecord) error {
	return nil
}

type archivedExplanation struct {
	RequestID     string             `json:"requestId"`
	Source        string             `json:"source"`
	Shape         string             `json:"shape"`
	BaseValue     float64            `json:"baseValue"`
	Attributions  map[string]float64 `json:"attributions"`
	FeatureValues map[string]float64 `json:"featureValues"`
	CreatedAt     string             `json:"createdAt"`
}

func (a *ExplanationArchive) OnExplanation(ctx context.Context, rec models.ExplanationRecord) error {
	doc := archivedExplanation{
		RequestID:     rec.RequestID,
		Source:        rec.Source,
		Shape:         rec.Shape,
		BaseValue:     rec.Attribution.BaseValue,
		Attributions:  zipNames(rec.Attribution.FeatureNames, rec.Attribution.Values),
		FeatureValues: zipNames(rec.Attribution.FeatureNames, rec.Attribution.FeatureValues),
		CreatedAt:     rec.CreatedAt,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.NewSinkError(errors.ErrCodeArchiveFailed, err)
	}

	res, err := a.es.Index(
		a.index,
		bytes.NewReader(body),
		a.es.Index.WithContext(ctx),
		a.es.Index.WithDocumentID(rec.RequestID),
	)
	if err != nil {
		return errors.NewSinkError(errors.ErrCodeArchiveFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return errors.NewSinkError(errors.ErrCodeArchiveFailed,
			fmt.Errorf("index %s: %s: %s", a.index, res.Status(), bytes.TrimSpace(msg)))
	}
	return nil
}

func zipNames(names []string, values []float64) map[string]float64 {
	out := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(values) {
			out[name] = values[i]
		}
	}
	return out
}
