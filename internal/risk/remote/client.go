// Package remote talks to an external model server that hosts the scoring
// model and its explainer.
package remote

import (
	"context"
	"encoding/json"
	"time"

	commonhttp "credit-risk-workers/internal/common/http"
	"credit-risk-workers/internal/models"
)

// Capabilities is what the model server reports about itself.
type Capabilities struct {
	PredictProba bool `json:"predict_proba"`
	Explain      bool `json:"explain"`
}

type instancesRequest struct {
	Instances    [][]float64 `json:"instances"`
	FeatureNames []string    `json:"feature_names"`
}

// Client calls the model server's JSON endpoints.
type Client struct {
	http *commonhttp.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{http: commonhttp.NewJSONClient(baseURL, timeout)}
}

// Capabilities probes GET /capabilities.
func (c *Client) Capabilities(ctx context.Context) (Capabilities, error) {
	var caps Capabilities
	err := c.http.GetJSON(ctx, "/capabilities", &caps)
	return caps, err
}

// PredictProba calls POST /predict_proba and returns one row of class
// probabilities per instance.
func (c *Client) PredictProba(ctx context.Context, rows [][]float64) ([][]float64, error) {
	var resp struct {
		Probabilities [][]float64 `json:"probabilities"`
	}
	if err := c.http.PostJSON(ctx, "/predict_proba", newInstances(rows), &resp); err != nil {
		return nil, err
	}
	return resp.Probabilities, nil
}

// Predict calls POST /predict and returns one raw prediction per instance.
func (c *Client) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	var resp struct {
		Predictions []float64 `json:"predictions"`
	}
	if err := c.http.PostJSON(ctx, "/predict", newInstances(rows), &resp); err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

// Explain calls POST /explain and returns the explainer output undecoded;
// its shape depends on the explainer version running on the server.
func (c *Client) Explain(ctx context.Context, rows [][]float64) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.http.PostJSON(ctx, "/explain", newInstances(rows), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ExpectedValue fetches GET /expected_value, a scalar or one value per class.
func (c *Client) ExpectedValue(ctx context.Context) (json.RawMessage, error) {
	var resp struct {
		ExpectedValue json.RawMessage `json:"expected_value"`
	}
	if err := c.http.GetJSON(ctx, "/expected_value", &resp); err != nil {
		return nil, err
	}
	return resp.ExpectedValue, nil
}

func newInstances(rows [][]float64) instancesRequest {
	return instancesRequest{Instances: rows, FeatureNames: models.FeatureNameList()}
}
