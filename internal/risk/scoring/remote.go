package scoring

import (
	"context"
	"fmt"

	"credit-risk-workers/internal/risk/remote"
)

// RemoteClient is the subset of the model server client used for scoring.
type RemoteClient interface {
	Capabilities(ctx context.Context) (remote.Capabilities, error)
	PredictProba(ctx context.Context, rows [][]float64) ([][]float64, error)
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
}

type remoteProbabilityModel struct{ client RemoteClient }

func (m *remoteProbabilityModel) PredictProba(ctx context.Context, rows [][]float64) ([][]float64, error) {
	return m.client.PredictProba(ctx, rows)
}

type remoteLabelModel struct{ client RemoteClient }

func (m *remoteLabelModel) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	return m.client.Predict(ctx, rows)
}

// NewRemoteModel probes the server once and returns a model exposing only the
// capability the server advertises, so NewScorer selects the right variant.
func NewRemoteModel(ctx context.Context, client RemoteClient) (interface{}, error) {
	caps, err := client.Capabilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe capabilities: %w", err)
	}
	if caps.PredictProba {
		return &remoteProbabilityModel{client: client}, nil
	}
	return &remoteLabelModel{client: client}, nil
}
