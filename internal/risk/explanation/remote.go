package explanation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"credit-risk-workers/internal/common/errors"
	commonhttp "credit-risk-workers/internal/common/http"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk/remote"
)

// RemoteClient is the subset of the model server client used for explanations.
type RemoteClient interface {
	Capabilities(ctx context.Context) (remote.Capabilities, error)
	Explain(ctx context.Context, rows [][]float64) (json.RawMessage, error)
	ExpectedValue(ctx context.Context) (json.RawMessage, error)
}

// RemoteExplainer adapts a model server's explainer to the Raw union.
type RemoteExplainer struct {
	client   RemoteClient
	expected Array
}

// NewRemoteExplainer checks that the server offers explanations and fetches
// its expected value once. A server without an /expected_value endpoint is
// accepted; its results then need their own base values or fall back to 0.
func NewRemoteExplainer(ctx context.Context, client RemoteClient) (*RemoteExplainer, error) {
	caps, err := client.Capabilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe capabilities: %w", err)
	}
	if !caps.Explain {
		return nil, fmt.Errorf("model server does not offer explanations")
	}

	var expected Array
	payload, err := client.ExpectedValue(ctx)
	switch {
	case err == nil:
		expected, err = DecodeExpectedValue(payload)
		if err != nil {
			return nil, fmt.Errorf("decode expected value: %w", err)
		}
	case isNotFound(err):
	default:
		return nil, fmt.Errorf("fetch expected value: %w", err)
	}

	return &RemoteExplainer{client: client, expected: expected}, nil
}

func (e *RemoteExplainer) Explain(ctx context.Context, vec models.FeatureVector) (Raw, error) {
	payload, err := e.client.Explain(ctx, [][]float64{vec.Slice()})
	if err != nil {
		return nil, errors.NewBackendInvocationFailedError("remote-explainer", err)
	}
	return DecodeRaw(payload)
}

func (e *RemoteExplainer) ExpectedValue() Array {
	return e.expected
}

func isNotFound(err error) bool {
	var statusErr *commonhttp.StatusError
	return stderrors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}
