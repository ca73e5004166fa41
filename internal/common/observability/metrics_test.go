package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		o.RecordRequest(context.Background(), "predict", "success", time.Millisecond)
		o.Shutdown()
	})
}

// New installs global providers and registers the Prometheus exporter, so it
// is exercised once per test binary.
func TestNew_RecordsSpansAndRequests(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs, err := New("credit-risk-test", recorder)
	require.NoError(t, err)
	defer obs.Shutdown()

	ctx, span := StartSpan(context.Background(), "risk.predict", attribute.String("capability", "probability"))
	assert.True(t, span.SpanContext().IsValid())
	obs.RecordRequest(ctx, "predict", "success", 3*time.Millisecond)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "risk.predict", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("capability", "probability"))
}
