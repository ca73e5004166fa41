package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: credit-risk-workers
models:
  scoring:
    kind: linear
    path: artifacts/credit_risk_model.json
workers:
  credit-risk-predict:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Empty(t, cfg.Server.CORSOrigins)
	assert.Equal(t, 0, cfg.Server.RateLimitPerMin)
	assert.Equal(t, "linear", cfg.Models.Scoring.Kind)
	assert.Equal(t, 5000, cfg.Models.Scoring.Timeout)
	assert.Equal(t, "structured", cfg.Models.Explanation.Shape)
	assert.Equal(t, "", cfg.Models.Explanation.Kind)
	assert.Equal(t, 300, cfg.Cache.TTL)
	assert.Equal(t, "risk_decisions", cfg.Audit.Table)
	assert.Equal(t, 0.8, cfg.Alerts.Threshold)

	worker := cfg.Workers["credit-risk-predict"]
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("MODELS_EXPLANATION_KIND", "remote")
	t.Setenv("MODELS_EXPLANATION_URL", "http://model-server:8000")
	path := writeConfig(t, "app:\n  name: test\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "remote", cfg.Models.Explanation.Kind)
	assert.Equal(t, "http://model-server:8000", cfg.Models.Explanation.URL)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("RISK_AUDIT_PASSWORD", "s3cret")
	path := writeConfig(t, `
audit:
  enabled: true
  database: risk
  user: risk
  password: ${RISK_AUDIT_PASSWORD}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Audit.Password)
	assert.Contains(t, cfg.Audit.GetDSN(), "password=s3cret")
	assert.Contains(t, cfg.Audit.GetDSN(), "sslmode=disable")
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name:   "unsupported backend kind",
			body:   "models:\n  scoring:\n    kind: pickle\n",
			errMsg: `models.scoring.kind "pickle" is not supported`,
		},
		{
			name:   "linear backend without path",
			body:   "models:\n  scoring:\n    kind: linear\n",
			errMsg: "models.scoring.path is required",
		},
		{
			name:   "remote explainer without url",
			body:   "models:\n  explanation:\n    kind: remote\n",
			errMsg: "models.explanation.url is required",
		},
		{
			name:   "camunda enabled without broker",
			body:   "camunda:\n  enabled: true\n",
			errMsg: "camunda.broker_address is required",
		},
		{
			name:   "negative rate limit",
			body:   "server:\n  rate_limit_per_min: -1\n",
			errMsg: "server.rate_limit_per_min must not be negative",
		},
		{
			name:   "alerts threshold out of range",
			body:   "alerts:\n  threshold: 1.5\n",
			errMsg: "alerts.threshold must be within [0,1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{}}

	worker := GetWorkerConfig(cfg, "credit-risk-explain")
	assert.True(t, worker.Enabled)
	assert.Equal(t, 30*time.Second, GetDuration(worker.Timeout))
}
