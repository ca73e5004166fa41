// pkg/artifact/artifact.go
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a LinearModel from path and checks it against the expected
// feature order.
func Load(path string, featureNames []string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	if err := m.Validate(featureNames); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks that the artifact was trained on featureNames in the same
// order. Backends are positional, so a reordered artifact would score silently
// wrong.
func (m *LinearModel) Validate(featureNames []string) error {
	if len(m.FeatureNames) != len(featureNames) {
		return fmt.Errorf("expected %d features, artifact has %d", len(featureNames), len(m.FeatureNames))
	}
	for i, name := range featureNames {
		if m.FeatureNames[i] != name {
			return fmt.Errorf("feature %d is %q, expected %q", i, m.FeatureNames[i], name)
		}
	}
	if len(m.Coefficients) != len(featureNames) {
		return fmt.Errorf("expected %d coefficients, artifact has %d", len(featureNames), len(m.Coefficients))
	}
	if len(m.Means) != 0 && len(m.Means) != len(featureNames) {
		return fmt.Errorf("expected %d means, artifact has %d", len(featureNames), len(m.Means))
	}
	switch m.Link {
	case "", LinkLogit, LinkIdentity:
	default:
		return fmt.Errorf("unsupported link %q", m.Link)
	}
	return nil
}

// Mean returns the baseline for feature i, 0 when the artifact carries none.
func (m *LinearModel) Mean(i int) float64 {
	if i < len(m.Means) {
		return m.Means[i]
	}
	return 0
}

// IsProbability reports whether the model emits probabilities. An empty link
// defaults to logit.
func (m *LinearModel) IsProbability() bool {
	return m.Link != LinkIdentity
}

// Fingerprint identifies the model's scoring behaviour: it changes whenever a
// coefficient, the intercept, the link or the feature order does, even if
// Version was not bumped.
func (m *LinearModel) Fingerprint() string {
	data, _ := json.Marshal(struct {
		FeatureNames []string  `json:"f"`
		Coefficients []float64 `json:"c"`
		Intercept    float64   `json:"i"`
		Link         string    `json:"l"`
	}{m.FeatureNames, m.Coefficients, m.Intercept, m.Link})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
