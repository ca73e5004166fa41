package pipeline

import (
	"credit-risk-workers/internal/risk/explanation"
	"credit-risk-workers/internal/risk/scoring"
)

// Backends holds the scoring and explanation capabilities loaded at start-up.
// Either may be absent; absence is permanent for the life of the process.
type Backends struct {
	scorer    scoring.Scorer
	scorerID  string
	explainer explanation.Explainer
}

// NewBackends wraps the loaded capabilities. Pass nil for one that failed to load.
func NewBackends(scorer scoring.Scorer, explainer explanation.Explainer) *Backends {
	return &Backends{scorer: scorer, explainer: explainer}
}

// Scorer returns the scoring capability and whether it was loaded.
func (b *Backends) Scorer() (scoring.Scorer, bool) {
	if b == nil || b.scorer == nil {
		return nil, false
	}
	return b.scorer, true
}

// WithScorerID records what the scorer was loaded from: an artifact
// fingerprint or a remote URL. It namespaces cached scores, so a different
// model never sees another model's entries.
func (b *Backends) WithScorerID(id string) *Backends {
	b.scorerID = id
	return b
}

// ScoreScope names the loaded scorer for the score cache: its capability plus
// its ID. It is empty when no scorer is loaded.
func (b *Backends) ScoreScope() string {
	scorer, ok := b.Scorer()
	if !ok {
		return ""
	}
	if b.scorerID == "" {
		return string(scorer.Capability())
	}
	return string(scorer.Capability()) + ":" + b.scorerID
}

// Explainer returns the explanation capability and whether it was loaded.
func (b *Backends) Explainer() (explanation.Explainer, bool) {
	if b == nil || b.explainer == nil {
		return nil, false
	}
	return b.explainer, true
}

// Status reports which capabilities are loaded, for readiness probes.
func (b *Backends) Status() map[string]bool {
	_, scorer := b.Scorer()
	_, explainer := b.Explainer()
	return map[string]bool{
		"model_loaded":     scorer,
		"explainer_loaded": explainer,
	}
}
