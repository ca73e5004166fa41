// Package backend loads the scoring and explanation capabilities once at
// start-up. A capability that fails to load is logged and left absent; it is
// never retried.
package backend

import (
	"context"
	"fmt"

	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk/explanation"
	"credit-risk-workers/internal/risk/pipeline"
	"credit-risk-workers/internal/risk/remote"
	"credit-risk-workers/internal/risk/scoring"
	"credit-risk-workers/pkg/artifact"
)

// Load builds the pipeline backends described by cfg.
func Load(ctx context.Context, cfg config.ModelsConfig, log logger.Logger) *pipeline.Backends {
	log = log.WithFields(map[string]interface{}{"component": "backend-loader"})

	scorer, scorerID, err := loadScorer(ctx, cfg.Scoring)
	if err != nil {
		log.Error("Failed to load scoring model", map[string]interface{}{
			"kind":  cfg.Scoring.Kind,
			"error": err,
		})
	} else if scorer != nil {
		log.Info("Scoring model loaded", map[string]interface{}{
			"kind":       cfg.Scoring.Kind,
			"capability": string(scorer.Capability()),
			"scorerId":   scorerID,
		})
	}

	explainer, err := loadExplainer(ctx, cfg.Explanation)
	if err != nil {
		log.Error("Failed to load explainer", map[string]interface{}{
			"kind":  cfg.Explanation.Kind,
			"error": err,
		})
	} else if explainer != nil {
		log.Info("Explainer loaded", map[string]interface{}{
			"kind":  cfg.Explanation.Kind,
			"shape": cfg.Explanation.Shape,
		})
	}

	return pipeline.NewBackends(scorer, explainer).WithScorerID(scorerID)
}

// loadScorer also returns an ID for the loaded model: the artifact
// fingerprint for a linear model, the service URL for a remote one.
func loadScorer(ctx context.Context, cfg config.BackendConfig) (scoring.Scorer, string, error) {
	var (
		model interface{}
		id    string
	)
	switch cfg.Kind {
	case "":
		return nil, "", nil
	case config.BackendKindLinear:
		m, err := artifact.Load(cfg.Path, models.FeatureNameList())
		if err != nil {
			return nil, "", err
		}
		model = scoring.NewLinearModel(m)
		id = "linear@" + m.Fingerprint()
	case config.BackendKindRemote:
		client := remote.NewClient(cfg.URL, config.GetDuration(cfg.Timeout))
		m, err := scoring.NewRemoteModel(ctx, client)
		if err != nil {
			return nil, "", err
		}
		model = m
		id = "remote@" + cfg.URL
	default:
		return nil, "", fmt.Errorf("unsupported backend kind %q", cfg.Kind)
	}
	scorer, err := scoring.NewScorer(cfg.Kind, model)
	if err != nil {
		return nil, "", err
	}
	return scorer, id, nil
}

func loadExplainer(ctx context.Context, cfg config.BackendConfig) (explanation.Explainer, error) {
	switch cfg.Kind {
	case "":
		return nil, nil
	case config.BackendKindLinear:
		m, err := artifact.Load(cfg.Path, models.FeatureNameList())
		if err != nil {
			return nil, err
		}
		e, err := explanation.NewLinearExplainer(m, cfg.Shape)
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.BackendKindRemote:
		client := remote.NewClient(cfg.URL, config.GetDuration(cfg.Timeout))
		e, err := explanation.NewRemoteExplainer(ctx, client)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported backend kind %q", cfg.Kind)
	}
}
