// Package pipeline orchestrates feature derivation, scoring and explanation
// for a single applicant.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk/explanation"
	"credit-risk-workers/internal/risk/features"
)

// ScoreCache memoizes scores by feature vector within a scope naming the
// scorer that produced them.
type ScoreCache interface {
	Get(ctx context.Context, scope string, vec models.FeatureVector) (models.ScoreResult, bool, error)
	Set(ctx context.Context, scope string, vec models.FeatureVector, result models.ScoreResult) error
}

// Sink receives every successful decision. Sink failures are logged and never
// reach the caller.
type Sink interface {
	Name() string
	OnPrediction(ctx context.Context, rec models.PredictionRecord) error
	OnExplanation(ctx context.Context, rec models.ExplanationRecord) error
}

type Pipeline struct {
	backends *Backends
	logger   logger.Logger
	cache    ScoreCache
	sinks    []Sink
	obs      *observability.Observability
	now      func() time.Time
}

type Option func(*Pipeline)

func WithCache(cache ScoreCache) Option {
	return func(p *Pipeline) { p.cache = cache }
}

func WithSinks(sinks ...Sink) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, sinks...) }
}

func WithObservability(obs *observability.Observability) Option {
	return func(p *Pipeline) { p.obs = obs }
}

func New(backends *Backends, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		backends: backends,
		logger:   log.WithFields(map[string]interface{}{"component": "risk-pipeline"}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Backends exposes the loaded capabilities for readiness checks.
func (p *Pipeline) Backends() *Backends {
	return p.backends
}

// Predict scores raw. Backend availability is checked before any derivation.
func (p *Pipeline) Predict(ctx context.Context, raw models.RawApplicant) (result models.ScoreResult, err error) {
	ctx, span := observability.StartSpan(ctx, "risk.predict")
	start := p.now()
	capability := "none"
	defer func() {
		outcome := outcomeOf(err)
		metrics.RiskPredictions.WithLabelValues(capability, outcome).Inc()
		p.obs.RecordRequest(ctx, "predict", outcome, time.Since(start))
		endSpan(span, err)
	}()

	scorer, ok := p.backends.Scorer()
	if !ok {
		return models.ScoreResult{}, errors.NewScoringUnavailableError()
	}
	capability = string(scorer.Capability())

	vec, err := p.derive(raw)
	if err != nil {
		return models.ScoreResult{}, err
	}

	scope := p.backends.ScoreScope()
	if cached, hit := p.lookup(ctx, scope, scorer.Capability(), vec); hit {
		result = cached
	} else {
		score, err := scorer.Score(ctx, vec)
		if err != nil {
			return models.ScoreResult{}, err
		}
		result = models.ScoreResult{Score: score, Capability: scorer.Capability()}
		p.store(ctx, scope, vec, result)
	}

	metrics.RiskScore.Observe(result.Score)
	span.SetAttributes(attribute.Float64("risk.score", result.Score))

	meta := MetaFromContext(ctx)
	p.notifyPrediction(ctx, models.PredictionRecord{
		RequestID:  meta.RequestID,
		Features:   vec,
		Score:      result.Score,
		Capability: result.Capability,
		Source:     meta.Source,
		CreatedAt:  p.now().UTC().Format(time.RFC3339),
	})

	return result, nil
}

// Explain attributes raw's score to its features. Explanations depend on the
// scoring model, so both capabilities must be loaded.
func (p *Pipeline) Explain(ctx context.Context, raw models.RawApplicant) (result models.AttributionResult, err error) {
	ctx, span := observability.StartSpan(ctx, "risk.explain")
	start := p.now()
	shape := "none"
	defer func() {
		outcome := outcomeOf(err)
		metrics.RiskExplanations.WithLabelValues(shape, outcome).Inc()
		p.obs.RecordRequest(ctx, "explain", outcome, time.Since(start))
		endSpan(span, err)
	}()

	if _, ok := p.backends.Scorer(); !ok {
		return models.AttributionResult{}, errors.NewScoringUnavailableError()
	}
	explainer, ok := p.backends.Explainer()
	if !ok {
		return models.AttributionResult{}, errors.NewExplanationUnavailableError()
	}

	vec, err := p.derive(raw)
	if err != nil {
		return models.AttributionResult{}, err
	}

	rawResult, err := explainer.Explain(ctx, vec)
	if err != nil {
		return models.AttributionResult{}, err
	}
	shape = rawResult.Kind()

	result, err = explanation.Normalize(rawResult, explainer.ExpectedValue(), vec)
	if err != nil {
		p.logger.Warn("Explanation shape not recognized", map[string]interface{}{
			"shape": shape,
			"error": err,
		})
		return models.AttributionResult{}, err
	}

	meta := MetaFromContext(ctx)
	p.notifyExplanation(ctx, models.ExplanationRecord{
		RequestID:   meta.RequestID,
		Attribution: result,
		Shape:       shape,
		Source:      meta.Source,
		CreatedAt:   p.now().UTC().Format(time.RFC3339),
	})

	return result, nil
}

// derive is the single derivation path shared by Predict and Explain.
func (p *Pipeline) derive(raw models.RawApplicant) (models.FeatureVector, error) {
	return features.Derive(raw)
}

// lookup returns a cached score for vec. An entry whose capability differs
// from the loaded scorer's is treated as a miss and overwritten.
func (p *Pipeline) lookup(ctx context.Context, scope string, capability models.Capability, vec models.FeatureVector) (models.ScoreResult, bool) {
	if p.cache == nil {
		return models.ScoreResult{}, false
	}
	cached, hit, err := p.cache.Get(ctx, scope, vec)
	switch {
	case err != nil:
		metrics.ScoreCacheLookups.WithLabelValues("error").Inc()
		p.logger.Warn("Score cache lookup failed", map[string]interface{}{
			"errorCode": errors.ErrCodeCacheFailed,
			"error":     err,
		})
		return models.ScoreResult{}, false
	case hit && cached.Capability != capability:
		metrics.ScoreCacheLookups.WithLabelValues("stale").Inc()
		p.logger.Warn("Discarding cached score from another scorer", map[string]interface{}{
			"scope":            scope,
			"cachedCapability": string(cached.Capability),
			"capability":       string(capability),
		})
		return models.ScoreResult{}, false
	case hit:
		metrics.ScoreCacheLookups.WithLabelValues("hit").Inc()
		return cached, true
	default:
		metrics.ScoreCacheLookups.WithLabelValues("miss").Inc()
		return models.ScoreResult{}, false
	}
}

func (p *Pipeline) store(ctx context.Context, scope string, vec models.FeatureVector, result models.ScoreResult) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ctx, scope, vec, result); err != nil {
		p.logger.Warn("Score cache write failed", map[string]interface{}{
			"errorCode": errors.ErrCodeCacheFailed,
			"error":     err,
		})
	}
}

func (p *Pipeline) notifyPrediction(ctx context.Context, rec models.PredictionRecord) {
	p.fanOut(rec.RequestID, func(sink Sink) error { return sink.OnPrediction(ctx, rec) })
}

func (p *Pipeline) notifyExplanation(ctx context.Context, rec models.ExplanationRecord) {
	p.fanOut(rec.RequestID, func(sink Sink) error { return sink.OnExplanation(ctx, rec) })
}

// fanOut runs every sink concurrently and waits for all of them. A failing
// sink does not cancel the others.
func (p *Pipeline) fanOut(requestID string, call func(Sink) error) {
	var g errgroup.Group
	for _, sink := range p.sinks {
		g.Go(func() error {
			if err := call(sink); err != nil {
				p.logSinkError(sink, requestID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pipeline) logSinkError(sink Sink, requestID string, err error) {
	p.logger.Warn("Decision sink failed", map[string]interface{}{
		"sink":      sink.Name(),
		"requestId": requestID,
		"errorCode": errors.CodeOf(err),
		"error":     err,
	})
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	code := errors.CodeOf(err)
	if code == "" {
		return "error"
	}
	return strings.ToLower(string(code))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RequestMeta identifies a request for the decision sinks.
type RequestMeta struct {
	RequestID string
	Source    string
}

type metaKey struct{}

// ContextWithMeta attaches request metadata to ctx.
func ContextWithMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext returns the request metadata on ctx, generating a request ID
// when none was attached.
func MetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(metaKey{}).(RequestMeta)
	if meta.RequestID == "" {
		meta.RequestID = uuid.NewString()
	}
	if meta.Source == "" {
		meta.Source = "unknown"
	}
	return meta
}
