// internal/workers/credit-risk/explain-score/handler.go
package explainscore

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/common/validation"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk/pipeline"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "credit-risk-explain"
)

// Explainer explains a raw applicant's score.
type Explainer interface {
	Explain(ctx context.Context, raw models.RawApplicant) (models.AttributionResult, error)
}

type backendReporter interface {
	Backends() *pipeline.Backends
}

type Handler struct {
	config       *Config
	explainer    Explainer
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, explainer Explainer, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		explainer:    explainer,
		logger:       scoped,
		errorHandler: errors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewParseError(err))
		return
	}
	if input.RequestID == "" {
		input.RequestID = strconv.FormatInt(job.Key, 10)
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute validates the applicant and explains its score. Missing backends
// are reported before the applicant is validated.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if b, ok := h.explainer.(backendReporter); ok {
		if _, loaded := b.Backends().Scorer(); !loaded {
			return nil, errors.NewScoringUnavailableError()
		}
		if _, loaded := b.Backends().Explainer(); !loaded {
			return nil, errors.NewExplanationUnavailableError()
		}
	}

	raw, err := validation.DecodeApplicant(input.Applicant)
	if err != nil {
		return nil, err
	}

	ctx = pipeline.ContextWithMeta(ctx, pipeline.RequestMeta{
		RequestID: input.RequestID,
		Source:    "zeebe:" + TaskType,
	})
	result, err := h.explainer.Explain(ctx, raw)
	if err != nil {
		return nil, err
	}

	return &Output{
		RequestID:       input.RequestID,
		RiskExplanation: result,
		TopFeature:      topFeature(result),
	}, nil
}

// topFeature names the feature with the largest absolute attribution.
func topFeature(result models.AttributionResult) string {
	best := -1
	for i, v := range result.Values {
		if best < 0 || math.Abs(v) > math.Abs(result.Values[best]) {
			best = i
		}
	}
	if best < 0 || best >= len(result.FeatureNames) {
		return ""
	}
	return result.FeatureNames[best]
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"topFeature": output.TopFeature,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
