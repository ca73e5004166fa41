// internal/workers/credit-risk/predict-score/handler.go
package predictscore

import (
	"context"
	"encoding/json"
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
	TaskType = "credit-risk-predict"
)

// Predictor scores a raw applicant.
type Predictor interface {
	Predict(ctx context.Context, raw models.RawApplicant) (models.ScoreResult, error)
}

type backendReporter interface {
	Backends() *pipeline.Backends
}

type Handler struct {
	config       *Config
	predictor    Predictor
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, predictor Predictor, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		predictor:    predictor,
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

// Execute validates the applicant and scores it. A missing scoring model is
// reported before the applicant is validated.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if b, ok := h.predictor.(backendReporter); ok {
		if _, loaded := b.Backends().Scorer(); !loaded {
			return nil, errors.NewScoringUnavailableError()
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
	result, err := h.predictor.Predict(ctx, raw)
	if err != nil {
		return nil, err
	}

	return &Output{
		RequestID:       input.RequestID,
		RiskScore:       result.Score,
		ScoreCapability: string(result.Capability),
	}, nil
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
		"jobKey":    job.Key,
		"riskScore": output.RiskScore,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
