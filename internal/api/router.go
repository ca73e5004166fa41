// Package api exposes the risk pipeline over HTTP.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/validation"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk/pipeline"
)

const requestIDHeader = "X-Request-ID"

// RiskService is the pipeline as seen by the HTTP layer.
type RiskService interface {
	Predict(ctx context.Context, raw models.RawApplicant) (models.ScoreResult, error)
	Explain(ctx context.Context, raw models.RawApplicant) (models.AttributionResult, error)
}

// StatusFunc reports which backends are loaded.
type StatusFunc func() map[string]bool

type handlers struct {
	svc    RiskService
	status StatusFunc
	logger logger.Logger
}

// NewRouter builds the gin engine serving predict, explain, health and metrics.
func NewRouter(svc RiskService, status StatusFunc, log logger.Logger, opts ...Option) *gin.Engine {
	h := &handlers{
		svc:    svc,
		status: status,
		logger: log.WithFields(map[string]interface{}{"component": "http"}),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(h.logger))
	for _, opt := range opts {
		opt(r, h)
	}

	r.POST("/predict", h.predict)
	r.POST("/explain", h.explain)
	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/schema/applicant", h.applicantSchema)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (h *handlers) predict(c *gin.Context) {
	if !h.available(c, "model_loaded", errors.NewScoringUnavailableError) {
		return
	}
	raw, ok := h.decode(c)
	if !ok {
		return
	}

	result, err := h.svc.Predict(h.requestContext(c), raw)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) explain(c *gin.Context) {
	if !h.available(c, "model_loaded", errors.NewScoringUnavailableError) ||
		!h.available(c, "explainer_loaded", errors.NewExplanationUnavailableError) {
		return
	}
	raw, ok := h.decode(c)
	if !ok {
		return
	}

	result, err := h.svc.Explain(h.requestContext(c), raw)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	for k, v := range h.status() {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// ready is 200 only once a scoring model is loaded.
func (h *handlers) ready(c *gin.Context) {
	status := h.status()
	if !status["model_loaded"] {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "backends": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "backends": status})
}

func (h *handlers) applicantSchema(c *gin.Context) {
	schema, err := validation.ApplicantSchemaJSON()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/schema+json", schema)
}

// available rejects the request before the body is read when a backend is
// missing, so an absent model wins over a malformed applicant.
func (h *handlers) available(c *gin.Context, key string, unavailable func() *errors.StandardError) bool {
	if h.status()[key] {
		return true
	}
	h.writeError(c, unavailable())
	return false
}

// maxApplicantBytes caps a request body. A full applicant record is well
// under 1 KiB.
const maxApplicantBytes = 16 << 10

func (h *handlers) decode(c *gin.Context) (models.RawApplicant, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxApplicantBytes))
	if err != nil {
		h.writeError(c, errors.NewParseError(err))
		return nil, false
	}
	raw, err := validation.DecodeApplicant(body)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return raw, true
}

func (h *handlers) requestContext(c *gin.Context) context.Context {
	return pipeline.ContextWithMeta(c.Request.Context(), pipeline.RequestMeta{
		RequestID: c.GetString("requestId"),
		Source:    "api",
	})
}

func (h *handlers) writeError(c *gin.Context, err error) {
	stdErr := errors.AsStandardError(err)
	status := errors.HTTPStatus(stdErr.Code)
	_ = c.Error(err)

	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    stdErr.Code,
			"message": stdErr.Message,
			"details": stdErr.Details,
		},
	})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestId", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  c.GetString("requestId"),
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.Last().Err
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request failed", fields)
		case c.Writer.Status() >= 400:
			log.Warn("request rejected", fields)
		default:
			log.Debug("request served", fields)
		}
	}
}
