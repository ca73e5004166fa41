// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	RiskPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_predictions_total",
			Help: "Predict calls by scoring capability and outcome",
		},
		[]string{"capability", "outcome"},
	)

	RiskExplanations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_explanations_total",
			Help: "Explain calls by raw explanation shape and outcome",
		},
		[]string{"shape", "outcome"},
	)

	RiskScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "risk_score",
			Help:    "Distribution of returned risk scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	ScoreCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_score_cache_lookups_total",
			Help: "Score cache lookups by result (hit, miss, stale, error)",
		},
		[]string{"result"},
	)
)
