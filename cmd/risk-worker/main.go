// cmd/risk-worker/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"credit-risk-workers/internal/api"
	"credit-risk-workers/internal/common/aws"
	"credit-risk-workers/internal/common/camunda"
	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/common/database"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/risk/backend"
	"credit-risk-workers/internal/risk/pipeline"
	"credit-risk-workers/internal/risk/store"

	es "credit-risk-workers/internal/workers/credit-risk/explain-score"
	ps "credit-risk-workers/internal/workers/credit-risk/predict-score"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	log.Info("Starting credit risk service", map[string]interface{}{"environment": cfg.App.Environment})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("OpenTelemetry metrics disabled", map[string]interface{}{"error": err})
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends := backend.Load(ctx, cfg.Models, log)

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	opts := []pipeline.Option{pipeline.WithObservability(obs)}
	var sinks []pipeline.Sink

	// --- Score cache ---
	if cfg.Cache.Enabled {
		redisClient, err := database.NewRedis(cfg.Cache)
		if err == nil {
			err = redisClient.Ping(ctx)
		}
		if err != nil {
			log.Warn("Score cache disabled", map[string]interface{}{"error": err})
		} else {
			closers = append(closers, redisClient.Close)
			opts = append(opts, pipeline.WithCache(
				store.NewScoreCache(redisClient.Client, time.Duration(cfg.Cache.TTL)*time.Second),
			))
			log.Info("Score cache enabled", map[string]interface{}{
				"address": cfg.Cache.Address,
				"scope":   backends.ScoreScope(),
			})
		}
	}

	// --- Decision audit log ---
	if cfg.Audit.Enabled {
		pg, err := database.NewPostgres(cfg.Audit)
		if err == nil {
			err = pg.Ping(ctx)
		}
		var audit *store.AuditRepository
		if err == nil {
			closers = append(closers, pg.Close)
			audit = store.NewAuditRepository(pg.DB, cfg.Audit.Table)
			err = audit.EnsureSchema(ctx)
		}
		if err != nil {
			log.Warn("Decision audit disabled", map[string]interface{}{"error": err})
		} else {
			sinks = append(sinks, audit)
			log.Info("Decision audit enabled", map[string]interface{}{"table": cfg.Audit.Table})
		}
	}

	// --- Explanation archive ---
	if cfg.Archive.Enabled {
		esClient, err := database.NewElasticsearch(cfg.Archive)
		if err == nil {
			err = esClient.Ping(ctx)
		}
		if err != nil {
			log.Warn("Explanation archive disabled", map[string]interface{}{"error": err})
		} else {
			sinks = append(sinks, store.NewExplanationArchive(esClient.Client, cfg.Archive.Index))
			log.Info("Explanation archive enabled", map[string]interface{}{"index": cfg.Archive.Index})
		}
	}

	// --- High-risk alerts ---
	if cfg.Alerts.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Alerts.Region)
		if err != nil {
			log.Warn("High-risk alerts disabled", map[string]interface{}{"error": err})
		} else {
			sinks = append(sinks, store.NewAlertPublisher(snsClient, cfg.Alerts.TopicARN, cfg.Alerts.Threshold))
			log.Info("High-risk alerts enabled", map[string]interface{}{"threshold": cfg.Alerts.Threshold})
		}
	}

	if len(sinks) > 0 {
		opts = append(opts, pipeline.WithSinks(sinks...))
	}
	p := pipeline.New(backends, log, opts...)

	// --- HTTP API ---
	var server *api.Server
	if cfg.Server.Enabled {
		gin.SetMode(cfg.Server.Mode)
		router := api.NewRouter(p, backends.Status, log,
			api.WithCORS(cfg.Server.CORSOrigins),
			api.WithRateLimit(cfg.Server.RateLimitPerMin),
		)
		server = api.NewServer(cfg.Server, router, log)
		server.Start()
	}

	// --- Zeebe workers ---
	var jobWorkers []worker.JobWorker
	if cfg.Camunda.Enabled {
		zeebe, err := camunda.Connect(ctx, camunda.ClientConfigFrom(cfg.Camunda), log)
		if err != nil {
			log.Error("Zeebe workers disabled", map[string]interface{}{"error": err})
		} else {
			closers = append(closers, zeebe.Close)

			if wc := config.GetWorkerConfig(cfg, ps.TaskType); wc.Enabled {
				handler := ps.NewHandler(ps.LoadConfig(wc), p, log)
				jobWorkers = append(jobWorkers, camunda.StartWorker(zeebe.GetClient(), ps.TaskType, wc, handler, log))
			}
			if wc := config.GetWorkerConfig(cfg, es.TaskType); wc.Enabled {
				handler := es.NewHandler(es.LoadConfig(wc), p, log)
				jobWorkers = append(jobWorkers, camunda.StartWorker(zeebe.GetClient(), es.TaskType, wc, handler, log))
			}
		}
	}

	<-ctx.Done()
	log.Info("Shutdown signal received", nil)

	for _, w := range jobWorkers {
		w.Close()
		w.AwaitClose()
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP API shutdown failed", map[string]interface{}{"error": err})
		}
	}

	log.Info("Credit risk service stopped", nil)
}
