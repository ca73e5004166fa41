package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/common/logger"
)

// Server runs the HTTP API.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

func NewServer(cfg config.ServerConfig, handler *gin.Engine, log logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:         cfg.Address,
			Handler:      handler,
			ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.WriteTimeout),
		},
		logger: log,
	}
}

// Start serves in the background. A listen failure is logged.
func (s *Server) Start() {
	go func() {
		s.logger.Info("HTTP API listening", map[string]interface{}{"address": s.http.Addr})
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP API stopped", map[string]interface{}{"error": err})
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
