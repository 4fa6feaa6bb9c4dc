// Package http wires the gin route tree and HTTP server of the alphabet
// query service.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolSig-Alphabet/internal/interfaces/http/handlers"
	"github.com/turtacn/MolSig-Alphabet/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.
type RouterConfig struct {
	Mode string // gin mode: "debug" | "release" | "test"

	AlphabetHandler  *handlers.AlphabetHandler
	SignatureHandler *handlers.SignatureHandler
	HealthHandler    *handlers.HealthHandler

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the complete route tree: public probes, the metrics
// endpoint, and the versioned API group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.Logger != nil {
		r.Use(middleware.Logging(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	{
		if cfg.AlphabetHandler != nil {
			api.GET("/alphabet", cfg.AlphabetHandler.Info)
			api.GET("/alphabet/bits/:bit", cfg.AlphabetHandler.SignaturesForBit)
		}
		if cfg.SignatureHandler != nil {
			api.POST("/signatures", cfg.SignatureHandler.Build)
			api.POST("/signatures/vector", cfg.SignatureHandler.OccurrenceVector)
		}
	}

	return r
}
