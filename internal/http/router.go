package http

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbalijepalli/dreas/internal/metrics"
)

// RouterConfig collects the cross-cutting pieces of the API router.
// APIMiddlewares run only on the /v1 group, so health and readiness stay
// reachable without a token. RegisterRoutes attaches the handlers.
type RouterConfig struct {
	MetricsProvider  *metrics.Provider
	MetricsNamespace string
	CORSEnabled      bool
	CORSAllowOrigins string
	APIMiddlewares   []gin.HandlerFunc
	RegisterRoutes   func(v1 *gin.RouterGroup)
}

// BuildRouter assembles the gin engine and stores it on the server.
func (s *Server) BuildRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MetricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	if cfg.RegisterRoutes != nil {
		v1 := router.Group("/v1")
		v1.Use(cfg.APIMiddlewares...)
		cfg.RegisterRoutes(v1)
	}

	s.router = router
	return router
}
