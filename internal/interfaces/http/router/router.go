// Package router assembles the gin engine and mounts all API routes.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/athlo/dashboard/internal/infrastructure/logger"
	"github.com/athlo/dashboard/internal/interfaces/http/handler"
	"github.com/athlo/dashboard/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds router assembly settings
type Config struct {
	Env            string
	TrustedProxies []string
	CORS           middleware.CORSConfig
}

// New builds a gin engine with the standard middleware chain, the health
// endpoint, and every registrar mounted under /api/v1.
func New(cfg Config, log *zap.Logger, registrars ...RouteRegistrar) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	_ = engine.SetTrustedProxies(cfg.TrustedProxies)

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(cfg.CORS))

	system := handler.NewSystemHandler()
	engine.GET("/healthz", system.Healthz)

	api := engine.Group("/api/v1")
	for _, registrar := range registrars {
		registrar.RegisterRoutes(api)
	}

	return engine
}
