// Package gatekeeper предоставляет маршруты для основного приложения.
package gatekeeper

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sidequest-campus/gatekeeper/internal/http/handlers/access/decision"
	"github.com/sidequest-campus/gatekeeper/internal/http/handlers/access/health"
	"github.com/sidequest-campus/gatekeeper/internal/http/middlewarectx"
	gateservice "github.com/sidequest-campus/gatekeeper/internal/services/gate"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, gate *gateservice.Gate) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger))
		r.Get("/access/decision", decision.New(logger, gate).ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
