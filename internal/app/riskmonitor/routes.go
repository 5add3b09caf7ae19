// Package riskmonitor собирает HTTP API оценки риска и gRPC-сервер проверки здоровья.
package riskmonitor

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/risk-monitor/internal/http/handlers/health"
	"github.com/magabrotheeeer/risk-monitor/internal/http/handlers/risk/alert"
	"github.com/magabrotheeeer/risk-monitor/internal/http/handlers/risk/analysis"
	"github.com/magabrotheeeer/risk-monitor/internal/http/handlers/risk/riskyusers"
	"github.com/magabrotheeeer/risk-monitor/internal/http/handlers/risk/stats"
	"github.com/magabrotheeeer/risk-monitor/internal/http/middlewarectx"
	"github.com/magabrotheeeer/risk-monitor/internal/metrics"
)

// RiskService объединяет операции чтения, которые нужны обработчикам.
type RiskService interface {
	riskyusers.Service
	analysis.Service
	stats.Service
}

// Services зависимости обработчиков. Pinger может быть nil.
type Services struct {
	Risk   RiskService
	Alerts alert.Service
	Pinger health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, limiter *rate.Limiter, svc Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New(logger, svc.Pinger).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))
			r.Get("/risky-users", riskyusers.New(logger, svc.Risk).ServeHTTP)
			r.Get("/users/{id}/risk-analysis", analysis.New(logger, svc.Risk).ServeHTTP)
			r.Get("/stats", stats.New(logger, svc.Risk).ServeHTTP)
			r.Post("/alerts/{id}", alert.New(logger, svc.Alerts).ServeHTTP)
		})
	})

	r.Handle("/metrics", metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

// NewRouter создает роутер со всеми маршрутами.
func NewRouter(logger *slog.Logger, limiter *rate.Limiter, svc Services) http.Handler {
	router := chi.NewRouter()
	RegisterRoutes(router, logger, limiter, svc)
	return router
}
