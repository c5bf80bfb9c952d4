package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kdduha/image-narrator/internal/config"
	"github.com/kdduha/image-narrator/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/kdduha/image-narrator/docs"
)

func NewRouter(cfg config.ServerConfig, a *AnalyzeHandler, au *AudioHandler, model modelStatus) http.Handler {
	r := chi.NewRouter()
	r.Use([]func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}),
		metrics.Middleware,
	}...)

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Throttle(cfg.ThrottleLimit),
			middleware.Timeout(cfg.Timeout),
		)
		r.Post("/analyze-image", a.Analyze)
		r.Get("/audio/{filename}", au.Get)
	})

	r.Get("/healthz", Health(model))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())
	return r
}
