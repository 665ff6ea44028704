package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"styleaudit/internal/api/v1/handler"
	"styleaudit/internal/api/v1/middleware"
	"styleaudit/internal/metrics"
)

const (
	appName    = "styleaudit"
	apiVersion = "v1"
	basePath   = "/" + appName + "/api/" + apiVersion
)

type Options struct {
	Handler       *handler.Handler
	RateLimiter   *middleware.RateLimiter
	BasicAuthUser string
	BasicAuthPass string
}

func New(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logging, middleware.RecoverPanic, metrics.Middleware)
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	r.Route(basePath, func(r chi.Router) {
		r.Get("/health", handler.HealthCheckHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth(opts.BasicAuthUser, opts.BasicAuthPass))
			r.Get("/audit", opts.Handler.AuditPageHandler)
			r.Get("/runs", opts.Handler.ListRunsHandler)
			r.Get("/runs/{runID}", opts.Handler.GetRunHandler)
		})
	})

	return r
}

// NewMetricsRouter serves Prometheus metrics on their own listener.
func NewMetricsRouter(m *metrics.Audit) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())
	return r
}
