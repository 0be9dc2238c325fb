package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/godlockin/moontv-sync/internal/orchestrator"
	"github.com/godlockin/moontv-sync/internal/source"
	"github.com/godlockin/moontv-sync/internal/store"
)

// SyncCoordinator triggers runs and reports coordinator state.
type SyncCoordinator interface {
	Trigger(ctx context.Context) (source.OrchestrationResult, error)
	Status() orchestrator.Status
}

// SourceStore is the admin source configuration persistence used by the API.
type SourceStore interface {
	ListSources(ctx context.Context) ([]store.SourceEntry, error)
	MergeSources(ctx context.Context, sources []source.StandardizedSource) (int, error)
}

// ServerOption configures the API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares []func(http.Handler) http.Handler
	gatherer    prometheus.Gatherer
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsGatherer mounts a Prometheus scrape endpoint at /metrics
func WithMetricsGatherer(g prometheus.Gatherer) ServerOption {
	return func(cfg *serverConfig) {
		cfg.gatherer = g
	}
}

// NewServer creates and configures the HTTP router. The store may be nil, in
// which case sync results are not merged into the admin configuration and
// the sources listing endpoint is absent.
func NewServer(coordinator SyncCoordinator, sourceStore SourceStore, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	routes := newRoutes(coordinator, sourceStore)

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/health", routes.health)
	r.Get("/version", routes.version)

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/sync", routes.triggerSync)
		r.Get("/sync", routes.syncStatus)
		if sourceStore != nil {
			r.Get("/sources", routes.listSources)
		}
	})

	if cfg.gatherer != nil {
		r.Get("/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	}

	return r
}

// RequestLogger logs HTTP requests through the router's slog handler.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		requestLog(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
