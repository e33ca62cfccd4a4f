package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"snaplvd/internal/config"
	"snaplvd/internal/engine"
	"snaplvd/internal/history"
	"snaplvd/internal/observability"
	"snaplvd/internal/scheduler"
	"snaplvd/internal/snapset"
)

func Logger(cfg config.Config) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.Logger.Level(cfg.LogLevel).With().Timestamp().Logger()
	return &logger
}

// Runner is the operation surface the HTTP handlers call into.
type Runner interface {
	Run(ctx context.Context, action string, set snapset.Set, flags engine.Flags) engine.Result
}

// Deps carries the wired daemon components into the router.
type Deps struct {
	Engine    Runner
	Scheduler *scheduler.Scheduler
	History   *history.Store
	Metrics   *observability.Metrics
}

func NewRouter(cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(zerologMiddleware(Logger(cfg)))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{cfg.CORSOrigin},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	r.Use(c.Handler)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true, "version": Version})
	})

	snapsets := NewSnapsetsHandler(cfg, deps)
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/system", NewSystemHandler().Routes())
		r.Mount("/snapsets", snapsets.Routes())
		r.Get("/volumes", snapsets.ListVolumes)
		if deps.Scheduler != nil {
			r.Mount("/schedules", NewSchedulesHandler(deps.Scheduler).Routes())
		}
		if deps.History != nil {
			r.Mount("/history", NewHistoryHandler(deps.History).Routes())
		}
	})

	if cfg.MetricsEnabled && deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}
