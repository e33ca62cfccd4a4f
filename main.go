package main

import (
	"net/http"
	"os"
	"path/filepath"

	"snaplvd/internal/config"
	"snaplvd/internal/engine"
	"snaplvd/internal/history"
	"snaplvd/internal/lvm"
	"snaplvd/internal/mountinfo"
	"snaplvd/internal/observability"
	"snaplvd/internal/scheduler"
	"snaplvd/internal/server"
)

func main() {
	cfg := config.FromEnv()
	logger := server.Logger(cfg)

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.StateDir).Msg("failed to create state dir")
	}

	eng := engine.New(*logger,
		lvm.NewClient(*logger, cfg.CommandTimeout),
		mountinfo.NewCLI(*logger, cfg.CommandTimeout))

	store, err := history.Open(*logger, cfg.StateDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open history store")
	}
	defer store.Close()

	sched := scheduler.New(*logger, filepath.Join(cfg.StateDir, "schedules.yaml"), eng, store)
	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	r := server.NewRouter(cfg, server.Deps{
		Engine:    eng,
		Scheduler: sched,
		History:   store,
		Metrics:   observability.NewMetrics(),
	})

	logger.Info().Msgf("snaplvd listening on http://%s", cfg.Bind)
	if err := http.ListenAndServe(cfg.Bind, r); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
