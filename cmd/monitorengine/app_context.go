package main

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/uptimer/internal/config"
	"github.com/alexisbeaulieu97/uptimer/internal/engine"
	"github.com/alexisbeaulieu97/uptimer/internal/logger"
	"github.com/alexisbeaulieu97/uptimer/internal/metrics"
	"github.com/alexisbeaulieu97/uptimer/internal/registry"
	"github.com/alexisbeaulieu97/uptimer/internal/scheduler"
	"github.com/alexisbeaulieu97/uptimer/internal/stages"
	"github.com/alexisbeaulieu97/uptimer/internal/storage"
	"github.com/alexisbeaulieu97/uptimer/internal/storage/memory"
	"github.com/alexisbeaulieu97/uptimer/internal/storage/postgres"
)

// appContext bundles the long-lived services every subcommand needs,
// built once at startup (§4, §6).
type appContext struct {
	cfg       config.Config
	log       *logger.Logger
	registry  *registry.Registry
	store     storage.Store
	executor  *engine.Executor
	scheduler *scheduler.Scheduler
	metrics   *metrics.Collector

	closePostgres func()
}

func newAppContext(ctx context.Context, verbose bool) (*appContext, error) {
	cfg := config.Load()
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Options{Level: level, Component: "monitorengine"})

	reg := registry.New(log.With(map[string]any{"component": "registry"}))
	if err := stages.Register(reg); err != nil {
		return nil, fmt.Errorf("registering stage types: %w", err)
	}

	var store storage.Store
	var closePostgres func()
	if cfg.UsesPostgres() {
		pg, err := postgres.Open(ctx, cfg.StorageURI, cfg.ResultsRetention)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrating postgres schema: %w", err)
		}
		store = pg
		closePostgres = pg.Close
	} else {
		store = memory.New(cfg.ResultsRetention)
	}

	mtr := metrics.New()
	exec := engine.New(reg, store, log.With(map[string]any{"component": "engine"}), mtr)
	sched := scheduler.New(store, store, store, exec, log.With(map[string]any{"component": "scheduler"}),
		scheduler.WithConcurrency(cfg.SchedulerWorkers), scheduler.WithMetrics(mtr))

	return &appContext{
		cfg:           cfg,
		log:           log,
		registry:      reg,
		store:         store,
		executor:      exec,
		scheduler:     sched,
		metrics:       mtr,
		closePostgres: closePostgres,
	}, nil
}

func (a *appContext) Close() {
	if a.closePostgres != nil {
		a.closePostgres()
	}
}
