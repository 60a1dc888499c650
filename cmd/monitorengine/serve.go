package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/uptimer/internal/httpapi"
)

const serverShutdownGrace = 30 * time.Second

func newServeCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the persistent scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), root)
		},
	}
}

func runServe(ctx context.Context, root *rootFlags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newAppContext(ctx, root.verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.scheduler.Start(ctx); err != nil {
		return err
	}

	srv := httpapi.NewServer(app.store, app.registry, app.executor, app.scheduler, app.metrics, app.log, app.cfg.SchedulerWorkers)
	router := httpapi.NewRouter(srv)

	httpServer := &http.Server{
		Addr:    app.cfg.Addr(),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		app.log.Info("listening on " + app.cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		app.log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		app.log.Error("http server shutdown error", err)
	}
	if err := app.scheduler.Stop(shutdownCtx); err != nil {
		app.log.Error("scheduler shutdown error", err)
	}

	return nil
}
