package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/agbanzy/pollingunits/internal/config"
	"github.com/agbanzy/pollingunits/internal/core"
	"github.com/agbanzy/pollingunits/internal/logging"
	"github.com/agbanzy/pollingunits/internal/metrics"
	"github.com/agbanzy/pollingunits/internal/store"
	"github.com/agbanzy/pollingunits/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	backend, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer backend.Close()
	slog.Info("store opened", "backend", cfg.Store.Backend)

	if cfg.Store.AutoMigrate {
		if err := store.Prepare(ctx, backend); err != nil {
			slog.Error("failed to prepare store", "error", err)
			os.Exit(1)
		}
	}

	recorder := metrics.New()
	service := core.NewService(backend,
		core.ServiceConfig{MaxWait: cfg.Import.MaxWaitTime},
		core.MultiObserver(logging.ImportObserver(logger), recorder),
		core.WithChunkSize(cfg.Import.ChunkSize),
		core.WithBounds(cfg.Import.Bounds()),
	)

	server := web.NewServer(cfg, service, backend, recorder.Handler())

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// A run keeps writing after the listener closes; let it finish.
		if status := service.GateStatus(); status.Busy {
			slog.Info("waiting for import to complete", "run_id", status.RunID)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("import did not complete in time", "run_id", status.RunID, "error", err)
			} else {
				slog.Info("import completed")
			}
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
}
