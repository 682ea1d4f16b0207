package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/maxz000/zwift-watcher/internal/config"
	"github.com/maxz000/zwift-watcher/internal/httpapi"
	"github.com/maxz000/zwift-watcher/internal/ingest"
	"github.com/maxz000/zwift-watcher/internal/logging"
	"github.com/maxz000/zwift-watcher/internal/metrics"
	"github.com/maxz000/zwift-watcher/internal/worldstate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // nolint:errcheck

	var metricsRegistry *metrics.Registry
	if cfg.Metrics.Enabled {
		metricsRegistry = metrics.NewRegistry()
	}
	locked := worldstate.NewLocked(worldstate.New(
		logging.Component(logger, "worldstate"),
		metricsRegistry,
		worldstate.WithHistoryCapacity(cfg.History.Capacity),
		worldstate.WithHistoryInterpolationMaxTimeDiff(cfg.History.InterpolationMaxTimeDiff.Milliseconds()),
		worldstate.WithGroupCapacity(cfg.History.GroupCapacity),
		worldstate.WithMaxWorldTimeDiff(cfg.History.MaxWorldTimeDiff.Milliseconds()),
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := newSource(ctx, cfg, metricsRegistry)
	if err != nil {
		logger.Fatal("failed to start sample source", zap.Error(err))
	}

	ingestLogger := logging.Component(logger, "ingest")
	loop := ingest.NewLoop(source, locked, ingestLogger, metricsRegistry, cfg.Ingest.EvictionCadence)
	ingestErrCh := make(chan error, 1)
	go func() {
		ingestErrCh <- loop.Run(ctx)
	}()

	api := httpapi.NewServer(locked, logging.Component(logger, "httpapi"), metricsRegistry)

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- runHTTPServer(ctx, cfg, api, logging.Component(logger, "http"))
	}()

	diagErrCh := make(chan error, 1)
	if cfg.Metrics.Enabled {
		go func() {
			diagErrCh <- runDiagnosticsServer(ctx, cfg, api, logging.Component(logger, "diagnostics"))
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-ingestErrCh:
		if err != nil {
			logger.Error("ingestion loop error", zap.Error(err))
		}
		stop()
	case err := <-httpErrCh:
		if err != nil {
			logger.Error("http server error", zap.Error(err))
		}
		stop()
	case err := <-diagErrCh:
		if err != nil {
			logger.Error("diagnostics server error", zap.Error(err))
		}
		stop()
	}

	logger.Info("zwift-watcher stopped")
}

func newSource(ctx context.Context, cfg config.Config, metricsRegistry *metrics.Registry) (ingest.Source, error) {
	switch cfg.Ingest.Source {
	case "ws":
		return ingest.DialWSFeed(ctx, cfg.Ingest.FeedURL, cfg.Ingest.FeedDialTimeout, metricsRegistry)
	default:
		return ingest.NewFileReplay(cfg.Ingest.ReplayFile, cfg.Ingest.ReplayPace)
	}
}

func runHTTPServer(ctx context.Context, cfg config.Config, api *httpapi.Server, logger *zap.Logger) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.Mux(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown error", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// runDiagnosticsServer serves /health and the Prometheus /metrics endpoint
// on their own listener, separate from the world-state JSON surface, so an
// operator can restrict access to one without the other.
func runDiagnosticsServer(ctx context.Context, cfg config.Config, api *httpapi.Server, logger *zap.Logger) error {
	httpServer := &http.Server{
		Addr:         cfg.Metrics.ListenAddr,
		Handler:      api.DiagnosticsMux(cfg.Metrics.Endpoint),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("diagnostics server starting", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("diagnostics server shutdown error", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
