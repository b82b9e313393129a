package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/api"
	"github.com/UnknownOlympus/pharmacy-locator/internal/app"
	"github.com/UnknownOlympus/pharmacy-locator/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

func main() {
	// SIGINT/SIGTERM cancel ctx, which stops the server and any running lookup.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Runtime collectors share the registry with the lookup metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Assemble locator, geocoder, registry client and the optional journal.
	application, err := app.New(ctx, cfg, logger, reg)
	if err != nil {
		log.Fatalf("Failed to assemble lookup pipeline: %v", err)
	}
	defer application.Close()

	handlerCfg := api.Config{
		Logger:   logger,
		Lookup:   application.Service,
		Gatherer: reg,
	}
	if application.Journal != nil {
		handlerCfg.Journal = application.Journal
		handlerCfg.Health = application.Journal
	}

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	server := startServer(ctx, logger, api.NewHandler(handlerCfg).Router(), cfg.Port)

	// Initial lookup; the API reports a loading snapshot until it finishes.
	go func() {
		if errInit := application.Service.Initialize(ctx); errInit != nil {
			logger.WarnContext(ctx, "Initial lookup failed", "error", errInit)
		}
	}()

	<-ctx.Done()

	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	const shutdownTimeout = 10 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "Server shutdown failed", "error", err)
	}

	logger.InfoContext(shutdownCtx, "Application stopped gracefully.")
}

// startServer starts an HTTP server that serves the lookup API together with
// the health check and metrics endpoints.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - handler: The router with every endpoint mounted.
// - port: The port number on which the server will listen.
func startServer(ctx context.Context, log *slog.Logger, handler http.Handler, port int) *http.Server {
	readTimeout := 5
	writeTimeout := 60
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	go func() {
		log.InfoContext(ctx, "Starting API server", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "API server failed", "error", err)
		}
	}()

	return server
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				AddSource:   false,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				AddSource:   false,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
