package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/do/v2"

	configloader "github.com/halcyonlabs/meetscribe/external/config"
	"github.com/halcyonlabs/meetscribe/external/httpapi"
	provisionerimpl "github.com/halcyonlabs/meetscribe/external/provisioner"
	storeimpl "github.com/halcyonlabs/meetscribe/external/store"
	"github.com/halcyonlabs/meetscribe/internal/config"
	"github.com/halcyonlabs/meetscribe/internal/ingest"
	"github.com/halcyonlabs/meetscribe/internal/lifecycle"
	"github.com/halcyonlabs/meetscribe/internal/speaker"
	"github.com/halcyonlabs/meetscribe/internal/telemetry"
	"github.com/halcyonlabs/meetscribe/internal/transcript"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Local dev convenience; production relies on real environment variables.
	_ = godotenv.Load()

	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	telemetry.Init()

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching http server", "addr", cfg.ListenAddr)
	runServer(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	storeimpl.RegisterDI(injector)
	provisionerimpl.RegisterDI(injector)
	speaker.RegisterDI(injector)
	transcript.RegisterDI(injector)
	lifecycle.RegisterDI(injector)
	ingest.RegisterDI(injector)
	httpapi.RegisterDI(injector)

	return injector
}

func runServer(cfg *config.Config, injector do.Injector) {
	api, err := do.Invoke[*httpapi.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http api", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering http serve loop")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http serve failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
}
