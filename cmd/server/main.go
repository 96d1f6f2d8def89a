package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	traceroot "github.com/traceroot-ai/traceroot-sdk-go"
	"github.com/traceroot-ai/traceroot-sdk-go/internal/api"
	"github.com/traceroot-ai/traceroot-sdk-go/internal/config"
)

func main() {
	ctx := context.Background()

	// TRACEROOT_CONFIG is optional; without it the config comes from TRACEROOT_* alone.
	cfg := config.MustLoad(os.Getenv("TRACEROOT_CONFIG"))

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	if err := traceroot.Init(ctx, cfg); err != nil {
		var appErr *traceroot.Error
		if !errors.As(err, &appErr) || !appErr.IsRetryable() {
			log.Fatalf("Failed to init telemetry: %v", err)
		}
		slog.Warn("Failed to init telemetry, serving without it", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := traceroot.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	srv := api.NewServer("http://localhost" + addr)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Router(cfg.ServiceName),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("Starting server", "addr", addr, "service", cfg.ServiceName)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
	}
}
