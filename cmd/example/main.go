package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	traceroot "github.com/traceroot-ai/traceroot-sdk-go"
)

var greetDecorated = traceroot.Trace1(func(ctx context.Context, name string) (string, error) {
	traceroot.GetLogger().InfoContext(ctx, "Greeting inside decorated fn: "+name)
	return "Hello!", nil
}, traceroot.WithSpanName("greet"), traceroot.WithTraceParams())

func main() {
	ctx := context.Background()

	configPath := os.Getenv("TRACEROOT_CONFIG")
	if configPath == "" {
		configPath = "traceroot.config.toml"
	}

	if err := traceroot.InitFromFile(ctx, configPath); err != nil {
		log.Fatalf("Failed to init telemetry: %v", err)
	}

	logger := traceroot.GetLogger()

	result, err := traceroot.TraceFunction(ctx, "greet", map[string]any{"requestId": "123"},
		func(ctx context.Context) (string, error) {
			logger.InfoContext(ctx, "Greeting inside traced function: world")
			return "Hello, world!", nil
		})
	if err != nil {
		log.Fatalf("greet failed: %v", err)
	}
	logger.Info("Greeting result: " + result)

	if _, err := greetDecorated(ctx, "world"); err != nil {
		log.Fatalf("greet failed: %v", err)
	}

	traceroot.NewZapLogger().Info("Done")

	if err := traceroot.ForceFlushTracer(ctx); err != nil {
		slog.Warn("Trace flush failed", "error", err)
	}
	if err := traceroot.ShutdownTracer(ctx); err != nil {
		slog.Warn("Trace shutdown failed", "error", err)
	}
	if err := traceroot.ForceFlushLogger(ctx); err != nil {
		slog.Warn("Log flush failed", "error", err)
	}
	if err := traceroot.ShutdownLogger(ctx); err != nil {
		slog.Warn("Log shutdown failed", "error", err)
	}
}
