package traceroot

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/traceroot-ai/traceroot-sdk-go/internal/config"
	sdkerrors "github.com/traceroot-ai/traceroot-sdk-go/internal/errors"
	"github.com/traceroot-ai/traceroot-sdk-go/internal/logger"
	"github.com/traceroot-ai/traceroot-sdk-go/internal/telemetry"
)

// Config is the SDK configuration record.
type Config = config.Config

// Error is the structured error type returned by the SDK.
type Error = sdkerrors.AppError

// ErrAlreadyInitialized is returned by Init when the SDK is already running.
var ErrAlreadyInitialized = sdkerrors.NewStateError("traceroot is already initialized", "ALREADY_INITIALIZED",
	"Call Shutdown before initializing again.")

var (
	mu        sync.Mutex
	active    *telemetry.Provider
	activeCfg *Config
)

// Option configures Init.
type Option = telemetry.Option

// WithSpanExporter replaces the OTLP span exporter, typically in tests.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return telemetry.WithSpanExporter(exp)
}

// WithLogExporter replaces the OTLP log exporter, typically in tests.
func WithLogExporter(exp sdklog.Exporter) Option {
	return telemetry.WithLogExporter(exp)
}

// LoadConfig reads a JSON, YAML or TOML config file, applies TRACEROOT_*
// environment overrides and defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Init wires cfg into the OpenTelemetry tracer and logger providers,
// installs them as the globals and points the SDK logger at them.
func Init(ctx context.Context, cfg *Config, opts ...Option) error {
	mu.Lock()
	defer mu.Unlock()

	if active != nil {
		return ErrAlreadyInitialized
	}

	c := *cfg
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return err
	}

	p, err := telemetry.Init(ctx, &c, opts...)
	if err != nil {
		return err
	}

	sl := logger.New(logger.Options{
		Console: c.EnableLogConsoleExport,
		Level:   logger.ParseLevel(c.LogLevel),
	})
	logger.SetBase(sl)
	slog.SetDefault(sl)

	active = p
	activeCfg = &c
	return nil
}

// InitFromFile is LoadConfig followed by Init.
func InitFromFile(ctx context.Context, path string, opts ...Option) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	return Init(ctx, cfg, opts...)
}

func provider() *telemetry.Provider {
	mu.Lock()
	defer mu.Unlock()
	return active
}

// ForceFlushTracer exports all pending spans.
func ForceFlushTracer(ctx context.Context) error {
	return provider().ForceFlushTracer(ctx)
}

// ShutdownTracer flushes and stops span export.
func ShutdownTracer(ctx context.Context) error {
	return provider().ShutdownTracer(ctx)
}

// ForceFlushLogger exports all pending log records.
func ForceFlushLogger(ctx context.Context) error {
	return provider().ForceFlushLogger(ctx)
}

// ShutdownLogger flushes and stops log export.
func ShutdownLogger(ctx context.Context) error {
	return provider().ShutdownLogger(ctx)
}

// Shutdown flushes and stops both pipelines. Init may be called again afterwards.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	p := active
	active = nil
	activeCfg = nil
	mu.Unlock()

	if p == nil {
		return nil
	}
	return errors.Join(p.ForceFlush(ctx), p.Shutdown(ctx))
}

// Logger is the SDK logger with ambient metadata.
type Logger = logger.Logger

// MetadataGuard scopes metadata set with Logger.WithMetadata.
type MetadataGuard = logger.MetadataGuard

// GetLogger returns the process-wide logger.
func GetLogger() *Logger {
	return logger.Default()
}

// NewLogger returns a logger whose metadata is independent of GetLogger's.
func NewLogger() *Logger {
	return logger.NewLogger()
}

// NewZapLogger returns a zap.Logger exporting through the same OTel logger
// provider. It mirrors to stdout when log console export is enabled.
func NewZapLogger() *zap.Logger {
	mu.Lock()
	p, cfg := active, activeCfg
	mu.Unlock()

	opts := logger.ZapOptions{Level: zapcore.InfoLevel}
	if p != nil {
		opts.Provider = p.LoggerProvider()
	}
	if cfg != nil {
		if cfg.EnableLogConsoleExport {
			opts.Console = os.Stdout
		}
		opts.Level = logger.ZapLevel(cfg.LogLevel)
	}
	return logger.NewZap(opts)
}
