package logger

import (
	"io"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapOptions struct {
	// Provider receives the records. Defaults to the global logger provider.
	Provider log.LoggerProvider
	// Console, when set, also writes JSON lines at Level or above.
	Console io.Writer
	Level   zapcore.Level
}

// NewZap returns a zap.Logger bridged to OpenTelemetry logs, for callers
// already on zap.
func NewZap(opts ZapOptions) *zap.Logger {
	provider := opts.Provider
	if provider == nil {
		provider = global.GetLoggerProvider()
	}

	cores := []zapcore.Core{
		otelzap.NewCore(ScopeName, otelzap.WithLoggerProvider(provider)),
	}

	if opts.Console != nil {
		encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(opts.Console), opts.Level))
	}

	return zap.New(zapcore.NewTee(cores...))
}

// ZapLevel maps a config level name onto zap, accepting the same names as
// ParseLevel.
func ZapLevel(s string) zapcore.Level {
	switch ParseLevel(s) {
	case slog.LevelDebug:
		return zapcore.DebugLevel
	case slog.LevelWarn:
		return zapcore.WarnLevel
	case slog.LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
