package logger

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope of every record the SDK forwards.
const ScopeName = "github.com/traceroot-ai/traceroot-sdk-go"

type Options struct {
	// Console enables the JSON console sink.
	Console bool
	// Writer receives console output. Defaults to os.Stdout.
	Writer io.Writer
	Level  slog.Leveler
}

// New creates a slog.Logger that forwards every record to the global OTel
// logger provider and, when enabled, to a JSON console sink.
func New(opts Options) *slog.Logger {
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	h := &otelHandler{level: level}
	if opts.Console {
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}
		h.console = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(h)
}

var base atomic.Pointer[slog.Logger]

// SetBase replaces the slog.Logger that Logger facades write through.
func SetBase(l *slog.Logger) {
	base.Store(l)
}

// Base returns the logger installed by SetBase, or slog.Default.
func Base() *slog.Logger {
	if l := base.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTraceContext returns a slog.Attr containing trace_id and span_id if available in the context.
func WithTraceContext(ctx context.Context) slog.Attr {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return slog.Attr{}
	}
	sc := span.SpanContext()
	return slog.Group("trace",
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}

type otelHandler struct {
	console slog.Handler
	level   slog.Leveler
	attrs   []log.KeyValue
	group   string
}

func (h *otelHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *otelHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.console != nil {
		cr := r
		if attr := WithTraceContext(ctx); !attr.Equal(slog.Attr{}) {
			cr = r.Clone()
			cr.AddAttrs(attr)
		}
		if err := h.console.Handle(ctx, cr); err != nil {
			return err
		}
	}

	var otelRecord log.Record
	otelRecord.SetTimestamp(r.Time)
	otelRecord.SetBody(log.StringValue(r.Message))
	otelRecord.SetSeverity(toSeverity(r.Level))
	otelRecord.SetSeverityText(r.Level.String())
	otelRecord.AddAttributes(h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		otelRecord.AddAttributes(h.keyValue(a))
		return true
	})

	global.GetLoggerProvider().Logger(ScopeName).Emit(ctx, otelRecord)
	return nil
}

func (h *otelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	if h.console != nil {
		next.console = h.console.WithAttrs(attrs)
	}
	for _, a := range attrs {
		next.attrs = append(next.attrs, h.keyValue(a))
	}
	return next
}

func (h *otelHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	if h.console != nil {
		next.console = h.console.WithGroup(name)
	}
	next.group = h.prefixed(name)
	return next
}

func (h *otelHandler) clone() *otelHandler {
	attrs := make([]log.KeyValue, len(h.attrs))
	copy(attrs, h.attrs)
	return &otelHandler{console: h.console, level: h.level, attrs: attrs, group: h.group}
}

func (h *otelHandler) prefixed(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *otelHandler) keyValue(a slog.Attr) log.KeyValue {
	return log.KeyValue{Key: h.prefixed(a.Key), Value: toOTelValue(a.Value)}
}

func toSeverity(l slog.Level) log.Severity {
	switch {
	case l >= slog.LevelError:
		return log.SeverityError
	case l >= slog.LevelWarn:
		return log.SeverityWarn
	case l >= slog.LevelInfo:
		return log.SeverityInfo
	default:
		return log.SeverityDebug
	}
}

func toOTelValue(v slog.Value) log.Value {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return log.StringValue(v.String())
	case slog.KindInt64:
		return log.Int64Value(v.Int64())
	case slog.KindUint64:
		u := v.Uint64()
		if u > math.MaxInt64 {
			return log.StringValue(strconv.FormatUint(u, 10))
		}
		return log.Int64Value(int64(u))
	case slog.KindBool:
		return log.BoolValue(v.Bool())
	case slog.KindFloat64:
		return log.Float64Value(v.Float64())
	case slog.KindGroup:
		group := v.Group()
		kvs := make([]log.KeyValue, 0, len(group))
		for _, a := range group {
			kvs = append(kvs, log.KeyValue{Key: a.Key, Value: toOTelValue(a.Value)})
		}
		return log.MapValue(kvs...)
	default:
		return log.StringValue(v.String())
	}
}
