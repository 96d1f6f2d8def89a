package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestProvider is a Provider backed by in-memory span and log recorders.
type TestProvider struct {
	*Provider

	SpanRecorder *tracetest.SpanRecorder
	LogRecorder  *LogRecorder
}

// NewTestProvider builds synchronous in-memory providers and installs them
// as the globals.
func NewTestProvider() *TestProvider {
	spanRecorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))

	logRecorder := &LogRecorder{}
	lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(logRecorder)))

	install(tp, lp)

	return &TestProvider{
		Provider:     &Provider{tracerProvider: tp, loggerProvider: lp},
		SpanRecorder: spanRecorder,
		LogRecorder:  logRecorder,
	}
}

// Spans returns all ended spans.
func (t *TestProvider) Spans() []sdktrace.ReadOnlySpan {
	return t.SpanRecorder.Ended()
}

// SpanByName finds an ended span by name, or nil if not found.
func (t *TestProvider) SpanByName(name string) sdktrace.ReadOnlySpan {
	for _, span := range t.Spans() {
		if span.Name() == name {
			return span
		}
	}
	return nil
}

// SpanAttribute returns the value of key on span, and whether it was set.
func SpanAttribute(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

// LogRecorder is an sdklog.Exporter that keeps records in memory.
type LogRecorder struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (r *LogRecorder) Export(_ context.Context, records []sdklog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records = append(r.records, rec.Clone())
	}
	return nil
}

func (r *LogRecorder) Shutdown(context.Context) error { return nil }

func (r *LogRecorder) ForceFlush(context.Context) error { return nil }

// Records returns a copy of everything exported so far.
func (r *LogRecorder) Records() []sdklog.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sdklog.Record, len(r.records))
	copy(out, r.records)
	return out
}

// RecordAttribute returns the value of key on rec, and whether it was set.
func RecordAttribute(rec sdklog.Record, key string) (log.Value, bool) {
	var (
		val   log.Value
		found bool
	)
	rec.WalkAttributes(func(kv log.KeyValue) bool {
		if kv.Key == key {
			val, found = kv.Value, true
			return false
		}
		return true
	})
	return val, found
}
