package traceroot

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/traceroot-ai/traceroot-sdk-go/internal/logger"
	"github.com/traceroot-ai/traceroot-sdk-go/internal/telemetry"
)

type harness struct {
	spans *tracetest.InMemoryExporter
	logs  *telemetry.LogRecorder
}

func initForTest(t *testing.T, cfg *Config) *harness {
	t.Helper()

	prev := slog.Default()
	h := &harness{spans: tracetest.NewInMemoryExporter(), logs: &telemetry.LogRecorder{}}

	require.NoError(t, Init(context.Background(), cfg, WithSpanExporter(h.spans), WithLogExporter(h.logs)))
	t.Cleanup(func() {
		_ = Shutdown(context.Background())
		logger.SetBase(nil)
		slog.SetDefault(prev)
	})
	return h
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, ForceFlushTracer(ctx))
	require.NoError(t, ForceFlushLogger(ctx))
}

func (h *harness) span(t *testing.T, name string) tracetest.SpanStub {
	t.Helper()
	for _, s := range h.spans.GetSpans() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("span %q not exported", name)
	return tracetest.SpanStub{}
}

func spanAttr(s tracetest.SpanStub, key string) (string, bool) {
	for _, kv := range s.Attributes {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func localConfig() *Config {
	return &Config{ServiceName: "greeter", LocalMode: true}
}

func TestInitTwiceFails(t *testing.T) {
	initForTest(t, localConfig())

	err := Init(context.Background(), localConfig())
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInitAfterShutdown(t *testing.T) {
	ctx := context.Background()
	initForTest(t, localConfig())

	require.NoError(t, Shutdown(ctx))
	require.NoError(t, Init(ctx, localConfig(),
		WithSpanExporter(tracetest.NewInMemoryExporter()),
		WithLogExporter(&telemetry.LogRecorder{})))
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	err := Init(context.Background(), &Config{ServiceName: "greeter"})
	require.Error(t, err)

	var sdkErr *Error
	require.True(t, errors.As(err, &sdkErr))
	assert.Equal(t, "CONFIG_INVALID", sdkErr.Code())
}

func TestInitFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traceroot.config.toml")
	content := `service_name = "greeter"
environment = "development"
token = "secret"
enable_span_console_export = false
enable_log_console_export = false
local_mode = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	prev := slog.Default()
	t.Cleanup(func() {
		_ = Shutdown(context.Background())
		logger.SetBase(nil)
		slog.SetDefault(prev)
	})

	err := InitFromFile(context.Background(), path,
		WithSpanExporter(tracetest.NewInMemoryExporter()),
		WithLogExporter(&telemetry.LogRecorder{}))
	require.NoError(t, err)
}

func TestTraceFunctionWithMetadata(t *testing.T) {
	h := initForTest(t, localConfig())
	log := GetLogger()

	result, err := TraceFunction(context.Background(), "greet", map[string]any{"requestId": "123"},
		func(ctx context.Context) (string, error) {
			log.InfoContext(ctx, "Greeting inside traced function: world")
			return "Hello, world!", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", result)

	h.flush(t)

	span := h.span(t, "greet")
	meta, ok := spanAttr(span, "metadata")
	require.True(t, ok)
	assert.JSONEq(t, `{"requestId":"123"}`, meta)

	records := h.logs.Records()
	require.Len(t, records, 1)
	assert.Equal(t, span.SpanContext.TraceID(), records[0].TraceID())
}

func TestLoggerMetadataScope(t *testing.T) {
	h := initForTest(t, localConfig())
	log := NewLogger()

	guard := log.WithMetadata(map[string]string{"userId": "u1"})
	log.Info("inside")
	guard.Release()
	log.Info("outside")

	h.flush(t)

	records := h.logs.Records()
	require.Len(t, records, 2)

	v, ok := telemetry.RecordAttribute(records[0], "metadata")
	require.True(t, ok)
	assert.JSONEq(t, `{"userId":"u1"}`, v.AsString())

	_, ok = telemetry.RecordAttribute(records[1], "metadata")
	assert.False(t, ok)
}

func TestTraceDecorators(t *testing.T) {
	h := initForTest(t, localConfig())
	ctx := context.Background()

	greet := Trace1(func(ctx context.Context, name string) (string, error) {
		return "Hello, " + name + "!", nil
	}, WithSpanName("greet_decorated"), WithTraceParams())

	add := Trace2(func(_ context.Context, a, b int) (int, error) {
		return a + b, nil
	}, WithSpanName("add"))

	ping := Trace(func(context.Context) (string, error) { return "pong", nil },
		WithSpanMetadata(map[string]bool{"health": true}))

	got, err := greet(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", got)

	sum, err := add(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, sum)

	pong, err := ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", pong)

	h.flush(t)

	params, ok := spanAttr(h.span(t, "greet_decorated"), "params")
	require.True(t, ok)
	assert.Equal(t, `("world")`, params)

	_, ok = spanAttr(h.span(t, "add"), "params")
	assert.False(t, ok, "params are only recorded when requested")

	meta, ok := spanAttr(h.span(t, "unnamed"), "metadata")
	require.True(t, ok)
	assert.JSONEq(t, `{"health":true}`, meta)
}

func TestTraceDecoratorPropagatesError(t *testing.T) {
	h := initForTest(t, localConfig())
	boom := errors.New("boom")

	fail := Trace(func(context.Context) (int, error) { return 0, boom }, WithSpanName("fail"))
	_, err := fail(context.Background())
	assert.ErrorIs(t, err, boom)

	h.flush(t)
	assert.Equal(t, "boom", h.span(t, "fail").Status.Description)
}

func TestFlushAndShutdownWithoutInit(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ForceFlushTracer(ctx))
	assert.NoError(t, ForceFlushLogger(ctx))
	assert.NoError(t, ShutdownTracer(ctx))
	assert.NoError(t, ShutdownLogger(ctx))
	assert.NoError(t, Shutdown(ctx))
}

func TestNewZapLogger(t *testing.T) {
	h := initForTest(t, localConfig())

	NewZapLogger().Info("from zap")
	h.flush(t)

	records := h.logs.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "from zap", records[0].Body().AsString())
}
