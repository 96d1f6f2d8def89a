package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/traceroot-ai/traceroot-sdk-go/internal/config"
	sdkerrors "github.com/traceroot-ai/traceroot-sdk-go/internal/errors"
)

const (
	AttrGithubOwner  = attribute.Key("github.owner")
	AttrGithubRepo   = attribute.Key("github.repo")
	AttrGithubCommit = attribute.Key("github.commit")
)

// Provider owns the tracer and logger providers built by Init.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
	resource       *resource.Resource
}

// Option configures Init.
type Option func(*options)

type options struct {
	spanExporter  sdktrace.SpanExporter
	logExporter   sdklog.Exporter
	consoleWriter io.Writer
}

// WithSpanExporter replaces the OTLP span exporter (for testing).
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) {
		o.spanExporter = exp
	}
}

// WithLogExporter replaces the OTLP log exporter (for testing).
func WithLogExporter(exp sdklog.Exporter) Option {
	return func(o *options) {
		o.logExporter = exp
	}
}

// WithConsoleWriter redirects the console span sink. Defaults to os.Stdout.
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) {
		o.consoleWriter = w
	}
}

// Init builds the exporters described by cfg and installs the resulting
// providers and propagators as the OpenTelemetry globals.
func Init(ctx context.Context, cfg *config.Config, opts ...Option) (*Provider, error) {
	o := options{consoleWriter: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, sdkerrors.NewResourceError("failed to build resource", "RESOURCE_INIT", err)
	}

	traceEP := parseEndpoint(cfg.TraceEndpoint(), "/v1/traces")
	logEP := parseEndpoint(cfg.LogEndpoint(), "/v1/logs")
	headers := cfg.AuthHeaders()

	spanExporter := o.spanExporter
	if spanExporter == nil {
		spanExporter, err = newSpanExporter(ctx, cfg, traceEP, headers)
		if err != nil {
			return nil, sdkerrors.NewExporterError("failed to create trace exporter", "TRACE_EXPORTER", err)
		}
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.Sampling())),
	}

	// Exporters built so far; closed if a later one fails.
	built := []sdktrace.SpanExporter{spanExporter}

	if cfg.EnableSpanConsoleExport {
		consoleExporter, err := stdouttrace.New(
			stdouttrace.WithWriter(o.consoleWriter),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			shutdownSpanExporters(ctx, built)
			return nil, sdkerrors.NewExporterError("failed to create console span exporter", "CONSOLE_EXPORTER", err)
		}
		built = append(built, consoleExporter)
		tpOpts = append(tpOpts, sdktrace.WithSyncer(consoleExporter))
	}

	logExporter := o.logExporter
	if logExporter == nil && (cfg.OTLPProtocol != config.ProtocolGRPC || cfg.LogSinkEndpoint != "") {
		logExporter, err = newLogExporter(ctx, logEP, headers)
		if err != nil {
			shutdownSpanExporters(ctx, built)
			return nil, sdkerrors.NewExporterError("failed to create log exporter", "LOG_EXPORTER", err)
		}
	}

	lpOpts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	if logExporter != nil {
		lpOpts = append(lpOpts, sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	lp := sdklog.NewLoggerProvider(lpOpts...)

	install(tp, lp)

	slog.Debug("Telemetry initialized",
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
		"protocol", cfg.OTLPProtocol,
		"trace_endpoint", traceEP.host+traceEP.path,
		"log_endpoint", logEP.host+logEP.path,
		"log_export", logExporter != nil,
		"span_console", cfg.EnableSpanConsoleExport,
	)

	return &Provider{tracerProvider: tp, loggerProvider: lp, resource: res}, nil
}

func install(tp trace.TracerProvider, lp log.LoggerProvider) {
	otel.SetTracerProvider(tp)
	global.SetLoggerProvider(lp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		semconv.ServiceInstanceIDKey.String(uuid.NewString()),
	}
	if cfg.GithubOwner != "" {
		attrs = append(attrs, AttrGithubOwner.String(cfg.GithubOwner))
	}
	if cfg.GithubRepoName != "" {
		attrs = append(attrs, AttrGithubRepo.String(cfg.GithubRepoName))
	}
	if cfg.GithubCommitHash != "" {
		attrs = append(attrs, AttrGithubCommit.String(cfg.GithubCommitHash))
	}

	return resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
}

func newSpanExporter(ctx context.Context, cfg *config.Config, ep endpoint, headers map[string]string) (sdktrace.SpanExporter, error) {
	switch cfg.OTLPProtocol {
	case config.ProtocolGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(ep.host)}
		if len(headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(headers))
		}
		if ep.insecure || cfg.LocalMode {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(ep.host),
			otlptracehttp.WithURLPath(ep.path),
		}
		if len(headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(headers))
		}
		if ep.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
}

func shutdownSpanExporters(ctx context.Context, exporters []sdktrace.SpanExporter) {
	for _, exp := range exporters {
		if err := exp.Shutdown(ctx); err != nil {
			slog.Debug("Span exporter shutdown failed", "error", err)
		}
	}
}

var newLogExporter = func(ctx context.Context, ep endpoint, headers map[string]string) (sdklog.Exporter, error) {
	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(ep.host),
		otlploghttp.WithURLPath(ep.path),
	}
	if len(headers) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(headers))
	}
	if ep.insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	return otlploghttp.New(ctx, opts...)
}

func newSampler(rate float64) sdktrace.Sampler {
	var sampler sdktrace.Sampler
	switch {
	case rate >= 1:
		sampler = sdktrace.AlwaysSample()
	case rate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(rate)
	}
	return sdktrace.ParentBased(sampler)
}

// Tracer returns a tracer from the provider.
func (p *Provider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p == nil || p.tracerProvider == nil {
		return otel.Tracer(name, opts...)
	}
	return p.tracerProvider.Tracer(name, opts...)
}

// LoggerProvider returns the OTel logger provider backing log export.
func (p *Provider) LoggerProvider() log.LoggerProvider {
	if p == nil || p.loggerProvider == nil {
		return global.GetLoggerProvider()
	}
	return p.loggerProvider
}

// Resource returns the resource attached to every span and log record.
func (p *Provider) Resource() *resource.Resource {
	if p == nil {
		return nil
	}
	return p.resource
}

func (p *Provider) ForceFlushTracer(ctx context.Context) error {
	if p == nil || p.tracerProvider == nil {
		return nil
	}
	if err := p.tracerProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("trace flush: %w", err)
	}
	return nil
}

func (p *Provider) ShutdownTracer(ctx context.Context) error {
	if p == nil || p.tracerProvider == nil {
		return nil
	}
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("trace provider shutdown: %w", err)
	}
	return nil
}

func (p *Provider) ForceFlushLogger(ctx context.Context) error {
	if p == nil || p.loggerProvider == nil {
		return nil
	}
	if err := p.loggerProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("log flush: %w", err)
	}
	return nil
}

func (p *Provider) ShutdownLogger(ctx context.Context) error {
	if p == nil || p.loggerProvider == nil {
		return nil
	}
	if err := p.loggerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("log provider shutdown: %w", err)
	}
	return nil
}

// ForceFlush exports everything pending in both providers.
func (p *Provider) ForceFlush(ctx context.Context) error {
	return errors.Join(p.ForceFlushTracer(ctx), p.ForceFlushLogger(ctx))
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	return errors.Join(p.ShutdownTracer(ctx), p.ShutdownLogger(ctx))
}

// Tracer returns a tracer with the given name from the global provider
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Middleware returns an HTTP middleware that extracts incoming trace context
// and wraps each request in a server span.
func Middleware(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation)
	}
}
