package traceroot

import (
	"context"

	"github.com/traceroot-ai/traceroot-sdk-go/internal/tracing"
)

// TraceFunction runs fn inside a span named spanName. A non-nil metadata
// value is attached to the span as JSON so it is searchable in the UI.
func TraceFunction[T any](ctx context.Context, spanName string, metadata any, fn func(context.Context) (T, error)) (T, error) {
	return tracing.Run(ctx, tracing.Options{SpanName: spanName, Metadata: metadata}, fn)
}

// TraceOption configures the Trace wrappers.
type TraceOption func(*tracing.Options)

// WithSpanName names the span. The default is "unnamed".
func WithSpanName(name string) TraceOption {
	return func(o *tracing.Options) {
		o.SpanName = name
	}
}

// WithTraceParams records the wrapped call's arguments as the "params" span attribute.
func WithTraceParams() TraceOption {
	return func(o *tracing.Options) {
		o.TraceParams = true
	}
}

// WithSpanMetadata attaches a fixed metadata value to every span.
func WithSpanMetadata(metadata any) TraceOption {
	return func(o *tracing.Options) {
		o.Metadata = metadata
	}
}

func buildOptions(opts []TraceOption) tracing.Options {
	var o tracing.Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Trace wraps fn so that every call runs inside a span.
func Trace[R any](fn func(context.Context) (R, error), opts ...TraceOption) func(context.Context) (R, error) {
	o := buildOptions(opts)
	return func(ctx context.Context) (R, error) {
		return tracing.Run(ctx, o, fn)
	}
}

// Trace1 is Trace for functions taking one argument.
func Trace1[A, R any](fn func(context.Context, A) (R, error), opts ...TraceOption) func(context.Context, A) (R, error) {
	o := buildOptions(opts)
	return func(ctx context.Context, a A) (R, error) {
		call := o
		call.Params = []any{a}
		return tracing.Run(ctx, call, func(ctx context.Context) (R, error) {
			return fn(ctx, a)
		})
	}
}

// Trace2 is Trace for functions taking two arguments.
func Trace2[A, B, R any](fn func(context.Context, A, B) (R, error), opts ...TraceOption) func(context.Context, A, B) (R, error) {
	o := buildOptions(opts)
	return func(ctx context.Context, a A, b B) (R, error) {
		call := o
		call.Params = []any{a, b}
		return tracing.Run(ctx, call, func(ctx context.Context) (R, error) {
			return fn(ctx, a, b)
		})
	}
}
