// Package tracing runs a unit of work inside a named span.
package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/traceroot-ai/traceroot-sdk-go/internal/logger"
	"github.com/traceroot-ai/traceroot-sdk-go/internal/telemetry"
)

const (
	TracerName = "traceroot"

	// DefaultSpanName is used when a wrapper is given no name.
	DefaultSpanName = "unnamed"
)

var (
	AttrSpanName = attribute.Key("span_name")
	AttrMetadata = attribute.Key("metadata")
	AttrParams   = attribute.Key("params")
)

type Options struct {
	SpanName string
	// Metadata, when non-nil, is attached to the span as JSON.
	Metadata any
	// Params are the wrapped call's arguments. Recorded only when TraceParams is set.
	Params      []any
	TraceParams bool
}

// Run starts a span, runs fn with the span's context and ends the span.
// An error return or a panic marks the span as failed; panics are re-raised.
func Run[T any](ctx context.Context, opts Options, fn func(context.Context) (T, error)) (result T, err error) {
	name := opts.SpanName
	if name == "" {
		name = DefaultSpanName
	}

	ctx, span := telemetry.Tracer(TracerName).Start(ctx, name)
	defer span.End()

	span.SetAttributes(AttrSpanName.String(name))
	if opts.Metadata != nil {
		span.SetAttributes(AttrMetadata.String(logger.EncodeMetadata(opts.Metadata)))
	}
	if opts.TraceParams {
		if params := FormatParams(opts.Params); params != "" {
			span.SetAttributes(AttrParams.String(params))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			recordError(span, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	result, err = fn(ctx)
	if err != nil {
		recordError(span, err)
	}
	return result, err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// FormatParams renders call arguments as a tuple, e.g. ("world", 3).
func FormatParams(params []any) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		if s, ok := p.(string); ok {
			parts[i] = fmt.Sprintf("%q", s)
			continue
		}
		parts[i] = fmt.Sprintf("%+v", p)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
