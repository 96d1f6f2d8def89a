package traceroot

import (
	"context"
	"net/http"
	"time"

	"github.com/traceroot-ai/traceroot-sdk-go/internal/httpclient"
	"github.com/traceroot-ai/traceroot-sdk-go/internal/telemetry"
)

// HTTPClient returns a client that traces each request and forwards the
// trace context to the callee.
func HTTPClient(timeout time.Duration) *http.Client {
	return httpclient.New(timeout)
}

// WrapHTTPClient instruments an existing client in place.
func WrapHTTPClient(client *http.Client) *http.Client {
	return httpclient.Wrap(client)
}

// WithPeerService names the service the next outbound request targets.
func WithPeerService(ctx context.Context, service string) context.Context {
	return httpclient.WithPeerService(ctx, service)
}

// Middleware continues incoming traces and wraps each request in a server span.
func Middleware(operation string) func(http.Handler) http.Handler {
	return telemetry.Middleware(operation)
}
