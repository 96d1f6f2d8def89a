package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTransport is the base transport used by instrumented clients.
var DefaultTransport = http.DefaultTransport

// AttrPeerService names the remote service on outbound client spans.
var AttrPeerService = attribute.Key("peer.service")

type contextKey struct{}

// WithPeerService names the service the next request on ctx is sent to.
// The name is added to the client span and its span name.
func WithPeerService(ctx context.Context, service string) context.Context {
	return context.WithValue(ctx, contextKey{}, service)
}

func peerService(ctx context.Context) string {
	s, _ := ctx.Value(contextKey{}).(string)
	return s
}

// peerTransport tags the active client span with the peer service name.
type peerTransport struct {
	base http.RoundTripper
}

func (t *peerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if service := peerService(req.Context()); service != "" {
		trace.SpanFromContext(req.Context()).SetAttributes(AttrPeerService.String(service))
	}
	return t.base.RoundTrip(req)
}

func newOtelTransport(base http.RoundTripper) http.RoundTripper {
	return otelhttp.NewTransport(&peerTransport{base: base},
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if service := peerService(r.Context()); service != "" {
				return fmt.Sprintf("%s: %s %s", service, r.Method, r.URL.Path)
			}
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
	)
}

// New returns an http.Client that starts a client span per request and
// injects the W3C trace headers.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: newOtelTransport(DefaultTransport),
		Timeout:   timeout,
	}
}

// Wrap instruments an existing client's transport in place.
func Wrap(client *http.Client) *http.Client {
	if client.Transport == nil {
		client.Transport = DefaultTransport
	}
	client.Transport = newOtelTransport(client.Transport)
	return client
}
