// Package telemetry provides OpenTelemetry initialization for the SDK.
//
// Init translates a config.Config into a resource, an OTLP trace exporter
// (HTTP or gRPC), an OTLP HTTP log exporter and an optional pretty-printed
// console span sink, then installs the tracer provider, logger provider and
// W3C propagators as the process globals.
package telemetry
