// Package traceroot is a thin SDK over OpenTelemetry for sending traces and
// logs to a TraceRoot collector.
//
// Initialize once at startup, then use the logger and the span wrappers:
//
//	cfg, err := traceroot.LoadConfig("traceroot.config.toml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := traceroot.Init(ctx, cfg); err != nil {
//		log.Fatal(err)
//	}
//	defer traceroot.Shutdown(context.Background())
//
//	logger := traceroot.GetLogger()
//	greeting, err := traceroot.TraceFunction(ctx, "greet", map[string]any{"requestId": "123"},
//		func(ctx context.Context) (string, error) {
//			logger.InfoContext(ctx, "greeting inside traced function")
//			return "Hello, world!", nil
//		})
//
// Functions can also be wrapped once at declaration, which is the closest Go
// has to an annotation:
//
//	var greet = traceroot.Trace1(func(ctx context.Context, name string) (string, error) {
//		return "Hello, " + name, nil
//	}, traceroot.WithSpanName("greet"), traceroot.WithTraceParams())
//
// Span propagation, batching, retries and the OTLP wire format are handled by
// the OpenTelemetry Go SDK.
package traceroot
