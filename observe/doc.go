// Package observe provides OpenTelemetry-based observability for outbound
// calls to downstream services.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the Observer into the extsvc call
// pipeline or server middleware.
//
// # Overview
//
// observe provides three observability pillars:
//   - Tracing: OpenTelemetry spans with service metadata attributes
//   - Metrics: Execution counters and duration histograms
//   - Logging: Structured JSON logging with automatic field redaction
//
// # Core Components
//
//   - [Observer]: Main facade providing Tracer, Meter, and Logger access
//   - [Tracer]: Span creation with service metadata as span attributes
//   - [Metrics]: Records execution counts, errors, and duration histograms
//   - [Logger]: Structured JSON logging with sensitive field redaction
//   - [Middleware]: Wraps ExecuteFunc with complete observability
//
// # Quick Start
//
//	cfg := observe.Config{
//	    ServiceName: "my-service",
//	    Version:     "1.0.0",
//	    Tracing:     observe.TracingConfig{Enabled: true, Exporter: "otlp", SamplePct: 1.0},
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	}
//
//	obs, err := observe.NewObserver(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer obs.Shutdown(ctx)
//
//	// Create middleware and wrap the call
//	mw, _ := observe.MiddlewareFromObserver(obs)
//	wrappedExec := mw.Wrap(originalExecuteFunc)
//
//	// Execute - automatically traced, metered, and logged
//	result, err := wrappedExec(ctx, serviceMeta, input)
//
// # Telemetry Details
//
// Tracing creates spans with deterministic names:
//   - With namespace: "extsvc.call.<namespace>.<name>" (e.g., "extsvc.call.github.create_issue")
//   - Without namespace: "extsvc.call.<name>" (e.g., "extsvc.call.read_file")
//
// Span attributes include:
//   - service.id: Fully qualified service identifier
//   - service.name: Service name (required)
//   - service.namespace: Service namespace (if set)
//   - service.version: Service version (if set)
//   - service.category: Service category (if set)
//   - service.tags: Discovery tags (if set)
//   - service.error: Boolean indicating execution failure
//
// Metrics recorded:
//   - extsvc.call.total (counter): Total executions by service
//   - extsvc.call.errors (counter): Total errors by service
//   - extsvc.call.duration_ms (histogram): Duration distribution in milliseconds
//
// All metrics include labels: service.id, service.name, service.namespace (if set).
//
// # Sensitive Field Redaction
//
// The logger automatically redacts these fields to prevent credential leakage:
//   - input, inputs
//   - password, secret, token
//   - api_key, apiKey, credential
//
// See [RedactedFields] for the complete list.
//
// # Exporter Configuration
//
// Tracing exporters:
//   - "otlp": OTLP gRPC (EXTSVC_OTLP_ENDPOINT, else OTEL_EXPORTER_OTLP_ENDPOINT
//     or OTEL_EXPORTER_OTLP_TRACES_ENDPOINT)
//   - "jaeger": Jaeger via OTLP (EXTSVC_JAEGER_ENDPOINT, else OTEL_EXPORTER_JAEGER_ENDPOINT)
//   - "stdout": Console output for development
//   - "none" or "": Disabled (no-op)
//
// Metrics exporters:
//   - "otlp": OTLP gRPC (EXTSVC_OTLP_ENDPOINT, else OTEL_EXPORTER_OTLP_ENDPOINT
//     or OTEL_EXPORTER_OTLP_METRICS_ENDPOINT)
//   - "prometheus": Prometheus scrape endpoint
//   - "stdout": Console output for development
//   - "none" or "": Disabled (no-op)
//
// The EXTSVC_* variables let one binary point extsvc's own spans/metrics
// at a different collector than other instrumentation sharing the
// process; they take precedence over the generic OTEL_EXPORTER_* ones
// when both are set.
//
// # Thread Safety
//
// All exported types are safe for concurrent use after construction:
//   - [Observer]: Tracer(), Meter(), Logger() are safe; Shutdown() is idempotent
//   - [Tracer]: StartSpan() and EndSpan() are safe for concurrent use
//   - [Metrics]: RecordExecution() is safe for concurrent use
//   - [Logger]: All logging methods are mutex-protected
//   - [Middleware]: Wrap() returns a thread-safe ExecuteFunc
//
// # Error Handling
//
// Configuration errors (use errors.Is for checking):
//   - [ErrMissingServiceName]: Config.ServiceName is empty
//   - [ErrInvalidSamplePct]: Tracing.SamplePct not in [0.0, 1.0]
//   - [ErrInvalidTracingExporter]: Unknown tracing exporter name
//   - [ErrInvalidMetricsExporter]: Unknown metrics exporter name
//   - [ErrInvalidLogLevel]: Unknown log level
//
// Exporter errors:
//   - [ErrEndpointNotConfigured]: Required endpoint env var not set
//
// Runtime errors:
//   - [ErrNilObserver]: Nil Observer passed to function
//   - [ErrMissingServiceMetaName]: ServiceMeta.Name is empty
//
// Example error handling:
//
//	obs, err := observe.NewObserver(ctx, cfg)
//	if errors.Is(err, observe.ErrMissingServiceName) {
//	    // Handle missing service name
//	}
//	if errors.Is(err, observe.ErrEndpointNotConfigured) {
//	    // Handle missing OTLP endpoint
//	}
//
// # Integration with extsvc
//
// observe integrates with the rest of this module:
//   - extsvc.Registry: [FuseObserver] satisfies extsvc.Observer structurally
//     (OnFuseOk/OnFuseMelt/OnFuseBlown/OnRateLimited) and drives a
//     Middleware through its WrapAttempt method, so every attempt extsvc
//     runs is also a traced, metered, logged Middleware.Wrap call
//   - gateway: Declare/Start wires a default Observer into every service
//     via Registry.UseObserver, which builds a FuseObserver
//   - Other callers: [Middleware.Wrap] instruments any ExecuteFunc directly;
//     this module ships no HTTP middleware
package observe
