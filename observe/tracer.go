package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ServiceMeta contains metadata about a downstream service for telemetry purposes.
type ServiceMeta struct {
	ID        string   // Fully qualified service ID (namespace.name or just name)
	Namespace string   // Service namespace (may be empty)
	Name      string   // Service name (required)
	Version   string   // Service version (optional)
	Tags      []string // Service tags for discovery (optional)
	Category  string   // Service category (optional)
}

// SpanName returns the deterministic span name for this service.
// Format: extsvc.call.<namespace>.<name> or extsvc.call.<name>
func (m ServiceMeta) SpanName() string {
	if m.Namespace != "" {
		return "extsvc.call." + m.Namespace + "." + m.Name
	}
	return "extsvc.call." + m.Name
}

// ServiceID returns the fully qualified service identifier.
// If ID field is set, returns it. Otherwise constructs from namespace and name.
func (m ServiceMeta) ServiceID() string {
	if m.ID != "" {
		return m.ID
	}
	if m.Namespace != "" {
		return m.Namespace + "." + m.Name
	}
	return m.Name
}

// Validate reports whether the metadata is usable for telemetry, namely
// that Name is set.
func (m ServiceMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingServiceMetaName
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with service-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan derives the span's context from ctx; it returns no error and does not check ctx for cancellation.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for service call.
	StartSpan(ctx context.Context, meta ServiceMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with service metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta ServiceMeta) (context.Context, trace.Span) {
	spanName := meta.SpanName()

	// Build attributes
	attrs := []attribute.KeyValue{
		attribute.String("service.id", meta.ServiceID()),
		attribute.String("service.name", meta.Name),
		attribute.Bool("service.error", false), // Will be updated in EndSpan if error
	}

	// Add namespace if present
	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("service.namespace", meta.Namespace))
	}

	// Add optional attributes if present
	if meta.Version != "" {
		attrs = append(attrs, attribute.String("service.version", meta.Version))
	}
	if meta.Category != "" {
		attrs = append(attrs, attribute.String("service.category", meta.Category))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("service.tags", meta.Tags))
	}

	ctx, span := t.tracer.Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present. The
// error's dynamic type is recorded separately from its message so a
// trace backend can group, say, every *extsvc.FuseBlownError without
// string-matching Error() text.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.Bool("service.error", true),
			attribute.String("service.error_type", fmt.Sprintf("%T", err)),
		)
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ServiceMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
