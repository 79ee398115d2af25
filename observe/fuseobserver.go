package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FuseObserver records fuse and rate-limiter events emitted by an
// extsvc.Registry, and instruments each call attempt (span, duration,
// error classification) through a Middleware built from the same
// Observer. It satisfies extsvc.Observer structurally (OnFuseOk,
// OnFuseMelt, OnFuseBlown, OnRateLimited, WrapAttempt) without importing
// extsvc, so this package stays usable standalone; the gateway package's
// UseObserver is what installs a *FuseObserver as the fallback
// Options.Observer of the services it starts.
type FuseObserver struct {
	logger    Logger
	mw        *Middleware
	fuseState metric.Int64Counter
	limited   metric.Int64Counter
}

// NewFuseObserver builds a FuseObserver from an already-constructed
// Observer, reusing its tracer, meter and logger.
func NewFuseObserver(obs Observer) (*FuseObserver, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	meter := obs.Meter()

	fuseState, err := meter.Int64Counter(
		"extsvc.fuse.transitions",
		metric.WithDescription("Fuse ask/melt/blown events by service"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	limited, err := meter.Int64Counter(
		"extsvc.rate_limited",
		metric.WithDescription("Rate-limiter deferrals by service"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		return nil, err
	}

	return &FuseObserver{logger: obs.Logger(), mw: mw, fuseState: fuseState, limited: limited}, nil
}

// WrapAttempt runs attempt inside the Middleware, which starts a span,
// times the call, and records the execution metric and log line once
// attempt returns. The ServiceMeta it builds carries only the service
// name; a caller that needs namespace/version/tags on its spans should
// build its own Middleware via MiddlewareFromObserver instead of going
// through the Registry's attached Observer.
func (f *FuseObserver) WrapAttempt(ctx context.Context, service string, attempt func(context.Context) error) error {
	wrapped := f.mw.Wrap(func(ctx context.Context, meta ServiceMeta, _ any) (any, error) {
		return nil, attempt(ctx)
	})
	_, err := wrapped(ctx, ServiceMeta{Name: service}, nil)
	return err
}

func (f *FuseObserver) OnFuseOk(service string) {
	f.fuseState.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("service.name", service),
		attribute.String("fuse.state", "ok"),
	))
}

func (f *FuseObserver) OnFuseMelt(service string) {
	f.fuseState.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("service.name", service),
		attribute.String("fuse.state", "melt"),
	))
	f.logger.Warn(context.Background(), "fuse melt recorded", Field{Key: "service.name", Value: service})
}

func (f *FuseObserver) OnFuseBlown(service string) {
	f.fuseState.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("service.name", service),
		attribute.String("fuse.state", "blown"),
	))
	f.logger.Error(context.Background(), "fuse blown", Field{Key: "service.name", Value: service})
}

func (f *FuseObserver) OnRateLimited(service string) {
	f.limited.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("service.name", service),
	))
}
