package extsvc

import "context"

// Observer receives the named events the core emits: fuse_ok, fuse_melt,
// fuse_blown and rate_limited, each carrying the service identifier, plus
// one hook around each attempt. A sink may be attached at process-init
// via Registry.SetObserver or Options.Observer; the core never fails
// because no sink is attached — the default is a no-op.
type Observer interface {
	OnFuseOk(service string)
	OnFuseMelt(service string)
	OnFuseBlown(service string)
	OnRateLimited(service string)

	// WrapAttempt runs attempt exactly once and returns its error
	// unchanged. Implementations may use ctx to start a span, time the
	// call, and record its outcome (the span/metric attributes an
	// implementation derives from service are its own business; the core
	// only cares that attempt's error passes through untouched). The
	// no-op observer just calls attempt(ctx) directly.
	WrapAttempt(ctx context.Context, service string, attempt func(context.Context) error) error
}

type nopObserver struct{}

func (nopObserver) OnFuseOk(string)      {}
func (nopObserver) OnFuseMelt(string)    {}
func (nopObserver) OnFuseBlown(string)   {}
func (nopObserver) OnRateLimited(string) {}

func (nopObserver) WrapAttempt(ctx context.Context, _ string, attempt func(context.Context) error) error {
	return attempt(ctx)
}
