package extsvc

import (
	"context"
	"errors"
	"testing"
)

func TestNopObserverNeverPanics(t *testing.T) {
	var o Observer = nopObserver{}
	o.OnFuseOk("svc")
	o.OnFuseMelt("svc")
	o.OnFuseBlown("svc")
	o.OnRateLimited("svc")
	if err := o.WrapAttempt(context.Background(), "svc", func(context.Context) error { return nil }); err != nil {
		t.Errorf("nopObserver.WrapAttempt() error = %v, want nil", err)
	}
}

func TestNopObserverWrapAttemptPassesErrorThrough(t *testing.T) {
	var o Observer = nopObserver{}
	want := errors.New("boom")
	got := o.WrapAttempt(context.Background(), "svc", func(context.Context) error { return want })
	if got != want {
		t.Errorf("nopObserver.WrapAttempt() error = %v, want %v", got, want)
	}
}

type recordingObserver struct {
	events []string
}

func (r *recordingObserver) OnFuseOk(service string)      { r.events = append(r.events, "ok:"+service) }
func (r *recordingObserver) OnFuseMelt(service string)    { r.events = append(r.events, "melt:"+service) }
func (r *recordingObserver) OnFuseBlown(service string)   { r.events = append(r.events, "blown:"+service) }
func (r *recordingObserver) OnRateLimited(service string) { r.events = append(r.events, "limited:"+service) }

// WrapAttempt is a pass-through: this recorder only tracks fuse/rate
// events, not per-attempt tracing, matching callers who don't need both.
func (r *recordingObserver) WrapAttempt(ctx context.Context, service string, attempt func(context.Context) error) error {
	return attempt(ctx)
}
