package extsvc

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// errRetryRequested is handed to Observer.WrapAttempt (never to the
// retry loop itself) so an observer's span/metric for an attempt that
// asked for a retry is recorded as non-success without inventing a new
// Observer method just for that distinction.
var errRetryRequested = errors.New("extsvc: attempt requested retry")

// Call resolves service in DefaultRegistry, then runs thunk under the
// fuse, rate limiter and retry policy, per the ordering contract: the
// fuse ask always precedes rate-limiting, and rate-limiting sleeps
// always precede the thunk. Exactly one melt is recorded per failed
// attempt; the success path never melts.
//
// Call returns *FuseNotFoundError if service was never Start-ed (or has
// since been Stop-ped), *FuseBlownError if the fuse is open, or
// *RetriesExhaustedError if the retry sequence (or policy.Expiry) ran out
// while the thunk kept requesting retries. Any other error is the
// thunk's own raised error, returned unwrapped.
//
// Go methods cannot introduce their own type parameters, so the
// Registry-scoped form of this function is the package-level CallOn,
// not a method on *Registry — see CallOn.
func Call[T any](ctx context.Context, service string, policy Policy, thunk Thunk[T]) (T, error) {
	return CallOn(ctx, DefaultRegistry, service, policy, thunk)
}

// MustCall is Call's call_strict analog: it panics with the same error
// values Call would return, instead of returning them. Use it only where
// a failed call is a programming error, or where the caller already
// recovers from panics at a higher level (e.g. an HTTP handler's
// recover middleware).
func MustCall[T any](ctx context.Context, service string, policy Policy, thunk Thunk[T]) T {
	return MustCallOn(ctx, DefaultRegistry, service, policy, thunk)
}

// CallOn is the Registry-scoped form of Call, for callers that construct
// their own Registry instead of using DefaultRegistry (typically tests).
func CallOn[T any](ctx context.Context, r *Registry, service string, policy Policy, thunk Thunk[T]) (T, error) {
	e, ok := r.lookup(service)
	if !ok || !e.live.Load() {
		var zero T
		return zero, &FuseNotFoundError{Service: service}
	}

	seq := newDelaySequence(policy, time.Now())

	var lastReason any
	var haveReason bool
	var lastRaised error

	for {
		if !e.live.Load() {
			var zero T
			return zero, &FuseNotFoundError{Service: service}
		}

		d, ok := seq.next(time.Now())
		if !ok {
			var zero T
			if lastRaised != nil {
				return zero, lastRaised
			}
			return zero, &RetriesExhaustedError{Service: service, Reason: reasonOrNil(lastReason, haveReason)}
		}
		if d > 0 {
			if err := e.sleep(ctx, d); err != nil {
				var zero T
				return zero, err
			}
		}

		status := e.breaker.ask(time.Now())
		if status == FuseBlown {
			e.observer.OnFuseBlown(service)
			var zero T
			return zero, &FuseBlownError{Service: service}
		}
		e.observer.OnFuseOk(service)

		var outcome Outcome[T]
		var raised bool
		var attemptErr error
		// The observer's returned error only drives its own telemetry
		// (span status, error counters); it never reaches the retry
		// loop, which always decides on outcome/raised/attemptErr above.
		_ = e.observer.WrapAttempt(ctx, service, func(attemptCtx context.Context) error {
			outcome, raised, attemptErr = runGuarded(attemptCtx, e, service, thunk)
			if attemptErr != nil {
				return attemptErr
			}
			if outcome.retry {
				return errRetryRequested
			}
			return nil
		})
		if attemptErr != nil && !raised {
			// A rate-limiter/context failure, not an attempt outcome.
			var zero T
			return zero, attemptErr
		}

		if raised {
			if ps, ok := attemptErr.(*panicSignal); ok {
				e.breaker.melt(time.Now())
				e.observer.OnFuseMelt(service)
				panic(ps.value)
			}

			e.breaker.melt(time.Now())
			e.observer.OnFuseMelt(service)

			if policy.RetryOn == nil || !policy.RetryOn(attemptErr) {
				var zero T
				return zero, attemptErr
			}
			lastRaised = attemptErr
			continue
		}

		if !outcome.retry {
			return outcome.value, nil
		}

		e.breaker.melt(time.Now())
		e.observer.OnFuseMelt(service)
		if outcome.reason != nil {
			lastReason = outcome.reason
		} else {
			lastReason = ReasonUnknown
		}
		haveReason = true
		lastRaised = nil
	}
}

// MustCallOn is the Registry-scoped form of MustCall.
func MustCallOn[T any](ctx context.Context, r *Registry, service string, policy Policy, thunk Thunk[T]) T {
	v, err := CallOn(ctx, r, service, policy, thunk)
	if err != nil {
		panic(err)
	}
	return v
}

// panicSignal carries a recovered thunk panic through runGuarded so the
// caller can melt the fuse before re-panicking with the original value,
// satisfying the requirement that a panicking thunk still counts as a
// failed attempt.
type panicSignal struct{ value any }

func (p *panicSignal) Error() string { return fmt.Sprintf("extsvc: thunk panicked: %v", p.value) }

// runGuarded runs the rate limiter and thunk for one attempt. The bool
// return reports whether a non-nil error is a "raised" thunk error (to
// be classified/melted) as opposed to a rate-limiter/context failure
// that should propagate immediately without counting as an attempt.
func runGuarded[T any](ctx context.Context, e *entry, service string, thunk Thunk[T]) (Outcome[T], bool, error) {
	var outcome Outcome[T]
	var raised bool
	var raisedErr error

	err := e.limiter.call(ctx, e.sleep, func() { e.observer.OnRateLimited(service) }, func(ctx context.Context) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				raised = true
				err = &panicSignal{value: rec}
			}
		}()

		o, thunkErr := thunk(ctx)
		if thunkErr != nil {
			raised = true
			raisedErr = thunkErr
			return thunkErr
		}
		outcome = o
		return nil
	})
	if err != nil {
		if raised {
			if ps, ok := err.(*panicSignal); ok {
				return Outcome[T]{}, true, ps
			}
			return Outcome[T]{}, true, raisedErr
		}
		return Outcome[T]{}, false, err
	}
	return outcome, false, nil
}

func reasonOrNil(reason any, have bool) any {
	if !have {
		return nil
	}
	return reason
}
