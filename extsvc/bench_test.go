package extsvc

import (
	"context"
	"strconv"
	"testing"
	"time"
)

// BenchmarkBreakerAsk measures the fuse ask() hot path on a fuse that
// stays Ok for the whole run.
func BenchmarkBreakerAsk(b *testing.B) {
	breaker := newBreakerState(StandardStrategy{MaxFailures: 1000, Window: time.Minute}, time.Minute)
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		breaker.ask(now)
	}
}

// BenchmarkBreakerMelt measures melt() including sliding-window eviction,
// capped well under MaxFailures so the fuse never blows mid-run.
func BenchmarkBreakerMelt(b *testing.B) {
	breaker := newBreakerState(StandardStrategy{MaxFailures: 1 << 30, Window: time.Millisecond}, time.Minute)
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Advance faster than Window so the sliding window stays
		// bounded instead of growing with b.N.
		now = now.Add(2 * time.Millisecond)
		breaker.melt(now)
	}
}

// BenchmarkLimiterAdmit measures admit() with a one-nanosecond window,
// so each earlier admission has left the window by the next call.
func BenchmarkLimiterAdmit(b *testing.B) {
	limiter := newLimiterState(RateLimit{Limit: 1, Window: time.Nanosecond})
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Window shorter than the time between iterations means each
		// call evicts the prior admission, keeping the window bounded.
		now = now.Add(time.Microsecond)
		limiter.admit(now)
	}
}

// BenchmarkDelaySequenceNext measures the lazy delay-sequence generator
// under exponential backoff with randomization, the most expensive
// per-attempt configuration.
func BenchmarkDelaySequenceNext(b *testing.B) {
	policy := Policy{Backoff: ExponentialBackoff{Initial: time.Millisecond}, Randomize: true, Cap: time.Second}
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		seq := newDelaySequence(policy, now)
		seq.next(now)
		seq.next(now)
	}
}

// BenchmarkCallOnSuccess measures the full CallOn orchestration on the
// success-on-first-attempt path: one fuse ask, no sleeps, no melts.
func BenchmarkCallOnSuccess(b *testing.B) {
	r := NewRegistry()
	sleep := func(ctx context.Context, d time.Duration) error { return nil }
	if err := r.Start("svc", Options{Sleep: sleep}); err != nil {
		b.Fatalf("Start() error = %v", err)
	}
	ctx := context.Background()
	thunk := func(ctx context.Context) (Outcome[int], error) {
		return Success(1), nil
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := CallOn(ctx, r, "svc", Policy{}, thunk); err != nil {
			b.Fatalf("CallOn() error = %v", err)
		}
	}
}

// BenchmarkSnapshot measures the parallel fan-out cost of Snapshot over
// a registry with many registered services.
func BenchmarkSnapshot(b *testing.B) {
	r := NewRegistry()
	for i := 0; i < 50; i++ {
		name := "svc" + strconv.Itoa(i)
		if err := r.Start(name, Options{}); err != nil {
			b.Fatalf("Start() error = %v", err)
		}
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Snapshot(ctx)
	}
}
