package extsvc

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the nth (0-based) pre-thunk delay of a retry policy,
// before capping, randomization or expiry truncation are applied.
type Backoff interface {
	delay(n int) time.Duration
}

// ExponentialBackoff doubles the delay each attempt: d_n = Initial * 2^n.
type ExponentialBackoff struct {
	Initial time.Duration
}

func (b ExponentialBackoff) delay(n int) time.Duration {
	return time.Duration(float64(b.Initial) * math.Pow(2, float64(n)))
}

// LinearBackoff increases the delay by a fixed increment each attempt:
// d_n = Initial + n*Initial*Factor.
type LinearBackoff struct {
	Initial time.Duration
	Factor  float64
}

func (b LinearBackoff) delay(n int) time.Duration {
	return b.Initial + time.Duration(float64(n)*float64(b.Initial)*b.Factor)
}

// Policy configures the retry behavior of one Call. The zero Policy
// retries nothing raised (RetryOn nil) and never delays beyond the
// default backoff.
type Policy struct {
	// Backoff generates the pre-thunk delay sequence. Default:
	// ExponentialBackoff{Initial: 100ms}.
	Backoff Backoff

	// Randomize multiplies each delay by a uniform random factor in
	// [1.0, 2.0) to avoid thundering-herd retries.
	Randomize bool

	// Cap upper-bounds every delay. Zero means uncapped.
	Cap time.Duration

	// Expiry is the total wall-time budget measured from the start of
	// the first attempt. Zero means unbounded (the sequence, and hence
	// the retry loop, may run forever absent a fuse trip).
	Expiry time.Duration

	// RetryOn classifies a raised error as retriable. Nil means no
	// raised error is retriable (it always propagates immediately).
	RetryOn func(err error) bool
}

func (p Policy) backoff() Backoff {
	if p.Backoff == nil {
		return ExponentialBackoff{Initial: 100 * time.Millisecond}
	}
	return p.Backoff
}

// delaySequence is the lazy, possibly-infinite sequence of pre-thunk
// delays for one call, prefixed by d0=0 (no delay before the first
// attempt). It is lazy so an unbounded exponential sequence never needs
// to be materialized before Expiry truncates it.
type delaySequence struct {
	policy Policy
	start  time.Time
	n      int
	first  bool
}

func newDelaySequence(policy Policy, start time.Time) *delaySequence {
	return &delaySequence{policy: policy, start: start, first: true}
}

// next returns the delay before the next attempt. ok is false once the
// policy's Expiry has elapsed, meaning the retry loop must stop without
// making another attempt.
func (s *delaySequence) next(now time.Time) (d time.Duration, ok bool) {
	if s.first {
		s.first = false
		return 0, true
	}

	if s.policy.Expiry > 0 && now.Sub(s.start) >= s.policy.Expiry {
		return 0, false
	}

	d = s.policy.backoff().delay(s.n)
	s.n++

	if s.policy.Cap > 0 && d > s.policy.Cap {
		d = s.policy.Cap
	}
	if s.policy.Randomize && d > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d = time.Duration(float64(d) * (1 + rand.Float64()))
	}
	return d, true
}
