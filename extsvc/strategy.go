package extsvc

import (
	"math/rand/v2"
	"time"
)

// FuseStatus is the result of asking a fuse whether a call may proceed.
type FuseStatus int

const (
	// FuseOk means the fuse is closed; the call may proceed.
	FuseOk FuseStatus = iota
	// FuseBlown means the fuse is open; the call must not proceed.
	FuseBlown
)

func (s FuseStatus) String() string {
	switch s {
	case FuseOk:
		return "ok"
	case FuseBlown:
		return "blown"
	default:
		return "unknown"
	}
}

// Strategy decides when a fuse transitions from Ok to Blown based on the
// sequence of melts it observes, and may itself veto an ask
// probabilistically (FaultInjectionStrategy).
type Strategy interface {
	// maxFailures is the number of failures within Window the fuse
	// tolerates; the next failure within Window blows it.
	maxFailures() int
	// window is the sliding window over which failures are counted.
	window() time.Duration
	// injects reports whether this strategy does fault injection at all;
	// whether a given ask is reported Blown is rolled per ask by
	// FaultInjectionStrategy.shouldInject.
	injects() bool
}

// StandardStrategy blows the fuse once more than MaxFailures failures are
// observed within Window.
type StandardStrategy struct {
	// MaxFailures is the number of failures within Window the fuse
	// tolerates; failure MaxFailures+1 blows it. Default: 10.
	MaxFailures int
	// Window is the sliding window over which failures are counted.
	// Default: 10s.
	Window time.Duration
}

func (s StandardStrategy) maxFailures() int {
	if s.MaxFailures <= 0 {
		return 10
	}
	return s.MaxFailures
}

func (s StandardStrategy) window() time.Duration {
	if s.Window <= 0 {
		return 10 * time.Second
	}
	return s.Window
}

func (s StandardStrategy) injects() bool { return false }

// FaultInjectionStrategy behaves like StandardStrategy but additionally
// fails a Rate fraction of asks regardless of the fuse's real state, for
// chaos-testing downstream degraded-response paths.
type FaultInjectionStrategy struct {
	// Rate is the fraction (0.0-1.0) of asks that report Blown
	// unconditionally.
	Rate        float64
	MaxFailures int
	Window      time.Duration
}

func (s FaultInjectionStrategy) maxFailures() int {
	return StandardStrategy{MaxFailures: s.MaxFailures}.maxFailures()
}

func (s FaultInjectionStrategy) window() time.Duration {
	return StandardStrategy{Window: s.Window}.window()
}

func (s FaultInjectionStrategy) injects() bool { return true }

// shouldInject rolls the fault-injection dice.
// #nosec G404 -- fault injection only needs statistical, not cryptographic, randomness.
func (s FaultInjectionStrategy) shouldInject() bool {
	if s.Rate <= 0 {
		return false
	}
	if s.Rate >= 1 {
		return true
	}
	return rand.Float64() < s.Rate
}
