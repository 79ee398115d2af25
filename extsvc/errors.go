package extsvc

import (
	"errors"
	"fmt"
)

// Sentinel errors for stateless misconfiguration conditions.
var (
	// ErrAlreadyStarted is returned by Start when a service is already
	// registered. Start still succeeds and reinstalls with the new
	// options; ErrAlreadyStarted is informational and may be ignored.
	ErrAlreadyStarted = errors.New("extsvc: service already started")

	// ErrRateLimiterMisconfigured is returned by Registry.Start when
	// Options.RateLimit has a non-positive Limit or Window.
	ErrRateLimiterMisconfigured = errors.New("extsvc: rate limiter requires a positive limit and window")
)

// FuseNotFoundError is returned when Start was never called (or Stop has
// been called) for the named service.
type FuseNotFoundError struct {
	Service string
}

func (e *FuseNotFoundError) Error() string {
	return fmt.Sprintf("extsvc: fuse not found for service %q", e.Service)
}

// FuseBlownError is returned when the fuse is open at the moment of ask.
// Fault-injected blown and genuinely blown are indistinguishable by
// design — callers cannot and should not tell them apart.
type FuseBlownError struct {
	Service string
}

func (e *FuseBlownError) Error() string {
	return fmt.Sprintf("extsvc: fuse blown for service %q", e.Service)
}

// RetriesExhaustedError is returned when the retry-delay sequence ended
// (or the policy's Expiry elapsed) with the last attempt returning a
// retry signal. Reason is the payload of the last RetryWithReason, or
// ReasonUnknown if the last attempt returned a bare RetryNow.
type RetriesExhaustedError struct {
	Service string
	Reason  any
}

func (e *RetriesExhaustedError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("extsvc: retries exhausted for service %q: %v", e.Service, e.Reason)
	}
	return fmt.Sprintf("extsvc: retries exhausted for service %q", e.Service)
}
