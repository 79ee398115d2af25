// Package extsvc protects outbound calls to unreliable external services.
//
// For each logically distinct dependency, extsvc maintains three
// coordinated controls behind a single name — a circuit breaker ("fuse"),
// a sliding-window rate limiter, and a retry policy — and exposes one
// wrapping operation, Call, that runs a caller-supplied thunk under all
// three. extsvc never performs IO itself; the thunk does that.
//
// # Ecosystem Position
//
//	┌────────────────────────────────────────────────────────────────┐
//	│                     Outbound Call Flow                         │
//	├────────────────────────────────────────────────────────────────┤
//	│                                                                │
//	│   caller            extsvc                  external          │
//	│   ┌──────┐        ┌───────────┐            ┌─────────┐        │
//	│   │ Call │───────▶│  Registry │───────────▶│ Service │        │
//	│   └──────┘        │  lookup   │            │  (API)  │        │
//	│                    │ ┌───────┐ │            └─────────┘        │
//	│                    │ │ Fuse  │ │                                │
//	│                    │ ├───────┤ │                                │
//	│                    │ │ Rate  │ │                                │
//	│                    │ │ Limit │ │                                │
//	│                    │ ├───────┤ │                                │
//	│                    │ │ Retry │ │                                │
//	│                    │ └───────┘ │                                │
//	│                    └───────────┘                                │
//	│                                                                │
//	└────────────────────────────────────────────────────────────────┘
//
// # Quick Start
//
//	extsvc.Start("billing-api", extsvc.Options{
//	    FuseStrategy: extsvc.StandardStrategy{MaxFailures: 5, Window: 10 * time.Second},
//	    RateLimit:    &extsvc.RateLimit{Limit: 50, Window: time.Second},
//	})
//
//	value, err := extsvc.Call(ctx, "billing-api", extsvc.Policy{
//	    Backoff: extsvc.ExponentialBackoff{Initial: 100 * time.Millisecond},
//	}, func(ctx context.Context) (extsvc.Outcome[Invoice], error) {
//	    inv, err := billingClient.Fetch(ctx, id)
//	    if err != nil {
//	        return extsvc.Outcome[Invoice]{}, err
//	    }
//	    return extsvc.Success(inv), nil
//	})
//
// # Execution Order
//
// Call resolves the registry entry, then for each attempt: asks the fuse,
// passes through the rate limiter, runs the thunk, classifies the
// outcome, and feeds the result back into the fuse (melt) and the retry
// driver. The fuse ask always precedes rate-limiting; rate-limiting
// always precedes the thunk. Exactly one melt is recorded per failed
// attempt; the success path never melts.
//
// # Thread Safety
//
// Registry, the fuse, and the rate limiter are safe for concurrent use.
// Call, MustCall, CallAsync and CallStream may all be invoked concurrently
// against the same service name; the Fuse and RateLimiter linearize their
// own per-service state but make no ordering guarantees across services.
//
// # Error Handling
//
// Call returns *FuseNotFoundError, *FuseBlownError, *RetriesExhaustedError,
// or the thunk's raised error unwrapped (never re-wrapped). MustCall
// panics with the same values instead of returning them.
//
// # Related Packages
//
// The sibling gateway package declares a service's Options once at
// process init and binds overrides into Start, for callers that don't
// want to repeat fuse/rate-limit/retry configuration at every Call site.
// The sibling observe package provides an Observer implementation
// (OpenTelemetry metrics, tracing and structured logs) that can be
// attached via Registry.SetObserver or Options.Observer.
package extsvc
