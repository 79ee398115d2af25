// Package gateway declares per-service extsvc configuration at process
// init time and binds it into extsvc.Start, so call sites don't have to
// repeat a service's fuse/rate-limit/retry configuration at every
// extsvc.Call.
//
// # Quick Start
//
//	obs, _ := observe.NewObserver(ctx, observe.Config{ServiceName: "checkout"})
//	gateway.UseObserver(obs) // fallback Observer for every declared service
//
//	gateway.Declare("payments", gateway.Config{
//	    Fuse:      gateway.FuseConfig{MaxFailures: 5, Window: 10 * time.Second},
//	    RateLimit: &gateway.RateLimitConfig{Limit: 50, Window: time.Second},
//	})
//
//	// At process warm-up, or lazily on first use:
//	if err := gateway.Start("payments"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Per-call overrides shallow-merge over the declared default:
//	gateway.Start("payments", gateway.Config{Retry: gateway.RetryConfig{Expiry: 5 * time.Second}})
package gateway
