package gateway

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aperturestack/extsvc/extsvc"
	"github.com/aperturestack/extsvc/observe"
)

// FuseConfig configures a service's circuit breaker.
type FuseConfig struct {
	// MaxFailures is the number of failures within Window the fuse
	// tolerates; the next one blows it. Zero means "use extsvc's
	// default" (10).
	MaxFailures int
	// Window is the sliding window over which failures are counted.
	// Zero means "use extsvc's default" (10s).
	Window time.Duration
	// Refresh is how long the fuse stays Blown before it is eligible to
	// auto-reset. Zero means "use extsvc's default" (60s).
	Refresh time.Duration
	// FaultInjectionRate, when positive, installs a
	// extsvc.FaultInjectionStrategy instead of a StandardStrategy, for
	// chaos-testing degraded-response paths.
	FaultInjectionRate float64
}

// RateLimitConfig configures a service's sliding-window admission limiter.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RetryConfig configures a service's default retry policy.
type RetryConfig struct {
	Backoff   extsvc.Backoff
	Randomize bool
	Cap       time.Duration
	Expiry    time.Duration
	RetryOn   func(err error) bool
}

// Config is one service's full declared configuration.
type Config struct {
	Fuse FuseConfig
	// RateLimit is a pointer so "absent" (disabled) is distinguishable
	// from the RateLimitConfig zero value, which extsvc would reject.
	RateLimit *RateLimitConfig
	Retry     RetryConfig
	Observer  extsvc.Observer
	Sleep     extsvc.SleepFunc
}

func (c Config) toOptions() extsvc.Options {
	strategy := extsvc.Strategy(extsvc.StandardStrategy{
		MaxFailures: c.Fuse.MaxFailures,
		Window:      c.Fuse.Window,
	})
	if c.Fuse.FaultInjectionRate > 0 {
		strategy = extsvc.FaultInjectionStrategy{
			Rate:        c.Fuse.FaultInjectionRate,
			MaxFailures: c.Fuse.MaxFailures,
			Window:      c.Fuse.Window,
		}
	}

	opts := extsvc.Options{
		FuseStrategy: strategy,
		FuseRefresh:  c.Fuse.Refresh,
		Observer:     c.Observer,
		Sleep:        c.Sleep,
		DefaultPolicy: extsvc.Policy{
			Backoff:   c.Retry.Backoff,
			Randomize: c.Retry.Randomize,
			Cap:       c.Retry.Cap,
			Expiry:    c.Retry.Expiry,
			RetryOn:   c.Retry.RetryOn,
		},
	}
	if c.RateLimit != nil {
		opts.RateLimit = &extsvc.RateLimit{Limit: c.RateLimit.Limit, Window: c.RateLimit.Window}
	}
	return opts
}

// merge shallow-merges override's non-zero-value fields over base,
// returning the combined Config. A zero-value field in override (the
// empty string, 0, false, a nil pointer/func) is read as "not set" and
// leaves base's value untouched — the same convention Config's
// declaration default itself relies on.
func merge(base, override Config) Config {
	if override.Fuse.MaxFailures != 0 {
		base.Fuse.MaxFailures = override.Fuse.MaxFailures
	}
	if override.Fuse.Window != 0 {
		base.Fuse.Window = override.Fuse.Window
	}
	if override.Fuse.Refresh != 0 {
		base.Fuse.Refresh = override.Fuse.Refresh
	}
	if override.Fuse.FaultInjectionRate != 0 {
		base.Fuse.FaultInjectionRate = override.Fuse.FaultInjectionRate
	}
	if override.RateLimit != nil {
		base.RateLimit = override.RateLimit
	}
	if override.Retry.Backoff != nil {
		base.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.Randomize {
		base.Retry.Randomize = true
	}
	if override.Retry.Cap != 0 {
		base.Retry.Cap = override.Retry.Cap
	}
	if override.Retry.Expiry != 0 {
		base.Retry.Expiry = override.Retry.Expiry
	}
	if override.Retry.RetryOn != nil {
		base.Retry.RetryOn = override.Retry.RetryOn
	}
	if override.Observer != nil {
		base.Observer = override.Observer
	}
	if override.Sleep != nil {
		base.Sleep = override.Sleep
	}
	return base
}

// Registry holds declared, not-yet-started service configurations.
// Declare(name, cfg) registers a default; Start(name, overrides...)
// shallow-merges overrides over it and installs the service with
// extsvc.Start.
type Registry struct {
	mu       sync.RWMutex
	declared map[string]Config
	observer extsvc.Observer
}

// NewRegistry creates an empty gateway registry.
func NewRegistry() *Registry {
	return &Registry{declared: make(map[string]Config)}
}

// UseObserver builds an observe.FuseObserver from obs and installs it as
// the fallback Observer for every service started through this registry
// that doesn't declare its own Config.Observer.
func (r *Registry) UseObserver(obs observe.Observer) error {
	fo, err := observe.NewFuseObserver(obs)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.observer = fo
	r.mu.Unlock()
	return nil
}

// DefaultRegistry is the process-wide registry used by the package-level
// UseObserver/Declare/Start/StartAll functions.
var DefaultRegistry = NewRegistry()

// Declare stores cfg as service's default configuration. A later Declare
// for the same name replaces the default outright (it does not merge).
func (r *Registry) Declare(service string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declared[service] = cfg
}

// Start merges any overrides over service's declared default (applied in
// order, each one shallow-merging over the running result) and installs
// the service with extsvc.Start. Start returns an error wrapping
// ErrNotDeclared if service was never Declared.
func (r *Registry) Start(service string, overrides ...Config) error {
	r.mu.RLock()
	base, ok := r.declared[service]
	fallback := r.observer
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotDeclared, service)
	}

	for _, o := range overrides {
		base = merge(base, o)
	}
	if base.Observer == nil {
		base.Observer = fallback
	}
	return extsvc.Start(service, base.toOptions())
}

// Declared reports whether service has a declared configuration.
func (r *Registry) Declared(service string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.declared[service]
	return ok
}

// Names returns every declared service name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.declared))
	for name := range r.declared {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrNotDeclared is wrapped by the error Start (and so StartAll) returns
// for a service that has no declared configuration.
var ErrNotDeclared = errors.New("gateway: service not declared")

// StartAll starts every declared service with no per-service overrides,
// for the common case of binding an entire static config file at
// process warm-up. It returns the first error encountered, but still
// attempts every remaining service.
func (r *Registry) StartAll() error {
	var firstErr error
	for _, name := range r.Names() {
		if err := r.Start(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// UseObserver installs obs as DefaultRegistry's fallback Observer.
func UseObserver(obs observe.Observer) error { return DefaultRegistry.UseObserver(obs) }

// Declare stores service's default configuration in DefaultRegistry.
func Declare(service string, cfg Config) { DefaultRegistry.Declare(service, cfg) }

// Start merges overrides over DefaultRegistry's declared default for
// service and installs it via extsvc.Start.
func Start(service string, overrides ...Config) error {
	return DefaultRegistry.Start(service, overrides...)
}

// StartAll starts every service declared in DefaultRegistry.
func StartAll() error { return DefaultRegistry.StartAll() }
