package extsvc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Options configures a service when it is registered with Start.
type Options struct {
	// FuseStrategy decides when the fuse blows. Default: StandardStrategy{10, 10s}.
	FuseStrategy Strategy
	// FuseRefresh is how long to wait after blowing before the fuse is
	// eligible to auto-reset. Default: 60s.
	FuseRefresh time.Duration
	// RateLimit configures the sliding-window limiter. Nil disables rate
	// limiting for this service.
	RateLimit *RateLimit
	// DefaultPolicy is the service's default retry policy, consulted by
	// callers (and the gateway package) that want "the service default"
	// rather than constructing their own Policy for every Call.
	DefaultPolicy Policy
	// Sleep is the blocking hook used for rate-limiter defers and retry
	// delays. Default: RealSleep.
	Sleep SleepFunc
	// Observer receives fuse/rate-limit events for this service. Default:
	// the registry's own observer (see Registry.SetObserver), falling
	// back to a no-op.
	Observer Observer
}

func (o Options) normalize() Options {
	if o.FuseStrategy == nil {
		o.FuseStrategy = StandardStrategy{}
	}
	if o.FuseRefresh <= 0 {
		o.FuseRefresh = defaultRefresh
	}
	if o.Sleep == nil {
		o.Sleep = RealSleep
	}
	return o
}

// entry is one service's fully-resolved registration: its own fuse,
// optional limiter, default policy and sleep hook. Calls already in
// flight hold a pointer to the entry they started with; a subsequent
// Start installs a new entry without mutating the old one, so in-flight
// calls observing stale state still complete normally (spec §9).
type entry struct {
	service  string
	breaker  *breakerState
	limiter  *limiterState
	policy   Policy
	sleep    SleepFunc
	observer Observer
	live     atomic.Bool
}

func newEntry(service string, opts Options) *entry {
	opts = opts.normalize()
	e := &entry{
		service: service,
		breaker: newBreakerState(opts.FuseStrategy, opts.FuseRefresh),
		policy:  opts.DefaultPolicy,
		sleep:   opts.Sleep,
	}
	e.live.Store(true)
	if opts.RateLimit != nil {
		e.limiter = newLimiterState(*opts.RateLimit)
	}
	if opts.Observer != nil {
		e.observer = opts.Observer
	} else {
		e.observer = nopObserver{}
	}
	return e
}

// Registry maps service identifiers to their fuse, rate limiter and
// default retry state. The zero Registry is not usable; construct one
// with NewRegistry, or use the package-level DefaultRegistry / Start /
// Stop / Reset / Call / CallAsync / CallStream functions, which operate
// on a process-wide singleton.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	observer Observer

	startGroup singleflight.Group
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry), observer: nopObserver{}}
}

// DefaultRegistry is the process-wide registry used by the package-level
// Start/Stop/Reset/Call/CallAsync/CallStream functions.
var DefaultRegistry = NewRegistry()

// SetObserver attaches the registry's default observer, used by any
// service whose Options.Observer is unset. It does not affect services
// already registered with an explicit observer.
func (r *Registry) SetObserver(obs Observer) {
	if obs == nil {
		obs = nopObserver{}
	}
	r.mu.Lock()
	r.observer = obs
	r.mu.Unlock()
}

// Start registers a service, idempotently: a second Start for the same
// service reinstalls it with the new options rather than failing.
// Concurrent Start calls for the same service name are coalesced via
// singleflight so that N goroutines racing to lazily register the same
// dependency at process warm-up perform the installation once.
func (r *Registry) Start(service string, opts Options) error {
	if opts.RateLimit != nil {
		if err := opts.RateLimit.validate(); err != nil {
			return err
		}
	}
	if opts.Observer == nil {
		r.mu.RLock()
		obs := r.observer
		r.mu.RUnlock()
		opts.Observer = obs
	}

	_, err, _ := r.startGroup.Do(service, func() (any, error) {
		e := newEntry(service, opts)

		r.mu.Lock()
		_, existed := r.entries[service]
		r.entries[service] = e
		r.mu.Unlock()

		if existed {
			return nil, ErrAlreadyStarted
		}
		return nil, nil
	})
	// ErrAlreadyStarted is informational: Start always installs the new
	// entry. Only surface it, never mask a real error.
	if err != nil && err != ErrAlreadyStarted {
		return err
	}
	return err
}

// Stop removes a service's registration. Subsequent Call invocations for
// it return *FuseNotFoundError.
func (r *Registry) Stop(service string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[service]
	if !ok {
		return &FuseNotFoundError{Service: service}
	}
	e.live.Store(false)
	delete(r.entries, service)
	return nil
}

// Reset forces a registered service's fuse back to Ok, without touching
// its rate limiter.
func (r *Registry) Reset(service string) error {
	e, ok := r.lookup(service)
	if !ok {
		return &FuseNotFoundError{Service: service}
	}
	e.breaker.reset()
	return nil
}

// DefaultPolicyFor returns the retry policy a service was started with,
// for callers that want to reuse the service default rather than build
// their own Policy.
func (r *Registry) DefaultPolicyFor(service string) (Policy, error) {
	e, ok := r.lookup(service)
	if !ok {
		return Policy{}, &FuseNotFoundError{Service: service}
	}
	return e.policy, nil
}

func (r *Registry) lookup(service string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[service]
	return e, ok
}

// Status is a point-in-time snapshot of one service's fuse.
type Status struct {
	Service string
	Fuse    FuseStatus
}

// Snapshot asks every registered service's fuse concurrently (bounded by
// the number registered, same parallel named-fan-out shape as a health
// check aggregator) and returns each one's current status. Snapshot
// itself never blows a fuse or counts as a melt; it is a pure read.
func (r *Registry) Snapshot(ctx context.Context) map[string]Status {
	r.mu.RLock()
	entries := make(map[string]*entry, len(r.entries))
	for name, e := range r.entries {
		entries[name] = e
	}
	r.mu.RUnlock()

	results := make(map[string]Status, len(entries))
	if len(entries) == 0 {
		return results
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, e := range entries {
		wg.Add(1)
		go func(name string, e *entry) {
			defer wg.Done()
			status := e.breaker.ask(time.Now())
			mu.Lock()
			results[name] = Status{Service: name, Fuse: status}
			mu.Unlock()
		}(name, e)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return results
}

// Start registers a service with DefaultRegistry.
func Start(service string, opts Options) error { return DefaultRegistry.Start(service, opts) }

// Stop removes a service's registration from DefaultRegistry.
func Stop(service string) error { return DefaultRegistry.Stop(service) }

// Reset forces a service's fuse back to Ok in DefaultRegistry.
func Reset(service string) error { return DefaultRegistry.Reset(service) }
