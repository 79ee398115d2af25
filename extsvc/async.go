package extsvc

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
)

// Future is a handle to a Call scheduled on a background goroutine.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Wait blocks until the background call completes or ctx is done,
// whichever comes first. Calling Wait more than once, or concurrently,
// is safe; every caller observes the same result.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// CallAsync schedules Call on a background goroutine against
// DefaultRegistry and returns a Future for its result.
func CallAsync[T any](ctx context.Context, service string, policy Policy, thunk Thunk[T]) *Future[T] {
	return CallAsyncOn(ctx, DefaultRegistry, service, policy, thunk)
}

// CallAsyncOn is the Registry-scoped form of CallAsync.
func CallAsyncOn[T any](ctx context.Context, r *Registry, service string, policy Policy, thunk Thunk[T]) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = CallOn(ctx, r, service, policy, thunk)
	}()
	return f
}

// StreamOptions configures CallStream.
type StreamOptions struct {
	// MaxConcurrency bounds how many inputs are in flight at once.
	// Zero means runtime.GOMAXPROCS(0).
	MaxConcurrency int

	// Policy, when non-nil, overrides CallStream's positional policy
	// argument for every item. This resolves an ambiguity the source
	// left unspecified (an async-options argument that also carries a
	// retry policy): when both are supplied, the StreamOptions one wins.
	Policy *Policy

	// ItemTimeout, when positive, bounds each individual Call.
	ItemTimeout time.Duration
}

// StreamResult is one input's outcome from CallStream, tagged with its
// original index so callers that drain out of order can still recover
// input order.
type StreamResult[T any] struct {
	Index int
	Value T
	Err   error
}

// CallStream runs Call for every element of inputs against
// DefaultRegistry, at most opts.MaxConcurrency at a time, and returns a
// channel yielding one StreamResult per input in input order. The
// channel is closed after the last result is sent. Inputs are dispatched
// as soon as a concurrency slot frees, independent of how fast the caller
// drains the returned channel; the first result is sent only after every
// input has been dispatched, and finished results (up to len(inputs) of
// them) are buffered until their turn in input order.
func CallStream[In, Out any](ctx context.Context, inputs []In, service string, policy Policy, opts StreamOptions, mapThunk func(In) Thunk[Out]) <-chan StreamResult[Out] {
	return CallStreamOn(ctx, DefaultRegistry, inputs, service, policy, opts, mapThunk)
}

// CallStreamOn is the Registry-scoped form of CallStream.
func CallStreamOn[In, Out any](ctx context.Context, r *Registry, inputs []In, service string, policy Policy, opts StreamOptions, mapThunk func(In) Thunk[Out]) <-chan StreamResult[Out] {
	effectivePolicy := policy
	if opts.Policy != nil {
		effectivePolicy = *opts.Policy
	}

	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.GOMAXPROCS(0)
	}

	out := make(chan StreamResult[Out])

	go func() {
		defer close(out)

		sem := semaphore.NewWeighted(int64(maxConcurrency))
		resultCh := make(chan StreamResult[Out], len(inputs))

		for i, in := range inputs {
			if err := sem.Acquire(ctx, 1); err != nil {
				resultCh <- StreamResult[Out]{Index: i, Err: ctx.Err()}
				continue
			}
			go func(i int, in In) {
				defer sem.Release(1)
				resultCh <- runStreamItem(ctx, r, service, effectivePolicy, opts, i, in, mapThunk)
			}(i, in)
		}

		// Reorder: buffer results until the next-in-order index is
		// ready. resultCh and pending can each hold up to len(inputs)
		// results.
		pending := make(map[int]StreamResult[Out], maxConcurrency)
		next := 0
		for received := 0; received < len(inputs); received++ {
			r := <-resultCh
			pending[r.Index] = r
			for {
				v, ok := pending[next]
				if !ok {
					break
				}
				out <- v
				delete(pending, next)
				next++
			}
		}
	}()

	return out
}

func runStreamItem[In, Out any](ctx context.Context, r *Registry, service string, policy Policy, opts StreamOptions, index int, in In, mapThunk func(In) Thunk[Out]) StreamResult[Out] {
	itemCtx := ctx
	var cancel context.CancelFunc
	if opts.ItemTimeout > 0 {
		itemCtx, cancel = context.WithTimeout(ctx, opts.ItemTimeout)
		defer cancel()
	}

	result := StreamResult[Out]{Index: index}
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				result.Err = &panicSignal{value: rec}
			}
		}()
		result.Value, result.Err = CallOn(itemCtx, r, service, policy, mapThunk(in))
	}()
	return result
}
