// Package singleflight coordinates keyed asynchronous work so that at most one
// operation per key is in flight at a time.
//
// The first caller for a key starts the operation, every caller arriving while
// it runs joins it and receives the identical value or error. The slot for a
// key is dropped as soon as the operation returns, before results are fanned
// out, so a later call with the same key starts fresh work instead of
// replaying an old outcome.
//
// Deduplication is delegated to golang.org/x/sync/singleflight. This package
// adds generics, context-aware waiting, fire-and-forget operations and the
// ability to wait for everything in flight during teardown.
package singleflight

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Func is the unit of work run for a key. The context it receives is detached
// from any single caller's cancellation because other callers may still be
// waiting on the result.
type Func[T any] func(ctx context.Context) (T, error)

// Group runs at most one Func per key at a time. The zero value is ready to use.
type Group[T any] struct {
	flights singleflight.Group

	mu      sync.Mutex
	running int
	idle    chan struct{}
}

// Do runs fn for key, or joins the run already in flight for key. The boolean
// reports whether the result was shared with other callers.
//
// If ctx is cancelled before the result is ready Do returns ctx.Err(), the
// operation itself keeps running for anyone else attached to it.
func (g *Group[T]) Do(ctx context.Context, key string, fn Func[T]) (T, bool, error) {
	// Counted before the slot is joined so a concurrent Wait cannot miss it.
	g.track()
	detached := context.WithoutCancel(ctx)
	ch := g.flights.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		g.untrack()
		v, _ := res.Val.(T)
		return v, res.Shared, res.Err

	case <-ctx.Done():
		// The channel is buffered, but we still need to observe completion to
		// keep Wait accurate.
		go func() {
			<-ch
			g.untrack()
		}()

		var zero T
		return zero, false, ctx.Err()
	}
}

// Go starts fn for key in the background, joining an in-flight run if there
// is one. The work is registered before Go returns, so a following Wait
// covers it.
func (g *Group[T]) Go(ctx context.Context, key string, fn Func[T]) {
	g.track()
	detached := context.WithoutCancel(ctx)
	ch := g.flights.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	go func() {
		<-ch
		g.untrack()
	}()
}

// Wait blocks until every operation started through this group has completed
// or ctx is done.
func (g *Group[T]) Wait(ctx context.Context) error {
	g.mu.Lock()
	if g.running == 0 {
		g.mu.Unlock()
		return nil
	}
	idle := g.idle
	g.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight reports the number of callers currently attached to operations.
// A caller counts once it has joined or started the slot for its key.
func (g *Group[T]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

func (g *Group[T]) track() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running == 0 {
		g.idle = make(chan struct{})
	}
	g.running++
}

func (g *Group[T]) untrack() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.running--
	if g.running == 0 {
		close(g.idle)
	}
}
