// Package batch runs per-record pipeline stages across a bounded worker
// pool, with a shared rate limiter gating store round trips.
package batch

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Pool fans work items out over a fixed number of workers.
type Pool struct {
	workers int
	limiter *rate.Limiter
}

// New creates a pool. workers below 1 is treated as 1. opsPerSecond caps how
// often workers may start an item; zero or negative means unlimited.
func New(workers int, opsPerSecond float64) *Pool {
	if workers < 1 {
		workers = 1
	}
	var limiter *rate.Limiter
	if opsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opsPerSecond), 1)
	}
	return &Pool{workers: workers, limiter: limiter}
}

// Run applies fn to every item. The first error cancels the remaining work
// and is returned; items already being processed finish. Returns the
// context's error when it is cancelled externally.
func Run[T any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan T)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				if p.limiter != nil {
					if err := p.limiter.Wait(ctx); err != nil {
						fail(err)
						return
					}
				}
				if err := fn(ctx, item); err != nil {
					fail(err)
					return
				}
			}
		}()
	}

feed:
	for _, item := range items {
		select {
		case tasks <- item:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
