// Package workerpool bounds the concurrency of tasks run off the calling
// goroutine; the orchestrator runs its per-kind searches on it. The
// centrality algorithms (PageRank and the rest) and batch cosine scoring do
// not run on this pool. It uses the same semaphore-over-errgroup shape
// internal/rag/retrieve/candidates.go used for parallel candidate fetches.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of concurrently running tasks submitted via Run or Submit.
type Pool struct {
	sem chan struct{}
}

// New creates a Pool allowing at most size concurrent tasks.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Run executes fns concurrently, bounded by the pool size, and returns the
// first error encountered (if any), cancelling ctx for the remaining tasks.
func (p *Pool) Run(ctx context.Context, fns ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error {
			select {
			case p.sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-p.sem }()
			return fn(gctx)
		})
	}
	return g.Wait()
}

// Submit runs a single CPU-bound task on the pool, blocking until a slot is
// free or ctx is cancelled.
func (p *Pool) Submit(ctx context.Context, fn func() error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()
	return fn()
}
