package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Coalescer ensures that concurrent callers requesting the same key share a
// single in-flight computation (spec.md §4.5.2), via golang.org/x/sync/
// singleflight — the same rendezvous-group primitive the teacher's
// candidate-fetch fan-out (internal/rag/retrieve/candidates.go) uses for
// parallel source calls, applied here to request deduplication instead.
//
// singleflight removes a key's entry as soon as the shared call returns, so
// a caller that arrives after completion runs fn again: no computed value is
// retained. Do additionally schedules a Forget of the key 100ms after each
// return.
type Coalescer struct {
	group      singleflight.Group
	mu         sync.Mutex
	pending    map[string]time.Time
	graceAfter time.Duration
}

func NewCoalescer() *Coalescer {
	return &Coalescer{
		pending:    make(map[string]time.Time),
		graceAfter: 100 * time.Millisecond,
	}
}

// Do runs fn for key, sharing the result with any concurrent callers for the
// same key; exactly one caller actually executes fn.
func (c *Coalescer) Do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		return fn(ctx)
	})
	c.scheduleForget(key)
	return v, err
}

func (c *Coalescer) scheduleForget(key string) {
	c.mu.Lock()
	c.pending[key] = time.Now().Add(c.graceAfter)
	c.mu.Unlock()

	time.AfterFunc(c.graceAfter, func() {
		c.mu.Lock()
		deadline, ok := c.pending[key]
		if ok && !time.Now().Before(deadline) {
			delete(c.pending, key)
			c.group.Forget(key)
		}
		c.mu.Unlock()
	})
}
