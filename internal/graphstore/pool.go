// Package graphstore is the Graph Adapter (SPEC_FULL.md §4.1): a narrow
// capability set over the external property-graph store, transported over
// the Redis wire protocol's GRAPH.QUERY command (the FalkorDB/RedisGraph
// convention), grounded on original_source/graphiti-search-rs's
// falkor/client_v2.rs and graph-visualizer-rust/src/main.rs.
package graphstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pool is a bounded, FIFO-checkout pool of Redis connections, grounded on
// internal/persistence/databases/pool.go's pgxpool-backed OpenPool and on
// the original's deadpool-style create/recycle-via-ping client manager
// (graphiti-centrality-rs/src/client.rs).
type Pool struct {
	addr     string
	password string
	db       int

	mu      sync.Mutex
	idle    []*redis.Client
	inUse   int
	max     int
	waiters chan struct{}
}

// NewPool creates a Pool with at most max concurrently borrowed
// connections. Connections are created lazily on first borrow.
func NewPool(addr, password string, db, max int) *Pool {
	if max <= 0 {
		max = 32
	}
	return &Pool{
		addr:     addr,
		password: password,
		db:       db,
		max:      max,
		waiters:  make(chan struct{}, max),
	}
}

// Borrow checks out a connection, pinging it first and discarding it if
// dead (per spec.md §4.1: "On borrow, the pool pings the connection; dead
// connections are replaced"). The returned release func MUST be called on
// every exit path.
func (p *Pool) Borrow(ctx context.Context) (*redis.Client, func(), error) {
	select {
	case p.waiters <- struct{}{}:
	case <-ctx.Done():
		return nil, func() {}, fmt.Errorf("graphstore: pool checkout: %w", ctx.Err())
	}

	p.mu.Lock()
	var c *redis.Client
	for len(p.idle) > 0 {
		candidate := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		if pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second); true {
			err := candidate.Ping(pingCtx).Err()
			cancel()
			if err == nil {
				c = candidate
				break
			}
			_ = candidate.Close()
		}
	}
	p.mu.Unlock()

	if c == nil {
		c = redis.NewClient(&redis.Options{
			Addr:     p.addr,
			Password: p.password,
			DB:       p.db,
		})
	}

	p.mu.Lock()
	p.inUse++
	p.mu.Unlock()

	release := func() {
		p.mu.Lock()
		p.inUse--
		p.idle = append(p.idle, c)
		p.mu.Unlock()
		<-p.waiters
	}
	return c, release, nil
}

// Close drains and closes every idle connection. In-flight borrows are not
// interrupted; callers are expected to have stopped issuing new requests
// before calling Close (spec.md §9's teardown-order guarantee).
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, c := range p.idle {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.idle = nil
	return firstErr
}

// Stats reports current pool occupancy, used for health/metrics endpoints.
func (p *Pool) Stats() (inUse, idle, max int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse, len(p.idle), p.max
}
