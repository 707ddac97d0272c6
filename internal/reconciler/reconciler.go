// Package reconciler is the periodic consistency check between the
// Materialized Graph View and the Graph Adapter (spec.md §4.13): new
// behavior synthesized from the stats-polling pattern in
// original_source/graph-visualizer-rust/src/main.rs (no explicit
// reconciler loop exists in the original).
package reconciler

import (
	"context"
	"time"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/graphstore"
	"github.com/oculairmedia/graphiti/internal/platform/log"
)

const defaultInterval = 5 * time.Second

// Loader fetches a fresh full snapshot and applies it, returning the
// resulting delta (used for the post-reload broadcast).
type Loader interface {
	Reload(ctx context.Context) (graphmodel.Delta, error)
}

// CacheInvalidator clears cached responses after a divergence-triggered
// reload, so stale search/centrality results aren't served against a view
// that has since moved.
type CacheInvalidator interface {
	ClearAll(ctx context.Context, keyPrefix string) error
}

// Broadcaster notifies connected clients after a reconciliation reload.
type Broadcaster interface {
	BroadcastDelta(delta graphmodel.Delta)
}

// Reconciler polls the Graph Adapter's node/edge counts against the view
// store's and triggers a full reload when they diverge.
type Reconciler struct {
	adapter  graphstore.Adapter
	view     CountsSource
	loader   Loader
	cache    CacheInvalidator
	bcast    Broadcaster
	interval time.Duration
	log      log.Logger
}

// CountsSource reports the view store's current node/edge counts.
type CountsSource interface {
	Counts() (nodeCount, edgeCount int)
}

type Option func(*Reconciler)

func WithInterval(d time.Duration) Option { return func(r *Reconciler) { r.interval = d } }
func WithCache(c CacheInvalidator) Option { return func(r *Reconciler) { r.cache = c } }
func WithBroadcaster(b Broadcaster) Option { return func(r *Reconciler) { r.bcast = b } }

func New(adapter graphstore.Adapter, view CountsSource, loader Loader, logger log.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{adapter: adapter, view: view, loader: loader, interval: defaultInterval, log: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled. Intended to be launched in its own
// goroutine by the owning service's main.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reconciler) tick(ctx context.Context) {
	adapterNodeCount, err := r.adapter.CountNodes(ctx, nil)
	if err != nil {
		r.log.Warn().Err(err).Msg("reconciler: count nodes failed")
		return
	}
	adapterEdgeCount, err := r.adapter.CountEdges(ctx, nil)
	if err != nil {
		r.log.Warn().Err(err).Msg("reconciler: count edges failed")
		return
	}

	viewNodeCount, viewEdgeCount := r.view.Counts()

	if int(adapterNodeCount) == viewNodeCount && int(adapterEdgeCount) == viewEdgeCount {
		return
	}

	r.log.Info().
		Int("view_nodes", viewNodeCount).Int64("adapter_nodes", adapterNodeCount).
		Int("view_edges", viewEdgeCount).Int64("adapter_edges", adapterEdgeCount).
		Msg("reconciler: divergence detected, reloading view")

	delta, err := r.loader.Reload(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("reconciler: reload failed")
		return
	}

	if r.cache != nil {
		if err := r.cache.ClearAll(ctx, ""); err != nil {
			r.log.Warn().Err(err).Msg("reconciler: cache invalidation failed")
		}
	}
	if r.bcast != nil && !delta.Empty() {
		r.bcast.BroadcastDelta(delta)
	}
}
