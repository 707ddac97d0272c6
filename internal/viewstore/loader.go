package viewstore

import (
	"context"

	"github.com/oculairmedia/graphiti/internal/deltatracker"
	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/graphstore"
)

// fullGraphLimit bounds a single reload fetch; the view store is a
// filtered mirror, not an unbounded cache of the entire store.
const fullGraphLimit = 200_000

// Loader reloads the view store's entire node/edge table from the Graph
// Adapter and reports the resulting change as a Delta, implementing
// reconciler.Loader.
type Loader struct {
	adapter graphstore.Adapter
	store   *Store
	tracker *deltatracker.Tracker
	mirror  *ClickHouseMirror
}

func NewLoader(adapter graphstore.Adapter, store *Store, tracker *deltatracker.Tracker, mirror *ClickHouseMirror) *Loader {
	return &Loader{adapter: adapter, store: store, tracker: tracker, mirror: mirror}
}

// Reload fetches a fresh snapshot, replaces the view store's tables, and
// runs it through the delta tracker to compute the change relative to the
// last reload.
func (l *Loader) Reload(ctx context.Context) (graphmodel.Delta, error) {
	nodes, edges, err := l.adapter.LoadFullGraph(ctx, fullGraphLimit)
	if err != nil {
		return graphmodel.Delta{}, err
	}

	l.store.LoadInitial(nodes, edges)
	delta := l.tracker.ComputeDelta(nodes, edges)
	l.mirror.Mirror(ctx, delta)
	return delta, nil
}
