// Package deltatracker is the Delta Tracker (spec.md §4.11): compares
// successive node/edge snapshots and records the differences as a bounded
// history of sequenced deltas, grounded on
// original_source/graph-visualizer-rust/src/delta_tracker.rs.
package deltatracker

import (
	"math"
	"sync"
	"time"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
)

const maxHistorySize = 100

// volatileProperties are excluded from the meaningful-fields equivalence
// check: computed centrality metrics and timestamps churn independently of
// any change a subscriber actually cares about.
var volatileProperties = map[string]struct{}{
	"created_at":              {},
	"degree_centrality":       {},
	"pagerank_centrality":     {},
	"betweenness_centrality":  {},
	"eigenvector_centrality":  {},
}

// Tracker holds the last-seen snapshot and a bounded history of deltas
// computed against it.
type Tracker struct {
	mu       sync.RWMutex
	nodes    map[string]graphmodel.Node
	edges    map[graphmodel.EdgeKey]graphmodel.Edge
	sequence uint64
	history  []graphmodel.Delta
}

func New() *Tracker {
	return &Tracker{
		nodes: map[string]graphmodel.Node{},
		edges: map[graphmodel.EdgeKey]graphmodel.Edge{},
	}
}

// nowMillis is overridable in tests; production callers never need to set it.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// ComputeDelta diffs the incoming snapshot against the tracker's current
// state, replaces the state, appends the delta to history (trimmed to
// maxHistorySize), and returns it.
func (t *Tracker) ComputeDelta(nodes []graphmodel.Node, edges []graphmodel.Edge) graphmodel.Delta {
	t.mu.Lock()
	defer t.mu.Unlock()

	newNodes := make(map[string]graphmodel.Node, len(nodes))
	for _, n := range nodes {
		newNodes[n.ID] = n
	}
	newEdges := make(map[graphmodel.EdgeKey]graphmodel.Edge, len(edges))
	for _, e := range edges {
		newEdges[graphmodel.EdgeKey{Source: e.SourceNodeID, Target: e.TargetNodeID, Type: e.EdgeType}] = e
	}

	var delta graphmodel.Delta

	for id, n := range newNodes {
		if old, ok := t.nodes[id]; ok {
			if !nodesEqual(old, n) {
				delta.NodesUpdated = append(delta.NodesUpdated, n)
			}
		} else {
			delta.NodesAdded = append(delta.NodesAdded, n)
		}
	}
	for id := range t.nodes {
		if _, ok := newNodes[id]; !ok {
			delta.NodesRemovedIDs = append(delta.NodesRemovedIDs, id)
		}
	}

	for key, e := range newEdges {
		if old, ok := t.edges[key]; ok {
			if !edgesEqual(old, e) {
				delta.EdgesUpdated = append(delta.EdgesUpdated, e)
			}
		} else {
			delta.EdgesAdded = append(delta.EdgesAdded, e)
		}
	}
	for key := range t.edges {
		if _, ok := newEdges[key]; !ok {
			delta.EdgesRemovedPairs = append(delta.EdgesRemovedPairs, key)
		}
	}

	t.nodes = newNodes
	t.edges = newEdges
	t.sequence++

	delta.Sequence = t.sequence
	delta.TimestampMillis = nowMillis()
	if t.sequence == 1 {
		delta.Operation = graphmodel.DeltaInitial
	} else {
		delta.Operation = graphmodel.DeltaUpdate
	}

	t.history = append(t.history, delta)
	if len(t.history) > maxHistorySize {
		t.history = t.history[len(t.history)-maxHistorySize:]
	}

	return delta
}

// RecordDelta accepts a delta already computed in full against the live
// mutation queue (viewstore.Store.Drain, rather than a snapshot diff),
// assigns it the next sequence number, stamps its timestamp, folds it into
// the tracker's own node/edge state so a later ComputeDelta diffs correctly,
// and appends it to history so ChangesSince sees drain-tick deltas too.
func (t *Tracker) RecordDelta(delta graphmodel.Delta) graphmodel.Delta {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sequence++
	delta.Sequence = t.sequence
	delta.TimestampMillis = nowMillis()
	if delta.Operation == "" {
		delta.Operation = graphmodel.DeltaUpdate
	}

	for _, n := range delta.NodesAdded {
		t.nodes[n.ID] = n
	}
	for _, n := range delta.NodesUpdated {
		t.nodes[n.ID] = n
	}
	for _, id := range delta.NodesRemovedIDs {
		delete(t.nodes, id)
	}
	for _, e := range delta.EdgesAdded {
		t.edges[graphmodel.EdgeKey{Source: e.SourceNodeID, Target: e.TargetNodeID, Type: e.EdgeType}] = e
	}
	for _, e := range delta.EdgesUpdated {
		t.edges[graphmodel.EdgeKey{Source: e.SourceNodeID, Target: e.TargetNodeID, Type: e.EdgeType}] = e
	}
	for _, k := range delta.EdgesRemovedPairs {
		delete(t.edges, k)
	}

	t.history = append(t.history, delta)
	if len(t.history) > maxHistorySize {
		t.history = t.history[len(t.history)-maxHistorySize:]
	}

	return delta
}

// Reset clears all tracked state and history, as on reconciler-triggered
// full reloads.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nodes = map[string]graphmodel.Node{}
	t.edges = map[graphmodel.EdgeKey]graphmodel.Edge{}
	t.sequence = 0
	t.history = nil
}

// Stats returns the current node/edge counts and sequence number.
func (t *Tracker) Stats() (nodeCount, edgeCount int, sequence uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes), len(t.edges), t.sequence
}

// CurrentSequence returns the most recent sequence number issued.
func (t *Tracker) CurrentSequence() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sequence
}

// ChangesSince returns every recorded delta with sequence strictly greater
// than since, oldest first, capped at limit (0 means unbounded).
func (t *Tracker) ChangesSince(since uint64, limit int) []graphmodel.Delta {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]graphmodel.Delta, 0)
	for _, d := range t.history {
		if d.Sequence > since {
			out = append(out, d)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

func nodesEqual(a, b graphmodel.Node) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.NodeType == b.NodeType &&
		a.Summary == b.Summary &&
		a.Properties.Equal(b.Properties, volatileProperties)
}

func edgesEqual(a, b graphmodel.Edge) bool {
	const weightTolerance = 0.001
	return a.SourceNodeID == b.SourceNodeID &&
		a.TargetNodeID == b.TargetNodeID &&
		a.EdgeType == b.EdgeType &&
		math.Abs(a.Weight-b.Weight) < weightTolerance
}
