package viewstore

import (
	"sort"
	"sync"
	"time"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
)

// pendingEdge is an edge queued for insertion whose endpoints were not (yet)
// present in the node table, grounded on duckdb_store.rs's PendingEdge:
// retried on every Drain until both endpoints resolve, the retry budget is
// exhausted, or it goes stale.
type pendingEdge struct {
	edge       graphmodel.Edge
	retryCount int
	firstSeen  time.Time
	lastRetry  time.Time
}

const (
	maxPendingRetries = 10
	pendingStaleAfter = 5 * time.Minute
)

// mutationQueue buffers pending writes between Drain ticks, the Go
// analogue of duckdb_store.rs's UpdateQueue.
type mutationQueue struct {
	nodesToAdd    []graphmodel.Node
	nodesToUpdate map[string]graphmodel.Node
	edgesToAdd    []graphmodel.Edge
	pendingEdges  []pendingEdge
	nodesDelete   []string
	edgesDelete   []graphmodel.EdgeKey
}

func newMutationQueue() *mutationQueue {
	return &mutationQueue{nodesToUpdate: map[string]graphmodel.Node{}}
}

func (q *mutationQueue) empty() bool {
	return len(q.nodesToAdd) == 0 && len(q.nodesToUpdate) == 0 &&
		len(q.edgesToAdd) == 0 && len(q.pendingEdges) == 0 &&
		len(q.nodesDelete) == 0 && len(q.edgesDelete) == 0
}

// Store is the Materialized Graph View's columnar table pair plus its
// mutation queue, protected by a single mutex (spec.md §4.9: mutations and
// reads of the same generation never interleave).
type Store struct {
	mu sync.Mutex

	nodes    map[string]NodeRow
	nodeIdx  []string // node IDs, dense-index order
	edges    []EdgeRow
	queue    *mutationQueue
	nowFn    func() time.Time
}

func New() *Store {
	return &Store{
		nodes: map[string]NodeRow{},
		queue: newMutationQueue(),
		nowFn: time.Now,
	}
}

// LoadInitial atomically replaces the entire view, per spec.md §4.9's
// "atomic TRUNCATE+reload" requirement: nodes are sorted by ID for
// deterministic dense-index assignment across reloads.
func (s *Store) LoadInitial(nodes []graphmodel.Node, edges []graphmodel.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]graphmodel.Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	s.nodes = make(map[string]NodeRow, len(sorted))
	s.nodeIdx = make([]string, 0, len(sorted))
	idxOf := make(map[string]uint32, len(sorted))

	for i, n := range sorted {
		row := newNodeRow(uint32(i), n)
		s.nodes[n.ID] = row
		s.nodeIdx = append(s.nodeIdx, n.ID)
		idxOf[n.ID] = uint32(i)
	}

	edgeRows := make([]EdgeRow, 0, len(edges))
	for _, e := range edges {
		si, sok := idxOf[e.SourceNodeID]
		ti, tok := idxOf[e.TargetNodeID]
		if sok && tok {
			edgeRows = append(edgeRows, newEdgeRow(e, si, ti))
		}
	}
	s.edges = edgeRows
	s.queue = newMutationQueue()
}

// QueueNodes enqueues new nodes for the next Drain.
func (s *Store) QueueNodes(nodes []graphmodel.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.nodesToAdd = append(s.queue.nodesToAdd, nodes...)
}

// QueueNodeUpdate enqueues a property update to an existing node.
func (s *Store) QueueNodeUpdate(n graphmodel.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.nodesToUpdate[n.ID] = n
}

// QueueEdges enqueues new edges; endpoints not yet present in the node
// table are buffered as pending rather than dropped.
func (s *Store) QueueEdges(edges []graphmodel.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.edgesToAdd = append(s.queue.edgesToAdd, edges...)
}

// QueueNodeDeletions enqueues node removals (and their incident edges).
func (s *Store) QueueNodeDeletions(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.nodesDelete = append(s.queue.nodesDelete, ids...)
}

// QueueEdgeDeletions enqueues edge removals by (source, target, type) key.
func (s *Store) QueueEdgeDeletions(keys []graphmodel.EdgeKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.edgesDelete = append(s.queue.edgesDelete, keys...)
}

// Drain applies every queued mutation atomically and returns the resulting
// Delta, or (Delta{}, false) if nothing was queued or the queued mutations
// changed nothing. Orphan edges whose
// endpoints still don't resolve are retried next Drain, up to
// maxPendingRetries or pendingStaleAfter, per duckdb_store.rs's
// process_updates.
func (s *Store) Drain() (graphmodel.Delta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.empty() {
		return graphmodel.Delta{}, false
	}

	now := s.nowFn()
	delta := graphmodel.Delta{Operation: graphmodel.DeltaUpdate, TimestampMillis: now.UnixMilli()}

	if len(s.queue.nodesToAdd) > 0 {
		added := s.queue.nodesToAdd
		s.queue.nodesToAdd = nil
		sort.Slice(added, func(i, j int) bool { return added[i].ID < added[j].ID })
		nextIdx := uint32(len(s.nodeIdx))
		for _, n := range added {
			row := newNodeRow(nextIdx, n)
			s.nodes[n.ID] = row
			s.nodeIdx = append(s.nodeIdx, n.ID)
			nextIdx++
			delta.NodesAdded = append(delta.NodesAdded, n)
		}
	}

	if len(s.queue.nodesToUpdate) > 0 {
		for id, n := range s.queue.nodesToUpdate {
			if existing, ok := s.nodes[id]; ok {
				updated := newNodeRow(existing.Idx, n)
				s.nodes[id] = updated
				delta.NodesUpdated = append(delta.NodesUpdated, n)
			}
		}
		s.queue.nodesToUpdate = map[string]graphmodel.Node{}
	}

	idxOf := func(id string) (uint32, bool) {
		row, ok := s.nodes[id]
		return row.Idx, ok
	}

	if len(s.queue.edgesToAdd) > 0 {
		candidates := s.queue.edgesToAdd
		s.queue.edgesToAdd = nil
		for _, e := range candidates {
			si, sok := idxOf(e.SourceNodeID)
			ti, tok := idxOf(e.TargetNodeID)
			if sok && tok {
				s.edges = append(s.edges, newEdgeRow(e, si, ti))
				delta.EdgesAdded = append(delta.EdgesAdded, e)
			} else {
				s.queue.pendingEdges = append(s.queue.pendingEdges, pendingEdge{edge: e, firstSeen: now, lastRetry: now})
			}
		}
	}

	if len(s.queue.pendingEdges) > 0 {
		pending := s.queue.pendingEdges
		s.queue.pendingEdges = nil
		for _, p := range pending {
			if now.Sub(p.firstSeen) > pendingStaleAfter {
				continue
			}
			if p.retryCount >= maxPendingRetries {
				continue
			}
			si, sok := idxOf(p.edge.SourceNodeID)
			ti, tok := idxOf(p.edge.TargetNodeID)
			if sok && tok {
				s.edges = append(s.edges, newEdgeRow(p.edge, si, ti))
				delta.EdgesAdded = append(delta.EdgesAdded, p.edge)
				continue
			}
			p.retryCount++
			p.lastRetry = now
			s.queue.pendingEdges = append(s.queue.pendingEdges, p)
		}
	}

	if len(s.queue.nodesDelete) > 0 {
		ids := s.queue.nodesDelete
		s.queue.nodesDelete = nil
		toDelete := map[string]struct{}{}
		for _, id := range ids {
			if _, ok := s.nodes[id]; ok {
				delete(s.nodes, id)
				toDelete[id] = struct{}{}
				delta.NodesRemovedIDs = append(delta.NodesRemovedIDs, id)
			}
		}
		s.nodeIdx = filterOut(s.nodeIdx, toDelete)
		s.edges = filterEdgesByEndpoint(s.edges, toDelete, &delta)
	}

	if len(s.queue.edgesDelete) > 0 {
		keys := s.queue.edgesDelete
		s.queue.edgesDelete = nil
		s.edges = filterEdgesByKey(s.edges, keys, &delta)
	}

	if delta.Empty() {
		return graphmodel.Delta{}, false
	}
	return delta, true
}

func filterOut(ids []string, remove map[string]struct{}) []string {
	out := ids[:0]
	for _, id := range ids {
		if _, skip := remove[id]; !skip {
			out = append(out, id)
		}
	}
	return out
}

func filterEdgesByEndpoint(edges []EdgeRow, removedNodes map[string]struct{}, delta *graphmodel.Delta) []EdgeRow {
	out := edges[:0]
	for _, e := range edges {
		_, srcRemoved := removedNodes[e.Source]
		_, tgtRemoved := removedNodes[e.Target]
		if srcRemoved || tgtRemoved {
			delta.EdgesRemovedPairs = append(delta.EdgesRemovedPairs, graphmodel.EdgeKey{Source: e.Source, Target: e.Target, Type: e.EdgeType})
			continue
		}
		out = append(out, e)
	}
	return out
}

func filterEdgesByKey(edges []EdgeRow, keys []graphmodel.EdgeKey, delta *graphmodel.Delta) []EdgeRow {
	keySet := map[graphmodel.EdgeKey]struct{}{}
	for _, k := range keys {
		keySet[k] = struct{}{}
	}
	out := edges[:0]
	for _, e := range edges {
		k := graphmodel.EdgeKey{Source: e.Source, Target: e.Target, Type: e.EdgeType}
		if _, match := keySet[k]; match {
			delta.EdgesRemovedPairs = append(delta.EdgesRemovedPairs, k)
			continue
		}
		out = append(out, e)
	}
	return out
}

// Nodes returns a snapshot of every node row, in dense-index order.
func (s *Store) Nodes() []NodeRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]NodeRow, 0, len(s.nodeIdx))
	for _, id := range s.nodeIdx {
		out = append(out, s.nodes[id])
	}
	return out
}

// Edges returns a snapshot of every edge row.
func (s *Store) Edges() []EdgeRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EdgeRow, len(s.edges))
	copy(out, s.edges)
	return out
}

// Counts returns the current node and edge counts, used by the reconciler's
// divergence check (spec.md §4.13).
func (s *Store) Counts() (nodeCount, edgeCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodeIdx), len(s.edges)
}

// NodeByID looks up a single node row by identifier.
func (s *Store) NodeByID(id string) (NodeRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.nodes[id]
	return row, ok
}
