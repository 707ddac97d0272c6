package deltatracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
)

func node(id string) graphmodel.Node {
	return graphmodel.Node{ID: id, Name: id, NodeType: "Entity"}
}

func edge(src, dst string) graphmodel.Edge {
	return graphmodel.Edge{SourceNodeID: src, TargetNodeID: dst, EdgeType: "RELATES_TO", Weight: 1}
}

func TestComputeDeltaFirstCallIsInitial(t *testing.T) {
	tr := New()
	d := tr.ComputeDelta([]graphmodel.Node{node("a")}, nil)
	assert.Equal(t, graphmodel.DeltaInitial, d.Operation)
	assert.Equal(t, uint64(1), d.Sequence)
	assert.Len(t, d.NodesAdded, 1)
}

func TestComputeDeltaSecondCallIsUpdate(t *testing.T) {
	tr := New()
	tr.ComputeDelta([]graphmodel.Node{node("a")}, nil)
	d := tr.ComputeDelta([]graphmodel.Node{node("a")}, nil)
	assert.Equal(t, graphmodel.DeltaUpdate, d.Operation)
	assert.True(t, d.Empty(), "identical snapshot produces no changes")
}

func TestComputeDeltaDetectsAddedRemovedUpdated(t *testing.T) {
	tr := New()
	tr.ComputeDelta([]graphmodel.Node{node("a"), node("b")}, nil)

	changed := node("a")
	changed.Summary = "new summary"
	d := tr.ComputeDelta([]graphmodel.Node{changed, node("c")}, nil)

	assert.Equal(t, []string{"b"}, d.NodesRemovedIDs)
	require.Len(t, d.NodesAdded, 1)
	assert.Equal(t, "c", d.NodesAdded[0].ID)
	require.Len(t, d.NodesUpdated, 1)
	assert.Equal(t, "a", d.NodesUpdated[0].ID)
}

func TestComputeDeltaIgnoresVolatileProperties(t *testing.T) {
	tr := New()
	a := node("a")
	a.Properties = graphmodel.Properties{"pagerank_centrality": graphmodel.Float(0.1)}
	tr.ComputeDelta([]graphmodel.Node{a}, nil)

	a2 := node("a")
	a2.Properties = graphmodel.Properties{"pagerank_centrality": graphmodel.Float(0.9)}
	d := tr.ComputeDelta([]graphmodel.Node{a2}, nil)

	assert.True(t, d.Empty(), "a change limited to a volatile property must not surface as an update")
}

func TestComputeDeltaEdgeWeightWithinToleranceIsNotAnUpdate(t *testing.T) {
	tr := New()
	tr.ComputeDelta(nil, []graphmodel.Edge{edge("a", "b")})

	e := edge("a", "b")
	e.Weight = 1.0001
	d := tr.ComputeDelta(nil, []graphmodel.Edge{e})
	assert.True(t, d.Empty())
}

func TestComputeDeltaEdgeWeightBeyondToleranceIsAnUpdate(t *testing.T) {
	tr := New()
	tr.ComputeDelta(nil, []graphmodel.Edge{edge("a", "b")})

	e := edge("a", "b")
	e.Weight = 2.0
	d := tr.ComputeDelta(nil, []graphmodel.Edge{e})
	require.Len(t, d.EdgesUpdated, 1)
}

func TestHistoryBoundedAtMaxSize(t *testing.T) {
	tr := New()
	for i := 0; i < maxHistorySize+10; i++ {
		tr.ComputeDelta([]graphmodel.Node{node("a")}, nil)
	}
	changes := tr.ChangesSince(0, 0)
	assert.Len(t, changes, maxHistorySize)
}

func TestChangesSinceFiltersBySequence(t *testing.T) {
	tr := New()
	tr.ComputeDelta([]graphmodel.Node{node("a")}, nil)
	tr.ComputeDelta([]graphmodel.Node{node("a"), node("b")}, nil)
	tr.ComputeDelta([]graphmodel.Node{node("a"), node("b"), node("c")}, nil)

	changes := tr.ChangesSince(1, 0)
	require.Len(t, changes, 2)
	assert.Equal(t, uint64(2), changes[0].Sequence)
	assert.Equal(t, uint64(3), changes[1].Sequence)
}

func TestChangesSinceRespectsLimit(t *testing.T) {
	tr := New()
	tr.ComputeDelta([]graphmodel.Node{node("a")}, nil)
	tr.ComputeDelta([]graphmodel.Node{node("a"), node("b")}, nil)
	tr.ComputeDelta([]graphmodel.Node{node("a"), node("b"), node("c")}, nil)

	changes := tr.ChangesSince(0, 1)
	require.Len(t, changes, 1)
	assert.Equal(t, uint64(1), changes[0].Sequence)
}

func TestRecordDeltaAssignsSequentialNumbers(t *testing.T) {
	tr := New()
	d1 := tr.RecordDelta(graphmodel.Delta{NodesAdded: []graphmodel.Node{node("a")}})
	d2 := tr.RecordDelta(graphmodel.Delta{NodesAdded: []graphmodel.Node{node("b")}})

	assert.Equal(t, uint64(1), d1.Sequence)
	assert.Equal(t, uint64(2), d2.Sequence)
	assert.Equal(t, graphmodel.DeltaUpdate, d1.Operation)
}

func TestRecordDeltaAppearsInChangesSince(t *testing.T) {
	tr := New()
	tr.RecordDelta(graphmodel.Delta{NodesAdded: []graphmodel.Node{node("a")}})

	changes := tr.ChangesSince(0, 0)
	require.Len(t, changes, 1)
	assert.Equal(t, uint64(1), changes[0].Sequence)
}

func TestRecordDeltaFoldsIntoStateForSubsequentComputeDelta(t *testing.T) {
	tr := New()
	tr.RecordDelta(graphmodel.Delta{NodesAdded: []graphmodel.Node{node("a")}})

	// A later full-snapshot diff must see "a" as already present, not added
	// again, confirming RecordDelta folded it into the tracker's live state.
	d := tr.ComputeDelta([]graphmodel.Node{node("a")}, nil)
	assert.Empty(t, d.NodesAdded)
}

func TestResetClearsStateAndHistory(t *testing.T) {
	tr := New()
	tr.ComputeDelta([]graphmodel.Node{node("a")}, nil)
	tr.Reset()

	nodeCount, edgeCount, seq := tr.Stats()
	assert.Zero(t, nodeCount)
	assert.Zero(t, edgeCount)
	assert.Zero(t, seq)
	assert.Empty(t, tr.ChangesSince(0, 0))
}
