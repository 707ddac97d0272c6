package centrality

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/platform/log"
)

func TestEngineRecomputeCachesAndWritesBack(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.nodes = []graphmodel.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	adapter.edges = []graphmodel.Edge{
		{SourceNodeID: "a", TargetNodeID: "b"},
		{SourceNodeID: "b", TargetNodeID: "c"},
		{SourceNodeID: "c", TargetNodeID: "a"},
	}

	e := NewEngine(adapter, log.New("error", "test"))
	require.NoError(t, e.Recompute(context.Background()))

	scores := e.Scores()
	assert.Len(t, scores.PageRank, 3)
	assert.Equal(t, scores.Importance["a"], e.Importance("a"))

	assert.Contains(t, adapter.written["a"], "score")
	assert.Contains(t, adapter.written["a"], "degree_centrality")
	assert.Contains(t, adapter.written["a"], "betweenness")
	assert.Contains(t, adapter.written["a"], "eigenvector_centrality")
}

func TestEngineImportanceBeforeRecomputeIsZero(t *testing.T) {
	e := NewEngine(newFakeAdapter(), log.New("error", "test"))
	assert.Equal(t, 0.0, e.Importance("anything"))
}

func TestEngineCurrentRelevanceScoresReadsProperty(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.nodeProperties = map[string]graphmodel.Properties{
		"a": {"relevance_score": graphmodel.Float(0.42)},
	}
	e := NewEngine(adapter, log.New("error", "test"))

	scores, err := e.CurrentRelevanceScores(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 0.42, scores["a"])
	assert.NotContains(t, scores, "b", "a node with no relevance_score property contributes no entry")
}
