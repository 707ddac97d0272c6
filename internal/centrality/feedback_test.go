package centrality

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/platform/log"
)

// fakeAdapter is a minimal graphstore.Adapter double recording
// WriteNodeProperty calls and serving a configurable graph/property set;
// every unused method returns zero values.
type fakeAdapter struct {
	written         map[string]map[string]float64
	nodes           []graphmodel.Node
	edges           []graphmodel.Edge
	nodeProperties  map[string]graphmodel.Properties
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{written: map[string]map[string]float64{}}
}

func (f *fakeAdapter) FulltextSearchNodes(context.Context, string, []string, int) ([]graphmodel.Node, error) {
	return nil, nil
}
func (f *fakeAdapter) FulltextSearchEdges(context.Context, string, []string, int) ([]graphmodel.Edge, error) {
	return nil, nil
}
func (f *fakeAdapter) FulltextSearchEpisodes(context.Context, string, []string, int) ([]graphmodel.Episode, error) {
	return nil, nil
}
func (f *fakeAdapter) FulltextSearchCommunities(context.Context, string, []string, int) ([]graphmodel.Community, error) {
	return nil, nil
}
func (f *fakeAdapter) SimilaritySearchNodes(context.Context, []float32, float32, []string, int) ([]graphmodel.Node, []float64, error) {
	return nil, nil, nil
}
func (f *fakeAdapter) SimilaritySearchEdges(context.Context, []float32, float32, []string, int) ([]graphmodel.Edge, []float64, error) {
	return nil, nil, nil
}
func (f *fakeAdapter) BFSSearchNodes(context.Context, []string, int, int) ([]graphmodel.Node, error) {
	return nil, nil
}
func (f *fakeAdapter) LoadNodesByIDs(_ context.Context, ids []string) ([]graphmodel.Node, error) {
	out := make([]graphmodel.Node, 0, len(ids))
	for _, id := range ids {
		n := graphmodel.Node{ID: id}
		if props, ok := f.nodeProperties[id]; ok {
			n.Properties = props
		}
		out = append(out, n)
	}
	return out, nil
}
func (f *fakeAdapter) LoadEdgesByPairs(context.Context, []struct{ Source, Target string }) ([]graphmodel.Edge, error) {
	return nil, nil
}
func (f *fakeAdapter) CountNodes(context.Context, []string) (int64, error) { return 0, nil }
func (f *fakeAdapter) CountEdges(context.Context, []string) (int64, error) { return 0, nil }
func (f *fakeAdapter) WriteNodeProperty(_ context.Context, nodeID, property string, value float64) error {
	if f.written[nodeID] == nil {
		f.written[nodeID] = map[string]float64{}
	}
	f.written[nodeID][property] = value
	return nil
}
func (f *fakeAdapter) WriteNodeSummary(context.Context, string, string) error { return nil }
func (f *fakeAdapter) LoadFullGraph(context.Context, int) ([]graphmodel.Node, []graphmodel.Edge, error) {
	return f.nodes, f.edges, nil
}
func (f *fakeAdapter) WriteFeedback(_ context.Context, nodeID string, blendedScore float64, source string, at time.Time) error {
	if f.written[nodeID] == nil {
		f.written[nodeID] = map[string]float64{}
	}
	f.written[nodeID]["relevance_score"] = blendedScore
	return nil
}
func (f *fakeAdapter) NativePageRank(context.Context, []string, int, float64) (map[string]float64, error) {
	return nil, errors.New("native pagerank not supported")
}
func (f *fakeAdapter) NativeBetweenness(context.Context, []string) (map[string]float64, error) {
	return nil, errors.New("native betweenness not supported")
}

func TestEMABlendWithNoPriorScoreUsesRawScore(t *testing.T) {
	assert.Equal(t, 0.7, emaBlend(nil, 0.7))
}

func TestEMABlendWithPriorScoreWeighsOldHigher(t *testing.T) {
	old := 0.2
	blended := emaBlend(&old, 1.0)
	assert.InDelta(t, 0.2*0.7+1.0*0.3, blended, 1e-9)
}

func TestFeedbackProcessWritesBlendedScores(t *testing.T) {
	adapter := newFakeAdapter()
	fp := NewFeedbackProcessor(adapter, nil, log.New("error", "test"))

	resp, err := fp.Process(context.Background(), FeedbackRequest{
		QueryID:      "q1",
		MemoryScores: map[string]float64{"a": 0.9},
		Source:       SourceModel,
	}, map[string]float64{"a": 0.3})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount)
	assert.InDelta(t, 0.3*0.7+0.9*0.3, adapter.written["a"]["relevance_score"], 1e-9)
}

func TestFeedbackProcessTriggersRecomputeAboveThreshold(t *testing.T) {
	adapter := newFakeAdapter()
	recomputed := false
	fp := NewFeedbackProcessor(adapter, func(context.Context) error {
		recomputed = true
		return nil
	}, log.New("error", "test"))

	scores := map[string]float64{"a": 0.5, "b": 0.5, "c": 0.5, "d": 0.5, "e": 0.5, "f": 0.5}
	_, err := fp.Process(context.Background(), FeedbackRequest{MemoryScores: scores}, nil)

	require.NoError(t, err)
	assert.True(t, recomputed, "a batch touching more than recomputeThreshold nodes must trigger recompute")
}

func TestFeedbackProcessDoesNotRecomputeBelowThreshold(t *testing.T) {
	adapter := newFakeAdapter()
	recomputed := false
	fp := NewFeedbackProcessor(adapter, func(context.Context) error {
		recomputed = true
		return nil
	}, log.New("error", "test"))

	_, err := fp.Process(context.Background(), FeedbackRequest{MemoryScores: map[string]float64{"a": 0.5}}, nil)

	require.NoError(t, err)
	assert.False(t, recomputed)
}
