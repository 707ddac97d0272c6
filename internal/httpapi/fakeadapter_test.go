package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
)

// fakeCentralityAdapter is a full graphstore.Adapter double shared by the
// centrality and graph-view server tests in this package.
type fakeCentralityAdapter struct {
	written        map[string]map[string]float64
	nodes          []graphmodel.Node
	edges          []graphmodel.Edge
	nodeProperties map[string]graphmodel.Properties
	summaries      map[string]string
}

func newFakeCentralityAdapter() *fakeCentralityAdapter {
	return &fakeCentralityAdapter{written: map[string]map[string]float64{}, summaries: map[string]string{}}
}

func (f *fakeCentralityAdapter) FulltextSearchNodes(context.Context, string, []string, int) ([]graphmodel.Node, error) {
	return nil, nil
}
func (f *fakeCentralityAdapter) FulltextSearchEdges(context.Context, string, []string, int) ([]graphmodel.Edge, error) {
	return nil, nil
}
func (f *fakeCentralityAdapter) FulltextSearchEpisodes(context.Context, string, []string, int) ([]graphmodel.Episode, error) {
	return nil, nil
}
func (f *fakeCentralityAdapter) FulltextSearchCommunities(context.Context, string, []string, int) ([]graphmodel.Community, error) {
	return nil, nil
}
func (f *fakeCentralityAdapter) SimilaritySearchNodes(context.Context, []float32, float32, []string, int) ([]graphmodel.Node, []float64, error) {
	return nil, nil, nil
}
func (f *fakeCentralityAdapter) SimilaritySearchEdges(context.Context, []float32, float32, []string, int) ([]graphmodel.Edge, []float64, error) {
	return nil, nil, nil
}
func (f *fakeCentralityAdapter) BFSSearchNodes(context.Context, []string, int, int) ([]graphmodel.Node, error) {
	return nil, nil
}
func (f *fakeCentralityAdapter) LoadNodesByIDs(_ context.Context, ids []string) ([]graphmodel.Node, error) {
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
func (f *fakeCentralityAdapter) LoadEdgesByPairs(context.Context, []struct{ Source, Target string }) ([]graphmodel.Edge, error) {
	return nil, nil
}
func (f *fakeCentralityAdapter) CountNodes(context.Context, []string) (int64, error) {
	return int64(len(f.nodes)), nil
}
func (f *fakeCentralityAdapter) CountEdges(context.Context, []string) (int64, error) {
	return int64(len(f.edges)), nil
}
func (f *fakeCentralityAdapter) WriteNodeProperty(_ context.Context, nodeID, property string, value float64) error {
	if f.written[nodeID] == nil {
		f.written[nodeID] = map[string]float64{}
	}
	f.written[nodeID][property] = value
	return nil
}
func (f *fakeCentralityAdapter) WriteNodeSummary(_ context.Context, nodeID, summary string) error {
	f.summaries[nodeID] = summary
	return nil
}
func (f *fakeCentralityAdapter) LoadFullGraph(context.Context, int) ([]graphmodel.Node, []graphmodel.Edge, error) {
	return f.nodes, f.edges, nil
}
func (f *fakeCentralityAdapter) WriteFeedback(_ context.Context, nodeID string, blendedScore float64, source string, at time.Time) error {
	if f.written[nodeID] == nil {
		f.written[nodeID] = map[string]float64{}
	}
	f.written[nodeID]["relevance_score"] = blendedScore
	return nil
}
func (f *fakeCentralityAdapter) NativePageRank(context.Context, []string, int, float64) (map[string]float64, error) {
	return nil, errors.New("native pagerank not supported")
}
func (f *fakeCentralityAdapter) NativeBetweenness(context.Context, []string) (map[string]float64, error) {
	return nil, errors.New("native betweenness not supported")
}
