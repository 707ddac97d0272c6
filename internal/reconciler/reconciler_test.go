package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/platform/log"
)

type fakeAdapter struct {
	nodeCount int64
	edgeCount int64
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
func (f *fakeAdapter) LoadNodesByIDs(context.Context, []string) ([]graphmodel.Node, error) {
	return nil, nil
}
func (f *fakeAdapter) LoadEdgesByPairs(context.Context, []struct{ Source, Target string }) ([]graphmodel.Edge, error) {
	return nil, nil
}
func (f *fakeAdapter) CountNodes(context.Context, []string) (int64, error) { return f.nodeCount, nil }
func (f *fakeAdapter) CountEdges(context.Context, []string) (int64, error) { return f.edgeCount, nil }
func (f *fakeAdapter) WriteNodeProperty(context.Context, string, string, float64) error { return nil }
func (f *fakeAdapter) WriteNodeSummary(context.Context, string, string) error           { return nil }
func (f *fakeAdapter) LoadFullGraph(context.Context, int) ([]graphmodel.Node, []graphmodel.Edge, error) {
	return nil, nil, nil
}
func (f *fakeAdapter) WriteFeedback(context.Context, string, float64, string, time.Time) error {
	return nil
}
func (f *fakeAdapter) NativePageRank(context.Context, []string, int, float64) (map[string]float64, error) {
	return nil, errors.New("native pagerank not supported")
}
func (f *fakeAdapter) NativeBetweenness(context.Context, []string) (map[string]float64, error) {
	return nil, errors.New("native betweenness not supported")
}

type fakeView struct{ nodeCount, edgeCount int }

func (f *fakeView) Counts() (int, int) { return f.nodeCount, f.edgeCount }

type fakeLoader struct {
	calls int
	delta graphmodel.Delta
	err   error
}

func (f *fakeLoader) Reload(context.Context) (graphmodel.Delta, error) {
	f.calls++
	return f.delta, f.err
}

type fakeCache struct{ calls int }

func (f *fakeCache) ClearAll(context.Context, string) error { f.calls++; return nil }

type fakeBroadcaster struct{ calls int }

func (f *fakeBroadcaster) BroadcastDelta(graphmodel.Delta) { f.calls++ }

func TestTickNoOpWhenCountsMatch(t *testing.T) {
	adapter := &fakeAdapter{nodeCount: 5, edgeCount: 10}
	view := &fakeView{nodeCount: 5, edgeCount: 10}
	loader := &fakeLoader{}
	r := New(adapter, view, loader, log.New("error", "test"))

	r.tick(context.Background())

	assert.Zero(t, loader.calls, "matching counts must not trigger a reload")
}

func TestTickReloadsOnDivergence(t *testing.T) {
	adapter := &fakeAdapter{nodeCount: 8, edgeCount: 10}
	view := &fakeView{nodeCount: 5, edgeCount: 10}
	loader := &fakeLoader{delta: graphmodel.Delta{NodesAdded: []graphmodel.Node{{ID: "x"}}}}
	cache := &fakeCache{}
	bcast := &fakeBroadcaster{}
	r := New(adapter, view, loader, log.New("error", "test"), WithCache(cache), WithBroadcaster(bcast))

	r.tick(context.Background())

	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, 1, cache.calls)
	assert.Equal(t, 1, bcast.calls)
}

func TestTickSkipsBroadcastWhenDeltaEmpty(t *testing.T) {
	adapter := &fakeAdapter{nodeCount: 8, edgeCount: 10}
	view := &fakeView{nodeCount: 5, edgeCount: 10}
	loader := &fakeLoader{delta: graphmodel.Delta{}}
	bcast := &fakeBroadcaster{}
	r := New(adapter, view, loader, log.New("error", "test"), WithBroadcaster(bcast))

	r.tick(context.Background())

	assert.Zero(t, bcast.calls, "an empty reload delta must not be broadcast")
}

func TestTickSurvivesReloadError(t *testing.T) {
	adapter := &fakeAdapter{nodeCount: 8, edgeCount: 10}
	view := &fakeView{nodeCount: 5, edgeCount: 10}
	loader := &fakeLoader{err: assertError("boom")}
	bcast := &fakeBroadcaster{}
	r := New(adapter, view, loader, log.New("error", "test"), WithBroadcaster(bcast))

	r.tick(context.Background())

	assert.Zero(t, bcast.calls)
}

type assertError string

func (e assertError) Error() string { return string(e) }
