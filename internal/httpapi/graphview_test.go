package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculairmedia/graphiti/internal/broadcaster"
	"github.com/oculairmedia/graphiti/internal/columnar"
	"github.com/oculairmedia/graphiti/internal/deltatracker"
	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/platform/log"
	"github.com/oculairmedia/graphiti/internal/viewstore"
)

func newTestGraphViewServer(adapter *fakeCentralityAdapter) (*GraphViewServer, *viewstore.Store) {
	store := viewstore.New()
	store.LoadInitial(adapter.nodes, adapter.edges)
	tracker := deltatracker.New()
	loader := viewstore.NewLoader(adapter, store, tracker, nil)
	exporter := columnar.NewExporter()
	bcast := broadcaster.New(log.New("error", "test"))
	return NewGraphViewServer(adapter, store, loader, tracker, exporter, bcast), store
}

func TestHandleStatsReportsCounts(t *testing.T) {
	adapter := newFakeCentralityAdapter()
	adapter.nodes = []graphmodel.Node{{ID: "a"}, {ID: "b"}}
	srv, _ := newTestGraphViewServer(adapter)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"node_count":2`)
}

func TestHandleColumnarNodesServesIPCWithETag(t *testing.T) {
	adapter := newFakeCentralityAdapter()
	adapter.nodes = []graphmodel.Node{{ID: "a"}}
	srv, _ := newTestGraphViewServer(adapter)

	req := httptest.NewRequest(http.MethodGet, "/columnar/nodes", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestHandleColumnarNodesReturns304WhenETagMatches(t *testing.T) {
	adapter := newFakeCentralityAdapter()
	adapter.nodes = []graphmodel.Node{{ID: "a"}}
	srv, _ := newTestGraphViewServer(adapter)

	first := httptest.NewRecorder()
	srv.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/columnar/nodes", nil))
	etag := first.Header().Get("ETag")

	req := httptest.NewRequest(http.MethodGet, "/columnar/nodes", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestHandleUpdateNodesQueuesAndIsReflectedAfterDrain(t *testing.T) {
	adapter := newFakeCentralityAdapter()
	srv, store := newTestGraphViewServer(adapter)

	body := `[{"ID":"new1","Name":"New Node"}]`
	req := httptest.NewRequest(http.MethodPost, "/updates/nodes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	_, ok := store.Drain()
	assert.True(t, ok)
	_, found := store.NodeByID("new1")
	assert.True(t, found)
}

func TestHandleNodeSummaryUpdatesAdapterAndQueuesView(t *testing.T) {
	adapter := newFakeCentralityAdapter()
	adapter.nodes = []graphmodel.Node{{ID: "a", Name: "A"}}
	srv, store := newTestGraphViewServer(adapter)

	req := httptest.NewRequest(http.MethodPatch, "/nodes/a/summary", strings.NewReader(`{"summary":"updated"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "updated", adapter.summaries["a"])

	_, ok := store.Drain()
	assert.True(t, ok)
	row, found := store.NodeByID("a")
	require.True(t, found)
	assert.Equal(t, "updated", row.Summary)
}

func TestHandleNodeSummaryNotFoundReturns404(t *testing.T) {
	adapter := newFakeCentralityAdapter()
	srv, _ := newTestGraphViewServer(adapter)

	req := httptest.NewRequest(http.MethodPatch, "/nodes/missing/summary", strings.NewReader(`{"summary":"x"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleWebhookProcessesNodeUpsertAndDeleteEvents(t *testing.T) {
	adapter := newFakeCentralityAdapter()
	adapter.nodes = []graphmodel.Node{{ID: "a"}, {ID: "b"}}
	srv, store := newTestGraphViewServer(adapter)

	payload := `[
		{"type":"node","op":"upsert","node":{"ID":"c","Name":"C"}},
		{"type":"node","op":"delete","node":{"ID":"a"}}
	]`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/data-ingestion", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"processed":2`)

	_, ok := store.Drain()
	assert.True(t, ok)
	_, found := store.NodeByID("c")
	assert.True(t, found)
	_, stillThere := store.NodeByID("a")
	assert.False(t, stillThere)
}
