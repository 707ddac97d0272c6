package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/oculairmedia/graphiti/internal/broadcaster"
	"github.com/oculairmedia/graphiti/internal/columnar"
	"github.com/oculairmedia/graphiti/internal/deltatracker"
	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/graphstore"
	"github.com/oculairmedia/graphiti/internal/platform/apperr"
	"github.com/oculairmedia/graphiti/internal/viewstore"
)

// etagCacheWindow is the conditional-response validity window, per
// spec.md §6.3/scenario 6: repeating a GET with If-None-Match inside this
// window returns 304 even if nothing changed.
const etagCacheWindow = 30 * time.Second

// GraphViewServer is the Materialized Graph View's HTTP surface.
type GraphViewServer struct {
	adapter  graphstore.Adapter
	store    *viewstore.Store
	loader   *viewstore.Loader
	tracker  *deltatracker.Tracker
	exporter *columnar.Exporter
	bcast    *broadcaster.Broadcaster
	mux      *http.ServeMux

	mu        sync.Mutex
	nodeCache exportCache
	edgeCache exportCache
}

type exportCache struct {
	bytes     []byte
	etag      string
	computedAt time.Time
}

func NewGraphViewServer(adapter graphstore.Adapter, store *viewstore.Store, loader *viewstore.Loader, tracker *deltatracker.Tracker, exporter *columnar.Exporter, bcast *broadcaster.Broadcaster) *GraphViewServer {
	s := &GraphViewServer{adapter: adapter, store: store, loader: loader, tracker: tracker, exporter: exporter, bcast: bcast, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

func (s *GraphViewServer) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *GraphViewServer) registerRoutes() {
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /columnar/nodes", s.handleColumnarNodes)
	s.mux.HandleFunc("GET /columnar/edges", s.handleColumnarEdges)
	s.mux.HandleFunc("POST /columnar/refresh", s.handleColumnarRefresh)
	s.mux.HandleFunc("POST /updates/nodes", s.handleUpdateNodes)
	s.mux.HandleFunc("POST /updates/edges", s.handleUpdateEdges)
	s.mux.HandleFunc("POST /updates/batch", s.handleUpdateBatch)
	s.mux.HandleFunc("POST /webhooks/data-ingestion", s.handleWebhook)
	s.mux.HandleFunc("POST /data/reload", s.handleReload)
	s.mux.HandleFunc("PATCH /nodes/{id}/summary", s.handleNodeSummary)
	s.mux.Handle("/ws", s.bcast)
}

func (s *GraphViewServer) handleStats(w http.ResponseWriter, r *http.Request) {
	nodeCount, edgeCount := s.store.Counts()
	_, _, sequence := s.tracker.Stats()
	respondJSON(w, http.StatusOK, map[string]any{
		"node_count": nodeCount,
		"edge_count": edgeCount,
		"sequence":   sequence,
	})
}

func (s *GraphViewServer) handleColumnarNodes(w http.ResponseWriter, r *http.Request) {
	s.serveColumnar(w, r, &s.nodeCache, func() ([]byte, error) {
		return s.exporter.NodesToIPC(s.store.Nodes())
	})
}

func (s *GraphViewServer) handleColumnarEdges(w http.ResponseWriter, r *http.Request) {
	s.serveColumnar(w, r, &s.edgeCache, func() ([]byte, error) {
		return s.exporter.EdgesToIPC(s.store.Edges())
	})
}

func (s *GraphViewServer) serveColumnar(w http.ResponseWriter, r *http.Request, cache *exportCache, compute func() ([]byte, error)) {
	s.mu.Lock()
	fresh := cache.bytes != nil && time.Since(cache.computedAt) < etagCacheWindow
	var ipcBytes []byte
	var etag string
	if fresh {
		ipcBytes, etag = cache.bytes, cache.etag
	}
	s.mu.Unlock()

	if !fresh {
		var err error
		ipcBytes, err = compute()
		if err != nil {
			respondError(w, apperr.Wrap(apperr.Internal, "columnar export failed", err))
			return
		}
		etag = columnar.ETag(ipcBytes)
		s.mu.Lock()
		*cache = exportCache{bytes: ipcBytes, etag: etag, computedAt: time.Now()}
		s.mu.Unlock()
	}

	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "max-age=30")
	w.Header().Set("Content-Type", "application/vnd.apache.arrow.stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ipcBytes)
}

func (s *GraphViewServer) handleColumnarRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.nodeCache = exportCache{}
	s.edgeCache = exportCache{}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *GraphViewServer) handleUpdateNodes(w http.ResponseWriter, r *http.Request) {
	var nodes []graphmodel.Node
	if err := json.NewDecoder(r.Body).Decode(&nodes); err != nil {
		respondError(w, apperr.Wrap(apperr.InvalidRequest, "malformed node batch", err))
		return
	}
	s.store.QueueNodes(nodes)
	respondJSON(w, http.StatusAccepted, map[string]int{"queued": len(nodes)})
}

func (s *GraphViewServer) handleUpdateEdges(w http.ResponseWriter, r *http.Request) {
	var edges []graphmodel.Edge
	if err := json.NewDecoder(r.Body).Decode(&edges); err != nil {
		respondError(w, apperr.Wrap(apperr.InvalidRequest, "malformed edge batch", err))
		return
	}
	s.store.QueueEdges(edges)
	respondJSON(w, http.StatusAccepted, map[string]int{"queued": len(edges)})
}

type batchUpdateBody struct {
	Nodes []graphmodel.Node `json:"nodes"`
	Edges []graphmodel.Edge `json:"edges"`
}

func (s *GraphViewServer) handleUpdateBatch(w http.ResponseWriter, r *http.Request) {
	var body batchUpdateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, apperr.Wrap(apperr.InvalidRequest, "malformed batch", err))
		return
	}
	s.store.QueueNodes(body.Nodes)
	s.store.QueueEdges(body.Edges)
	respondJSON(w, http.StatusAccepted, map[string]int{"nodes_queued": len(body.Nodes), "edges_queued": len(body.Edges)})
}

// webhookEntity is the upstream change-event shape (spec.md §9's mapping):
// a generic envelope the handler transforms into node/edge mutations.
type webhookEntity struct {
	Type string          `json:"type"`
	Op   string          `json:"op"`
	Node *graphmodel.Node `json:"node,omitempty"`
	Edge *graphmodel.Edge `json:"edge,omitempty"`
}

func (s *GraphViewServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var events []webhookEntity
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		respondError(w, apperr.Wrap(apperr.InvalidRequest, "malformed webhook payload", err))
		return
	}
	var processed int
	for _, ev := range events {
		switch {
		case ev.Node != nil && ev.Op == "delete":
			s.store.QueueNodeDeletions([]string{ev.Node.ID})
		case ev.Node != nil:
			s.store.QueueNodes([]graphmodel.Node{*ev.Node})
		case ev.Edge != nil && ev.Op == "delete":
			s.store.QueueEdgeDeletions([]graphmodel.EdgeKey{{Source: ev.Edge.SourceNodeID, Target: ev.Edge.TargetNodeID, Type: ev.Edge.EdgeType}})
		case ev.Edge != nil:
			s.store.QueueEdges([]graphmodel.Edge{*ev.Edge})
		default:
			continue
		}
		processed++
	}
	respondJSON(w, http.StatusAccepted, map[string]int{"processed": processed})
}

func (s *GraphViewServer) handleReload(w http.ResponseWriter, r *http.Request) {
	delta, err := s.loader.Reload(r.Context())
	if err != nil {
		respondError(w, apperr.Wrap(apperr.StoreUnavailable, "full reload failed", err))
		return
	}
	if !delta.Empty() {
		s.bcast.BroadcastDelta(delta)
	}
	respondJSON(w, http.StatusOK, delta)
}

type summaryPatchBody struct {
	Summary string `json:"summary"`
}

func (s *GraphViewServer) handleNodeSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var body summaryPatchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, apperr.Wrap(apperr.InvalidRequest, "malformed summary patch", err))
		return
	}
	node, ok := s.store.NodeByID(id)
	if !ok {
		respondError(w, apperr.New(apperr.NotFound, "node not found"))
		return
	}
	if err := s.adapter.WriteNodeSummary(r.Context(), id, body.Summary); err != nil {
		respondError(w, err)
		return
	}
	updated := graphmodel.Node{ID: node.ID, Name: node.Label, NodeType: node.NodeType, Summary: body.Summary}
	s.store.QueueNodeUpdate(updated)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
