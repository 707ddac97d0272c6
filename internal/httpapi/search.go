package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/orchestrator"
	"github.com/oculairmedia/graphiti/internal/platform/apperr"
)

// SearchServer is the Hybrid Search Engine's HTTP surface.
type SearchServer struct {
	orch *orchestrator.Orchestrator
	mux  *http.ServeMux
}

func NewSearchServer(orch *orchestrator.Orchestrator) *SearchServer {
	s := &SearchServer{orch: orch, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

func (s *SearchServer) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *SearchServer) registerRoutes() {
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("POST /search", s.handleSearch)
	s.mux.HandleFunc("POST /search/nodes", s.handleSearchKind(kindNodes))
	s.mux.HandleFunc("POST /search/edges", s.handleSearchKind(kindEdges))
	s.mux.HandleFunc("POST /search/episodes", s.handleSearchKind(kindEpisodes))
	s.mux.HandleFunc("POST /search/communities", s.handleSearchKind(kindCommunities))
}

type searchKind int

const (
	kindNodes searchKind = iota
	kindEdges
	kindEpisodes
	kindCommunities
)

// searchRequestBody is the wire shape for both /search and the
// kind-specific endpoints. A kind-specific endpoint uses only its own
// KindConfig, which orDefault fills in when the body left it nil; the other
// kinds' configs in the body are ignored.
type searchRequestBody struct {
	Query            string                 `json:"query"`
	Edges            *graphmodel.KindConfig `json:"edges"`
	Nodes            *graphmodel.KindConfig `json:"nodes"`
	Episodes         *graphmodel.KindConfig `json:"episodes"`
	Communities      *graphmodel.KindConfig `json:"communities"`
	Filters          graphmodel.SearchFilters `json:"filters"`
	Limit            int                    `json:"limit"`
	CenterNodeID     string                 `json:"center_node_id"`
	BFSOriginNodeIDs []string               `json:"bfs_origin_node_ids"`
}

func (s *SearchServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if r.Method == http.MethodGet {
		body.Query = r.URL.Query().Get("q")
		if body.Query != "" {
			body.Nodes = &graphmodel.KindConfig{SearchMethods: []graphmodel.SearchMethod{graphmodel.MethodFulltext}, Reranker: graphmodel.RerankerRRF}
		}
	} else if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, apperr.Wrap(apperr.InvalidRequest, "malformed search request body", err))
		return
	}

	req := graphmodel.SearchRequest{
		Query: body.Query, Edges: body.Edges, Nodes: body.Nodes, Episodes: body.Episodes, Communities: body.Communities,
		Filters: body.Filters, Limit: body.Limit, CenterNodeID: body.CenterNodeID, BFSOriginNodeIDs: body.BFSOriginNodeIDs,
	}
	s.runSearch(w, r, req)
}

func (s *SearchServer) handleSearchKind(kind searchKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body searchRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, apperr.Wrap(apperr.InvalidRequest, "malformed search request body", err))
			return
		}

		req := graphmodel.SearchRequest{
			Query: body.Query, Filters: body.Filters, Limit: body.Limit,
			CenterNodeID: body.CenterNodeID, BFSOriginNodeIDs: body.BFSOriginNodeIDs,
		}
		switch kind {
		case kindNodes:
			req.Nodes = orDefault(body.Nodes)
		case kindEdges:
			req.Edges = orDefault(body.Edges)
		case kindEpisodes:
			req.Episodes = orDefault(body.Episodes)
		case kindCommunities:
			req.Communities = orDefault(body.Communities)
		}
		s.runSearch(w, r, req)
	}
}

func orDefault(cfg *graphmodel.KindConfig) *graphmodel.KindConfig {
	if cfg != nil {
		return cfg
	}
	return &graphmodel.KindConfig{SearchMethods: []graphmodel.SearchMethod{graphmodel.MethodFulltext}, Reranker: graphmodel.RerankerRRF}
}

func (s *SearchServer) runSearch(w http.ResponseWriter, r *http.Request, req graphmodel.SearchRequest) {
	results, err := s.orch.Search(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}
