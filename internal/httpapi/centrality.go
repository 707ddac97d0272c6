package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/oculairmedia/graphiti/internal/centrality"
	"github.com/oculairmedia/graphiti/internal/platform/apperr"
)

// CentralityServer is the Centrality Service's HTTP surface.
type CentralityServer struct {
	engine    *centrality.Engine
	feedback  *centrality.FeedbackProcessor
	mux       *http.ServeMux
}

func NewCentralityServer(engine *centrality.Engine, feedback *centrality.FeedbackProcessor) *CentralityServer {
	s := &CentralityServer{engine: engine, feedback: feedback, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

func (s *CentralityServer) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *CentralityServer) registerRoutes() {
	s.mux.HandleFunc("POST /centrality/pagerank", s.handleRecomputeAndReport("pagerank"))
	s.mux.HandleFunc("POST /centrality/degree", s.handleRecomputeAndReport("degree"))
	s.mux.HandleFunc("POST /centrality/betweenness", s.handleRecomputeAndReport("betweenness"))
	s.mux.HandleFunc("POST /centrality/all", s.handleRecomputeAndReport("all"))
	s.mux.HandleFunc("POST /centrality/node/{id}", s.handleNode)
	s.mux.HandleFunc("POST /feedback", s.handleFeedback)
}

func (s *CentralityServer) handleRecomputeAndReport(metric string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.engine.Recompute(r.Context()); err != nil {
			respondError(w, apperr.Wrap(apperr.ExternalUnavailable, "centrality recompute failed", err))
			return
		}
		scores := s.engine.Scores()
		switch metric {
		case "pagerank":
			respondJSON(w, http.StatusOK, map[string]any{"pagerank": scores.PageRank})
		case "degree":
			respondJSON(w, http.StatusOK, map[string]any{"degree": scores.DegreeNorm})
		case "betweenness":
			respondJSON(w, http.StatusOK, map[string]any{"betweenness": scores.Betweenness})
		default:
			respondJSON(w, http.StatusOK, scores)
		}
	}
}

func (s *CentralityServer) handleNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, apperr.New(apperr.InvalidRequest, "missing node id"))
		return
	}
	scores := s.engine.Scores()
	respondJSON(w, http.StatusOK, map[string]any{
		"node_id":     id,
		"pagerank":    scores.PageRank[id],
		"degree":      scores.DegreeNorm[id],
		"betweenness": scores.Betweenness[id],
		"eigenvector": scores.Eigenvector[id],
		"importance":  scores.Importance[id],
	})
}

type feedbackRequestBody struct {
	QueryID      string             `json:"query_id"`
	MemoryScores map[string]float64 `json:"memory_scores"`
	Source       string             `json:"source"`
}

func (s *CentralityServer) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var body feedbackRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, apperr.Wrap(apperr.InvalidRequest, "malformed feedback request body", err))
		return
	}
	if len(body.MemoryScores) == 0 {
		respondError(w, apperr.New(apperr.InvalidRequest, "memory_scores must be non-empty"))
		return
	}

	ctx := r.Context()
	nodeIDs := make([]string, 0, len(body.MemoryScores))
	for id := range body.MemoryScores {
		nodeIDs = append(nodeIDs, id)
	}
	current, err := s.engine.CurrentRelevanceScores(ctx, nodeIDs)
	if err != nil {
		respondError(w, err)
		return
	}

	req := centrality.FeedbackRequest{
		QueryID:      body.QueryID,
		MemoryScores: body.MemoryScores,
		Source:       centrality.FeedbackSource(body.Source),
	}
	resp, err := s.feedback.Process(ctx, req, current)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
