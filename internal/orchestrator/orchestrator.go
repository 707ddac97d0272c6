// Package orchestrator is the Search Orchestrator (spec.md §4.6): per-kind
// (node/edge/episode/community) pipeline composition over the Graph
// Adapter, running the requested kinds in parallel (each kind's candidate
// methods in turn) and reducing them with the configured reranker, grounded on the teacher's Service type
// (internal/rag/service/service.go) and its functional-Option constructor.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oculairmedia/graphiti/internal/cache"
	"github.com/oculairmedia/graphiti/internal/fulltext"
	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/graphstore"
	"github.com/oculairmedia/graphiti/internal/platform/apperr"
	"github.com/oculairmedia/graphiti/internal/platform/log"
	"github.com/oculairmedia/graphiti/internal/platform/workerpool"
	"github.com/oculairmedia/graphiti/internal/rerank"
)

// Embedder produces a fixed-dimension query embedding, the narrow contract
// spec.md §1 names as the deliberately-external embedding model collaborator.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CentralityLookup resolves a node's composite importance score for the
// centrality-boosted reranker, backed by the Centrality Service's written-
// back node properties.
type CentralityLookup interface {
	Importance(nodeID string) float64
}

// Orchestrator is the Search Orchestrator.
type Orchestrator struct {
	adapter    graphstore.Adapter
	embedder   Embedder
	centrality CentralityLookup
	cache      *cache.Store
	pool       *workerpool.Pool
	log        log.Logger
}

type Option func(*Orchestrator)

func WithCache(c *cache.Store) Option               { return func(o *Orchestrator) { o.cache = c } }
func WithCentralityLookup(c CentralityLookup) Option { return func(o *Orchestrator) { o.centrality = c } }
func WithWorkerPool(p *workerpool.Pool) Option       { return func(o *Orchestrator) { o.pool = p } }

func New(adapter graphstore.Adapter, embedder Embedder, logger log.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		adapter:  adapter,
		embedder: embedder,
		pool:     workerpool.New(8),
		log:      logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Search runs the full request: the configured kinds run in parallel; each
// kind runs its search methods one after another, fuses them with the
// kind's reranker, and trims to the request limit.
func (o *Orchestrator) Search(ctx context.Context, req graphmodel.SearchRequest) (graphmodel.SearchResults, error) {
	start := time.Now()
	results := graphmodel.SearchResults{}

	var queryVec []float32
	needsEmbedding := kindNeedsSimilarity(req.Nodes) || kindNeedsSimilarity(req.Edges)
	if needsEmbedding && req.QueryVector != nil {
		queryVec = req.QueryVector
	} else if needsEmbedding && req.Query != "" && o.embedder != nil {
		v, err := o.embedder.Embed(ctx, req.Query)
		if err != nil {
			o.log.Warn().Err(err).Msg("orchestrator: embedding failed, skipping similarity methods")
		} else {
			queryVec = v
		}
	}

	fns := []func(context.Context) error{}

	if req.Nodes != nil {
		fns = append(fns, func(ctx context.Context) error {
			nodes, err := o.cachedSearchNodes(ctx, req, queryVec)
			if err != nil {
				return err
			}
			results.Nodes = nodes
			return nil
		})
	}
	if req.Edges != nil {
		fns = append(fns, func(ctx context.Context) error {
			edges, err := o.cachedSearchEdges(ctx, req, queryVec)
			if err != nil {
				return err
			}
			results.Edges = edges
			return nil
		})
	}
	if req.Episodes != nil {
		fns = append(fns, func(ctx context.Context) error {
			episodes, err := o.cachedSearchEpisodes(ctx, req)
			if err != nil {
				return err
			}
			results.Episodes = episodes
			return nil
		})
	}
	if req.Communities != nil {
		fns = append(fns, func(ctx context.Context) error {
			communities, err := o.cachedSearchCommunities(ctx, req)
			if err != nil {
				return err
			}
			results.Communities = communities
			return nil
		})
	}

	if err := o.pool.Run(ctx, fns...); err != nil {
		return graphmodel.SearchResults{}, err
	}

	results.LatencyMS = time.Since(start).Milliseconds()
	return results, nil
}

// cacheKey builds the canonical cache key spec.md §4.6 step 1 names:
// (kind, query, methods, min_score, filters, limit).
func cacheKey(kind string, req graphmodel.SearchRequest, cfg *graphmodel.KindConfig, limit int) string {
	methods := make([]string, len(cfg.SearchMethods))
	for i, m := range cfg.SearchMethods {
		methods[i] = string(m)
	}
	return fmt.Sprintf("search:%s:%s:%s:%g:%s:%d",
		kind, req.Query, strings.Join(methods, ","), cfg.SimMinScore, filtersKey(req.Filters), limit)
}

func filtersKey(f graphmodel.SearchFilters) string {
	parts := []string{
		"nt=" + strings.Join(f.NodeTypes, "|"),
		"et=" + strings.Join(f.EdgeTypes, "|"),
		"gid=" + strings.Join(f.GroupIDs, "|"),
	}
	if f.CreatedAfter != nil {
		parts = append(parts, "after="+f.CreatedAfter.UTC().Format(time.RFC3339))
	}
	if f.CreatedBefore != nil {
		parts = append(parts, "before="+f.CreatedBefore.UTC().Format(time.RFC3339))
	}
	return strings.Join(parts, ";")
}

// cachedSearchNodes consults the multi-layer cache before dispatching to the
// graph adapter, per spec.md §2's data flow ("the orchestrator consults the
// multi-layer cache; on miss, it dispatches..."). Bypassed entirely when no
// cache.Store was wired via WithCache.
func (o *Orchestrator) cachedSearchNodes(ctx context.Context, req graphmodel.SearchRequest, queryVec []float32) ([]graphmodel.Node, error) {
	if o.cache == nil {
		return o.searchNodes(ctx, req, queryVec)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	raw, err := o.cache.GetOrCompute(ctx, cacheKey("nodes", req, req.Nodes, limit), func(ctx context.Context) ([]byte, error) {
		nodes, err := o.searchNodes(ctx, req, queryVec)
		if err != nil {
			return nil, err
		}
		return json.Marshal(nodes)
	})
	if err != nil {
		return nil, err
	}
	var nodes []graphmodel.Node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "orchestrator: decode cached nodes", err)
	}
	return nodes, nil
}

func (o *Orchestrator) cachedSearchEdges(ctx context.Context, req graphmodel.SearchRequest, queryVec []float32) ([]graphmodel.Edge, error) {
	if o.cache == nil {
		return o.searchEdges(ctx, req, queryVec)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	raw, err := o.cache.GetOrCompute(ctx, cacheKey("edges", req, req.Edges, limit), func(ctx context.Context) ([]byte, error) {
		edges, err := o.searchEdges(ctx, req, queryVec)
		if err != nil {
			return nil, err
		}
		return json.Marshal(edges)
	})
	if err != nil {
		return nil, err
	}
	var edges []graphmodel.Edge
	if err := json.Unmarshal(raw, &edges); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "orchestrator: decode cached edges", err)
	}
	return edges, nil
}

func (o *Orchestrator) cachedSearchEpisodes(ctx context.Context, req graphmodel.SearchRequest) ([]graphmodel.Episode, error) {
	if o.cache == nil {
		return o.searchEpisodes(ctx, req)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	raw, err := o.cache.GetOrCompute(ctx, cacheKey("episodes", req, req.Episodes, limit), func(ctx context.Context) ([]byte, error) {
		episodes, err := o.searchEpisodes(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(episodes)
	})
	if err != nil {
		return nil, err
	}
	var episodes []graphmodel.Episode
	if err := json.Unmarshal(raw, &episodes); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "orchestrator: decode cached episodes", err)
	}
	return episodes, nil
}

func (o *Orchestrator) cachedSearchCommunities(ctx context.Context, req graphmodel.SearchRequest) ([]graphmodel.Community, error) {
	if o.cache == nil {
		return o.searchCommunities(ctx, req)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	raw, err := o.cache.GetOrCompute(ctx, cacheKey("communities", req, req.Communities, limit), func(ctx context.Context) ([]byte, error) {
		communities, err := o.searchCommunities(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(communities)
	})
	if err != nil {
		return nil, err
	}
	var communities []graphmodel.Community
	if err := json.Unmarshal(raw, &communities); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "orchestrator: decode cached communities", err)
	}
	return communities, nil
}

func kindNeedsSimilarity(k *graphmodel.KindConfig) bool {
	if k == nil {
		return false
	}
	for _, m := range k.SearchMethods {
		if m == graphmodel.MethodSimilarity {
			return true
		}
	}
	return false
}

func (o *Orchestrator) searchNodes(ctx context.Context, req graphmodel.SearchRequest, queryVec []float32) ([]graphmodel.Node, error) {
	cfg := req.Nodes
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	lists := map[string][]rerank.Ranked{}
	byID := map[string]graphmodel.Node{}

	for _, method := range cfg.SearchMethods {
		switch method {
		case graphmodel.MethodFulltext:
			sanitized := fulltext.Sanitize(req.Query)
			if !fulltext.Valid(sanitized) {
				continue
			}
			nodes, err := o.adapter.FulltextSearchNodes(ctx, sanitized, req.Filters.GroupIDs, limit)
			if err != nil {
				return nil, err
			}
			ranked := make([]rerank.Ranked, len(nodes))
			for i, n := range nodes {
				byID[n.ID] = n
				ranked[i] = rerank.Ranked{ID: n.ID, Rank: i + 1}
			}
			lists["fulltext"] = ranked

		case graphmodel.MethodSimilarity:
			if queryVec == nil {
				continue
			}
			nodes, scores, err := o.adapter.SimilaritySearchNodes(ctx, queryVec, cfg.SimMinScore, req.Filters.GroupIDs, limit)
			if err != nil {
				return nil, err
			}
			ranked := make([]rerank.Ranked, len(nodes))
			for i, n := range nodes {
				byID[n.ID] = n
				ranked[i] = rerank.Ranked{ID: n.ID, Rank: i + 1, Score: scores[i]}
			}
			lists["similarity"] = ranked

		case graphmodel.MethodBFS:
			if len(req.BFSOriginNodeIDs) == 0 {
				continue
			}
			nodes, err := o.adapter.BFSSearchNodes(ctx, req.BFSOriginNodeIDs, cfg.BFSMaxDepth, limit)
			if err != nil {
				return nil, err
			}
			ranked := make([]rerank.Ranked, len(nodes))
			for i, n := range nodes {
				byID[n.ID] = n
				ranked[i] = rerank.Ranked{ID: n.ID, Rank: i + 1}
			}
			lists["bfs"] = ranked
		}
	}

	ids := o.rerankNodeIDs(cfg, lists, byID, req, queryVec)
	if limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]graphmodel.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out, nil
}

func (o *Orchestrator) rerankNodeIDs(cfg *graphmodel.KindConfig, lists map[string][]rerank.Ranked, byID map[string]graphmodel.Node, req graphmodel.SearchRequest, queryVec []float32) []string {
	switch cfg.Reranker {
	case graphmodel.RerankerMMR:
		candidates := make([]rerank.Candidate, 0, len(byID))
		for id, n := range byID {
			candidates = append(candidates, rerank.Candidate{ID: id, Relevance: bestScore(lists, id), Embedding: n.Embedding})
		}
		lambda := float64(cfg.MMRLambda)
		if lambda == 0 {
			lambda = 0.5
		}
		selected := rerank.MMR(candidates, lambda, req.Limit)
		ids := make([]string, len(selected))
		for i, c := range selected {
			ids[i] = c.ID
		}
		return ids

	case graphmodel.RerankerCentrality:
		scored := make([]rerank.Scored, 0, len(byID))
		for id := range byID {
			relevance := 1.0
			if req.Query != "" {
				relevance = bestScore(lists, id)
			}
			scored = append(scored, rerank.Scored{ID: id, Relevance: relevance})
		}
		centrality := map[string]float64{}
		if o.centrality != nil {
			for _, s := range scored {
				centrality[s.ID] = o.centrality.Importance(s.ID)
			}
		}
		ranked := rerank.CentralityBoosted(scored, centrality, cfg.CentralityBoost)
		ids := make([]string, len(ranked))
		for i, s := range ranked {
			ids[i] = s.ID
		}
		return ids

	default: // RRF and anything else fall back to fusion across available lists
		fused := rerank.FuseRRF(lists, 60)
		ids := make([]string, len(fused))
		for i, f := range fused {
			ids[i] = f.ID
		}
		return ids
	}
}

func bestScore(lists map[string][]rerank.Ranked, id string) float64 {
	var best float64
	for _, l := range lists {
		for _, r := range l {
			if r.ID == id && r.Score > best {
				best = r.Score
			}
		}
	}
	return best
}

func (o *Orchestrator) searchEdges(ctx context.Context, req graphmodel.SearchRequest, queryVec []float32) ([]graphmodel.Edge, error) {
	cfg := req.Edges
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	byID := map[string]graphmodel.Edge{}
	var ordered []string

	for _, method := range cfg.SearchMethods {
		switch method {
		case graphmodel.MethodFulltext:
			sanitized := fulltext.Sanitize(req.Query)
			if !fulltext.Valid(sanitized) {
				continue
			}
			edges, err := o.adapter.FulltextSearchEdges(ctx, sanitized, req.Filters.GroupIDs, limit)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				if _, ok := byID[e.ID]; !ok {
					byID[e.ID] = e
					ordered = append(ordered, e.ID)
				}
			}
		case graphmodel.MethodSimilarity:
			if queryVec == nil {
				continue
			}
			edges, _, err := o.adapter.SimilaritySearchEdges(ctx, queryVec, cfg.SimMinScore, req.Filters.GroupIDs, limit)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				if _, ok := byID[e.ID]; !ok {
					byID[e.ID] = e
					ordered = append(ordered, e.ID)
				}
			}
		}
	}

	if cfg.Reranker == graphmodel.RerankerEpisodeMention {
		counts := map[string]int{}
		for id, e := range byID {
			counts[id] = len(e.EpisodeIDs)
		}
		ordered = rerank.EpisodeMentions(ordered, counts)
	} else {
		ordered = rerank.CrossEncoderPlaceholder(ordered)
	}

	if limit < len(ordered) {
		ordered = ordered[:limit]
	}
	out := make([]graphmodel.Edge, 0, len(ordered))
	for _, id := range ordered {
		out = append(out, byID[id])
	}
	return out, nil
}

func (o *Orchestrator) searchEpisodes(ctx context.Context, req graphmodel.SearchRequest) ([]graphmodel.Episode, error) {
	cfg := req.Episodes
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	sanitized := fulltext.Sanitize(req.Query)
	if !fulltext.Valid(sanitized) {
		return nil, nil
	}
	return o.adapter.FulltextSearchEpisodes(ctx, sanitized, req.Filters.GroupIDs, limit)
}

// searchCommunities is fulltext-only: community pipelines don't carry
// similarity/BFS methods or a reranker in the source system.
func (o *Orchestrator) searchCommunities(ctx context.Context, req graphmodel.SearchRequest) ([]graphmodel.Community, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	sanitized := fulltext.Sanitize(req.Query)
	if !fulltext.Valid(sanitized) {
		return nil, nil
	}
	return o.adapter.FulltextSearchCommunities(ctx, sanitized, req.Filters.GroupIDs, limit)
}
