package centrality

import (
	"context"
	"sync"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/graphstore"
	"github.com/oculairmedia/graphiti/internal/platform/log"
)

const (
	defaultDamping            = 0.85
	defaultPageRankIterations = 100
	fullGraphLimit            = 200_000
)

// Engine loads the graph from the Graph Adapter, runs the centrality
// algorithms, caches the latest scores in memory, and writes them back as
// node properties. It implements orchestrator.CentralityLookup.
type Engine struct {
	adapter graphstore.Adapter
	log     log.Logger

	mu     sync.RWMutex
	latest Scores
}

func NewEngine(adapter graphstore.Adapter, logger log.Logger) *Engine {
	return &Engine{adapter: adapter, log: logger}
}

// Recompute reloads the full graph and recomputes every centrality
// metric, writing each back to the graph store. Safe to call concurrently
// with Importance/Scores reads (never with another Recompute).
func (e *Engine) Recompute(ctx context.Context) error {
	nodes, edges, err := e.adapter.LoadFullGraph(ctx, fullGraphLimit)
	if err != nil {
		return err
	}

	nodeIDs := make([]string, len(nodes))
	for i, n := range nodes {
		nodeIDs[i] = n.ID
	}
	edgeRefs := make([]EdgeRef, len(edges))
	for i, ed := range edges {
		edgeRefs[i] = EdgeRef{Source: ed.SourceNodeID, Target: ed.TargetNodeID}
	}

	g := BuildGraph(nodeIDs, edgeRefs)
	scores := e.computeAll(ctx, g, nodeIDs)

	e.mu.Lock()
	e.latest = scores
	e.mu.Unlock()

	e.writeBack(ctx, scores)
	return nil
}

// computeAll mirrors ComputeAll, except pagerank and betweenness first
// attempt delegation to the store's native algorithm procedures (spec.md
// §4.7), falling back to the pure-Go implementation on any failure
// (including native returning nothing for the current graph). Degree and
// eigenvector have no native equivalent and always run in-process.
func (e *Engine) computeAll(ctx context.Context, g *DirectedGraph, nodeIDs []string) Scores {
	pagerank, err := e.adapter.NativePageRank(ctx, nil, defaultPageRankIterations, defaultDamping)
	if err != nil {
		e.log.Debug().Err(err).Msg("centrality: native pagerank unavailable, falling back to iterative")
		pagerank = PageRank(g, defaultDamping, defaultPageRankIterations)
	}

	betweenness, err := e.adapter.NativeBetweenness(ctx, nil)
	if err != nil {
		e.log.Debug().Err(err).Msg("centrality: native betweenness unavailable, falling back to sampled")
		betweenness = Betweenness(g)
	}

	degree := NormalizeByMax(Degree(g, DirectionBoth))
	eigenvector := Eigenvector(g, 100, 1e-6)

	return Scores{
		PageRank:    pagerank,
		DegreeNorm:  degree,
		Betweenness: betweenness,
		Eigenvector: eigenvector,
		Importance:  Importance(pagerank, degree, betweenness, eigenvector, nodeIDs),
	}
}

// writeBack persists every node's scores, per spec.md §9's documented
// backing-store convention: PageRank under "score", betweenness under
// "betweenness" (the inconsistency is preserved deliberately, not
// normalized away).
func (e *Engine) writeBack(ctx context.Context, scores Scores) {
	for nodeID, pr := range scores.PageRank {
		if err := e.adapter.WriteNodeProperty(ctx, nodeID, "score", pr); err != nil {
			e.log.Warn().Err(err).Str("node_id", nodeID).Msg("centrality: pagerank writeback failed")
		}
	}
	for nodeID, d := range scores.DegreeNorm {
		if err := e.adapter.WriteNodeProperty(ctx, nodeID, "degree_centrality", d); err != nil {
			e.log.Warn().Err(err).Str("node_id", nodeID).Msg("centrality: degree writeback failed")
		}
	}
	for nodeID, b := range scores.Betweenness {
		if err := e.adapter.WriteNodeProperty(ctx, nodeID, "betweenness", b); err != nil {
			e.log.Warn().Err(err).Str("node_id", nodeID).Msg("centrality: betweenness writeback failed")
		}
	}
	for nodeID, ev := range scores.Eigenvector {
		if err := e.adapter.WriteNodeProperty(ctx, nodeID, "eigenvector_centrality", ev); err != nil {
			e.log.Warn().Err(err).Str("node_id", nodeID).Msg("centrality: eigenvector writeback failed")
		}
	}
}

// Scores returns the most recently computed set.
func (e *Engine) Scores() Scores {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}

// Importance implements orchestrator.CentralityLookup.
func (e *Engine) Importance(nodeID string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest.Importance[nodeID]
}

// CurrentRelevanceScores exposes the last-known "relevance_score" property
// per node, read fresh from the store, for the feedback processor's EMA
// blend base.
func (e *Engine) CurrentRelevanceScores(ctx context.Context, nodeIDs []string) (map[string]float64, error) {
	nodes, err := e.adapter.LoadNodesByIDs(ctx, nodeIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		if v, ok := n.Properties["relevance_score"]; ok && v.Kind == graphmodel.KindFloat {
			out[n.ID] = v.F
		}
	}
	return out, nil
}
