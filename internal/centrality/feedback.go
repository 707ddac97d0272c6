package centrality

import (
	"context"
	"time"

	"github.com/oculairmedia/graphiti/internal/graphstore"
	"github.com/oculairmedia/graphiti/internal/platform/log"
)

// FeedbackSource tags where a relevance score originated.
type FeedbackSource string

const (
	SourceModel     FeedbackSource = "model"
	SourceHeuristic FeedbackSource = "heuristic"
	SourceUser      FeedbackSource = "user"
)

// FeedbackRequest is one batch of relevance feedback for a query,
// grounded on feedback.rs's FeedbackRequest.
type FeedbackRequest struct {
	QueryID      string
	MemoryScores map[string]float64 // node ID -> relevance score in [0,1]
	Source       FeedbackSource
}

// FeedbackResponse reports how many nodes were updated.
type FeedbackResponse struct {
	ProcessedCount int
	UpdatedNodeIDs []string
}

// recomputeThreshold is the updated-node count above which a PageRank
// recompute is triggered, per feedback.rs: "if updated_nodes.len() > 5".
const recomputeThreshold = 5

// FeedbackProcessor ingests relevance feedback, blends it into each node's
// relevance_score via an exponential moving average, and triggers a full
// PageRank recompute when a batch touches enough nodes to matter.
type FeedbackProcessor struct {
	adapter  graphstore.Adapter
	recompute func(ctx context.Context) error
	log      log.Logger
}

func NewFeedbackProcessor(adapter graphstore.Adapter, recompute func(ctx context.Context) error, logger log.Logger) *FeedbackProcessor {
	return &FeedbackProcessor{adapter: adapter, recompute: recompute, log: logger}
}

// emaBlend implements feedback.rs's CASE expression: new = old==null ? score
// : old*0.7 + score*0.3.
func emaBlend(old *float64, score float64) float64 {
	if old == nil {
		return score
	}
	return *old*0.7 + score*0.3
}

// Process blends each (node, score) pair into the store and, when the
// batch is large enough, triggers a PageRank recompute.
func (f *FeedbackProcessor) Process(ctx context.Context, req FeedbackRequest, currentScores map[string]float64) (FeedbackResponse, error) {
	updated := make([]string, 0, len(req.MemoryScores))

	for nodeID, score := range req.MemoryScores {
		var old *float64
		if v, ok := currentScores[nodeID]; ok {
			old = &v
		}
		blended := emaBlend(old, score)

		if err := f.adapter.WriteFeedback(ctx, nodeID, blended, string(req.Source), time.Now()); err != nil {
			f.log.Warn().Err(err).Str("node_id", nodeID).Msg("centrality: feedback write failed")
			continue
		}
		updated = append(updated, nodeID)
	}

	if len(updated) > recomputeThreshold && f.recompute != nil {
		f.log.Info().Int("updated_nodes", len(updated)).Msg("centrality: triggering PageRank recompute after feedback batch")
		if err := f.recompute(ctx); err != nil {
			f.log.Warn().Err(err).Msg("centrality: PageRank recompute after feedback failed")
		}
	}

	return FeedbackResponse{ProcessedCount: len(updated), UpdatedNodeIDs: updated}, nil
}
