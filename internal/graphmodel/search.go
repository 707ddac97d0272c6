package graphmodel

import "time"

// SearchMethod is one retrieval strategy the orchestrator can dispatch.
type SearchMethod string

const (
	MethodFulltext   SearchMethod = "fulltext"
	MethodSimilarity SearchMethod = "similarity"
	MethodBFS        SearchMethod = "bfs"
)

// Reranker names the fusion strategy applied to a kind's candidate lists,
// grounded on original_source's per-kind reranker enums (models.rs).
type Reranker string

const (
	RerankerRRF            Reranker = "rrf"
	RerankerMMR            Reranker = "mmr"
	RerankerCrossEncoder   Reranker = "cross_encoder"
	RerankerNodeDistance   Reranker = "node_distance"
	RerankerEpisodeMention Reranker = "episode_mentions"
	RerankerCentrality     Reranker = "centrality_boosted"
)

// SearchFilters narrows results by type, group, and creation window.
type SearchFilters struct {
	NodeTypes     []string
	EdgeTypes     []string
	GroupIDs      []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// KindConfig configures one result kind's pipeline (edges, nodes, episodes,
// or communities).
type KindConfig struct {
	SearchMethods  []SearchMethod
	Reranker       Reranker
	BFSMaxDepth    int
	SimMinScore    float32
	MMRLambda      float32
	CentralityBoost float64
}

// SearchRequest is the top-level request the orchestrator consumes.
type SearchRequest struct {
	Query             string
	Edges             *KindConfig
	Nodes             *KindConfig
	Episodes          *KindConfig
	Communities       *KindConfig
	Filters           SearchFilters
	Limit             int
	RerankerMinScore  float32
	CenterNodeID      string
	BFSOriginNodeIDs  []string
	QueryVector       []float32
}

// SearchResults is the orchestrator's aggregate response.
type SearchResults struct {
	Edges       []Edge
	Nodes       []Node
	Episodes    []Episode
	Communities []Community
	LatencyMS   int64
}
