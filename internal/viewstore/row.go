package viewstore

import (
	"time"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
)

// NodeRow is one materialized node, node_type-derived visual fields
// included, keyed by a dense index assigned at load/append time (the
// "idx"/"sourceidx"/"targetidx" columns the original's Arrow schema names
// for its downstream visualization consumer). Fields correspond one-to-one,
// in order, to the node columns internal/columnar exports.
type NodeRow struct {
	ID                     string
	Idx                    uint32
	Label                  string
	NodeType               string
	Summary                string
	DegreeCentrality       float64
	PageRankCentrality     float64
	BetweennessCentrality  float64
	EigenvectorCentrality  float64
	// X, Y carry the force-directed layout position, left nil here: per
	// duckdb_store.rs ("x/y - will be computed by layout"), this module
	// materializes the graph, not its visual layout.
	X              *float64
	Y              *float64
	Color          string
	Size           float64
	CreatedAt      string
	CreatedAtTimestamp float64
	Cluster        string
	ClusterStrength float64
}

// EdgeRow is one materialized edge, resolved against the current node
// index assignment.
type EdgeRow struct {
	Source    string
	SourceIdx uint32
	Target    string
	TargetIdx uint32
	EdgeType  string
	Weight    float64
	Color     string
	Strength  float64
}

func derefOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func newNodeRow(idx uint32, n graphmodel.Node) NodeRow {
	createdStr, createdMS := resolveCreatedAt(n.CreatedAt, idx)
	degree := derefOr(n.Degree, 0)
	return NodeRow{
		ID:                    n.ID,
		Idx:                   idx,
		Label:                 n.Name,
		NodeType:              n.NodeType,
		Summary:               n.Summary,
		DegreeCentrality:      degree,
		PageRankCentrality:    derefOr(n.PageRank, 0),
		BetweennessCentrality: derefOr(n.Betweenness, 0),
		EigenvectorCentrality: derefOr(n.Eigenvector, 0),
		Color:                 nodeColor(n.NodeType),
		Size:                  nodeSize(degree),
		CreatedAt:             createdStr,
		CreatedAtTimestamp:    createdMS,
		Cluster:               n.NodeType,
		ClusterStrength:       clusterStrength,
	}
}

// resolveCreatedAt mirrors duckdb_store.rs's created_at handling: if the
// node carries a real timestamp, derive both representations from it;
// otherwise synthesize a deterministic one from the assigned index so
// ordering stays stable across reloads.
func resolveCreatedAt(t time.Time, idx uint32) (string, float64) {
	if !t.IsZero() {
		return t.Format(time.RFC3339), float64(t.UnixMilli())
	}
	ms := float64(idx) * syntheticDayMillis
	return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339), ms
}

func newEdgeRow(e graphmodel.Edge, sourceIdx, targetIdx uint32) EdgeRow {
	return EdgeRow{
		Source:    e.SourceNodeID,
		SourceIdx: sourceIdx,
		Target:    e.TargetNodeID,
		TargetIdx: targetIdx,
		EdgeType:  e.EdgeType,
		Weight:    e.Weight,
		Color:     edgeColor(e.EdgeType),
		Strength:  edgeStrength(e.EdgeType),
	}
}
