// Package viewstore is the Materialized Graph View's in-process columnar
// store (spec.md §4.9): a filtered mirror of the graph, incrementally
// updated via a mutation queue with orphan-edge buffering, grounded on
// original_source/graph-visualizer-rust/src/duckdb_store.rs's UpdateQueue/
// PendingEdge/process_updates design, adapted from a DuckDB-backed table to
// an in-memory Go table (this service's columnar export already targets
// Arrow directly, so an intermediate SQL engine adds no value here).
package viewstore

const (
	clusterStrength   = 0.7
	sizeBase          = 4.0
	sizeDegreeScale   = 20.0
	syntheticDayMillis = 86400000.0
)

func nodeColor(nodeType string) string {
	switch nodeType {
	case "Entity", "EntityNode":
		return "#4CAF50"
	case "Episode", "EpisodicNode":
		return "#2196F3"
	case "Community", "GroupNode":
		return "#FF9800"
	default:
		return "#9E9E9E"
	}
}

func edgeColor(edgeType string) string {
	switch edgeType {
	case "RELATES_TO":
		return "#666666"
	case "MENTIONS":
		return "#999999"
	case "HAS_MEMBER":
		return "#FF9800"
	default:
		return "#CCCCCC"
	}
}

func edgeStrength(edgeType string) float64 {
	switch edgeType {
	case "entity_entity", "relates_to", "RELATES_TO":
		return 1.5
	case "episodic", "temporal", "mentioned_in", "MENTIONS":
		return 0.5
	default:
		return 1.0
	}
}

func nodeSize(degree float64) float64 {
	return sizeBase + degree*sizeDegreeScale
}
