package centrality

// Direction selects which incident edges count toward a node's degree.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

// Degree computes raw degree centrality for every node in the given
// direction, grounded on algorithms.rs's calculate_degree_centrality.
func Degree(g *DirectedGraph, dir Direction) map[string]float64 {
	scores := map[string]float64{}
	for _, node := range g.NodeIDs() {
		switch dir {
		case DirectionIn:
			scores[node] = float64(len(g.inNeighbors(node)))
		case DirectionOut:
			scores[node] = float64(len(g.outNeighbors(node)))
		default:
			scores[node] = float64(len(g.inNeighbors(node)) + len(g.outNeighbors(node)))
		}
	}
	return scores
}

// NormalizeByMax divides every score by the maximum value present, leaving
// an all-zero map unchanged (spec.md §4.7: degree feeds the composite
// importance score in [0,1] via max-normalization).
func NormalizeByMax(scores map[string]float64) map[string]float64 {
	var max float64
	for _, v := range scores {
		if v > max {
			max = v
		}
	}
	out := make(map[string]float64, len(scores))
	if max == 0 {
		for k := range scores {
			out[k] = 0
		}
		return out
	}
	for k, v := range scores {
		out[k] = v / max
	}
	return out
}
