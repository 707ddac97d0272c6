package centrality

import "math"

// PageRank computes PageRank scores over g with the given damping factor
// and iteration cap, converging early when the average per-node score
// delta drops below 1e-6 (matching
// graphiti-centrality-rs/src/algorithms.rs's calculate_pagerank_custom
// convergence threshold).
//
// Deviation from the textbook algorithm, carried forward deliberately from
// the original: dangling nodes (out-degree 0) do NOT redistribute their
// mass uniformly across the graph. Their score still receives the
// (1-damping)/n base term and incoming-link contributions, but they
// contribute nothing outward, which means total rank mass can leak below
// 1.0 on graphs with dangling nodes. This is accepted as a known property
// of this system's PageRank, not a bug to fix.
func PageRank(g *DirectedGraph, damping float64, maxIterations int) map[string]float64 {
	nodes := g.NodeIDs()
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}

	outDegree := make(map[string]int, n)
	inLinks := make(map[string][]string, n)
	for _, node := range nodes {
		out := g.outNeighbors(node)
		outDegree[node] = len(out)
		for _, target := range out {
			inLinks[target] = append(inLinks[target], node)
		}
	}

	initial := 1.0 / float64(n)
	scores := make(map[string]float64, n)
	for _, node := range nodes {
		scores[node] = initial
	}

	for iter := 0; iter < maxIterations; iter++ {
		next := make(map[string]float64, n)
		var totalDiff float64

		for _, node := range nodes {
			rank := (1 - damping) / float64(n)
			for _, source := range inLinks[node] {
				if deg := outDegree[source]; deg > 0 {
					rank += damping * scores[source] / float64(deg)
				}
			}
			next[node] = rank
			totalDiff += math.Abs(rank - scores[node])
		}

		scores = next
		if totalDiff/float64(n) < 1e-6 {
			break
		}
	}

	return scores
}
