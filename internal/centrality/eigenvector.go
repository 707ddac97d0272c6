package centrality

import (
	"math"

	"github.com/oculairmedia/graphiti/internal/vectorkernel"
)

// Eigenvector computes eigenvector centrality via power iteration over the
// undirected neighbor relation, grounded on algorithms.rs's
// calculate_eigenvector_centrality: initialize every score to 1/sqrt(n),
// repeatedly replace each node's score with the sum of its neighbors'
// scores, L2-normalize, and reinitialize to the uniform value if the norm
// degenerates to zero (an isolated-graph edge case).
func Eigenvector(g *DirectedGraph, maxIterations int, tolerance float64) map[string]float64 {
	nodes := g.NodeIDs()
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}

	initial := 1.0 / math.Sqrt(float64(n))
	scores := make(map[string]float64, n)
	for _, node := range nodes {
		scores[node] = initial
	}

	for iter := 0; iter < maxIterations; iter++ {
		next := make(map[string]float64, n)
		for _, node := range nodes {
			var sum float64
			for _, nb := range g.neighbors(node) {
				sum += scores[nb]
			}
			next[node] = sum
		}

		vec := make([]float64, n)
		for i, node := range nodes {
			vec[i] = next[node]
		}
		normVec := vectorkernel.Normalize(vec)

		var normedSumSq float64
		for _, v := range vec {
			normedSumSq += v * v
		}
		if normedSumSq == 0 {
			for _, node := range nodes {
				next[node] = initial
			}
		} else {
			for i, node := range nodes {
				next[node] = normVec[i]
			}
		}

		var totalDiff float64
		for _, node := range nodes {
			totalDiff += math.Abs(scores[node] - next[node])
		}
		scores = next
		if totalDiff/float64(n) < tolerance {
			break
		}
	}

	return scores
}
