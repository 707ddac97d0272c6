// Package vectorkernel holds raw numeric kernels: cosine similarity, batch
// cosine against a query vector, and normalization. The MMR reranker uses
// Cosine and eigenvector centrality uses Normalize; BatchCosine has no
// caller outside this package's tests. Grounded on the candidate-scoring loop in
// original_source/graphiti-search-rs/src/falkor/client_v2.rs (the in-process
// half of similarity scoring, mirroring the vecf32() cosine pushed to the
// store) and on the teacher's internal/services/pgvector.go distance helpers.
package vectorkernel

import "math"

// Cosine returns the cosine similarity of a and b, in [-1, 1]. Returns 0 when
// either vector has zero norm, rather than NaN, since a zero-norm embedding
// is an absent/degenerate signal, not an error.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// BatchCosine scores every candidate vector against query, preserving input
// order.
func BatchCosine(query []float32, candidates [][]float32) []float64 {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = Cosine(query, c)
	}
	return scores
}

// Normalize returns v scaled to unit L2 norm, or v unchanged if its norm is
// zero. Used by the eigenvector-centrality power iteration.
func Normalize(v []float64) []float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
