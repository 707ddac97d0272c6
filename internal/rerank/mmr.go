package rerank

import "github.com/oculairmedia/graphiti/internal/vectorkernel"

// Candidate is the minimal shape MMR needs: an identity, a relevance score
// against the query, and an embedding for inter-candidate similarity.
type Candidate struct {
	ID        string
	Relevance float64
	Embedding []float32
}

// MMR performs Maximal Marginal Relevance selection: greedily picks the
// candidate maximizing lambda*relevance - (1-lambda)*max_similarity_to_selected,
// grounded on the teacher's Diversify penalty loop
// (internal/rag/retrieve/fusion.go) but using true pairwise cosine
// similarity against already-selected items rather than a count-based
// document/source penalty, per spec.md §4.4's MMR definition.
func MMR(candidates []Candidate, lambda float64, limit int) []Candidate {
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	remaining := make([]Candidate, len(candidates))
	copy(remaining, candidates)
	selected := make([]Candidate, 0, limit)

	for len(selected) < limit && len(remaining) > 0 {
		bestIdx := -1
		bestScore := 0.0
		for i, c := range remaining {
			maxSim := 0.0
			for _, s := range selected {
				if sim := vectorkernel.Cosine(c.Embedding, s.Embedding); sim > maxSim {
					maxSim = sim
				}
			}
			mmrScore := lambda*c.Relevance - (1-lambda)*maxSim
			if bestIdx == -1 || mmrScore > bestScore {
				bestIdx = i
				bestScore = mmrScore
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
