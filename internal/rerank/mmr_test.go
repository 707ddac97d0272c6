package rerank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func candidates() []Candidate {
	return []Candidate{
		{ID: "a", Relevance: 0.9, Embedding: []float32{1, 0}},
		{ID: "b", Relevance: 0.8, Embedding: []float32{1, 0}}, // near-duplicate of a
		{ID: "c", Relevance: 0.5, Embedding: []float32{0, 1}}, // orthogonal, diverse
	}
}

func TestMMRLambdaOneIsPureRelevanceRanking(t *testing.T) {
	selected := MMR(candidates(), 1.0, 3)
	assert.Equal(t, []string{"a", "b", "c"}, ids(selected), "lambda=1 ignores diversity and follows relevance order")
}

func TestMMRLambdaZeroFavorsDiversityOverRelevance(t *testing.T) {
	selected := MMR(candidates(), 0.0, 3)
	assert.Equal(t, "a", selected[0].ID, "first pick has no prior selection so max-similarity penalty is 0")
	assert.Equal(t, "c", selected[1].ID, "second pick must diversify away from a; c is orthogonal to a while b is identical")
}

func TestMMRRespectsLimit(t *testing.T) {
	selected := MMR(candidates(), 0.5, 2)
	assert.Len(t, selected, 2)
}

func TestMMRLimitAboveInputSizeClampsToInputSize(t *testing.T) {
	selected := MMR(candidates(), 0.5, 100)
	assert.Len(t, selected, 3)
}

func TestMMREmptyCandidates(t *testing.T) {
	selected := MMR(nil, 0.5, 5)
	assert.Empty(t, selected)
}

func ids(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
