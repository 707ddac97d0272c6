// Package rerank fuses per-method candidate lists into one ranked result
// per kind (edges/nodes/episodes/communities), per spec.md §4.4.
//
// FuseRRF generalizes the teacher's two-list (fulltext + vector) Reciprocal
// Rank Fusion (internal/rag/retrieve/fusion.go's FuseRRF) to an arbitrary
// number of method lists, since a kind here can combine up to three search
// methods (fulltext, similarity, bfs) rather than always exactly two.
package rerank

import "sort"

// Ranked is one candidate's rank (1-based, 0 if absent) and raw score within
// a single method's result list.
type Ranked struct {
	ID    string
	Rank  int
	Score float64
}

// Fused is one candidate's aggregate result after RRF across all lists.
type Fused struct {
	ID        string
	RRFScore  float64
	RankSum   int
	PerMethod map[string]Ranked
}

const defaultK = 60

// FuseRRF combines lists (keyed by method name) via Reciprocal Rank Fusion:
// contribution = 1/(k+rank) per list a candidate appears in, summed with
// equal weight across lists (spec.md §4.4 names no per-method weighting,
// unlike the teacher's alpha-weighted two-list case).
func FuseRRF(lists map[string][]Ranked, k int) []Fused {
	if k <= 0 {
		k = defaultK
	}

	byID := map[string]*Fused{}
	order := []string{}
	for method, ranked := range lists {
		for _, r := range ranked {
			f, ok := byID[r.ID]
			if !ok {
				f = &Fused{ID: r.ID, PerMethod: map[string]Ranked{}}
				byID[r.ID] = f
				order = append(order, r.ID)
			}
			f.PerMethod[method] = r
			if r.Rank > 0 {
				f.RRFScore += 1.0 / float64(k+r.Rank)
				f.RankSum += r.Rank
			}
		}
	}

	out := make([]Fused, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RRFScore != out[j].RRFScore {
			return out[i].RRFScore > out[j].RRFScore
		}
		if out[i].RankSum != out[j].RankSum {
			return out[i].RankSum < out[j].RankSum
		}
		return out[i].ID < out[j].ID
	})
	return out
}
