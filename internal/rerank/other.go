package rerank

import "sort"

// Scored pairs an identifier with a relevance score, the common input shape
// for the non-fusion rerankers below.
type Scored struct {
	ID        string
	Relevance float64
}

// CentralityBoosted implements spec.md §4.4's
// "score(x) = relevance(q,x) + boost*centrality(x)". When query is absent,
// callers pass relevance=1 for every candidate, collapsing this to a pure
// centrality ranking, per the spec note.
func CentralityBoosted(candidates []Scored, centrality map[string]float64, boost float64) []Scored {
	out := make([]Scored, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		si := out[i].Relevance + boost*centrality[out[i].ID]
		sj := out[j].Relevance + boost*centrality[out[j].ID]
		if si != sj {
			return si > sj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// NodeDistance sorts by graph distance from a designated center node,
// ascending by default; descending when desc is true. Candidates absent
// from distances sort last (spec.md §4.4: "missing distances sort last").
func NodeDistance(ids []string, distances map[string]int, desc bool) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	dist := func(id string) (int, bool) {
		d, ok := distances[id]
		return d, ok
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, oki := dist(out[i])
		dj, okj := dist(out[j])
		if !oki && !okj {
			return out[i] < out[j]
		}
		if !oki {
			return false
		}
		if !okj {
			return true
		}
		if desc {
			return di > dj
		}
		return di < dj
	})
	return out
}

// EpisodeMentions sorts edge IDs by the number of associated episode
// identifiers, descending (spec.md §4.4).
func EpisodeMentions(ids []string, episodeCounts map[string]int) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := episodeCounts[out[i]], episodeCounts[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	return out
}

// CrossEncoderPlaceholder deduplicates by identifier, preserving input
// order, per spec.md §4.4: "reserved for a future learned reranker;
// implementers SHOULD expose the interface but MAY omit a learned model."
func CrossEncoderPlaceholder(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
