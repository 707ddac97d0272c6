package centrality

// betweennessMaxPaths and betweennessMaxDepth mirror
// graphiti-centrality-rs/src/algorithms.rs's sampled approximation: a
// Cypher `shortestPath((source)-[*..5]-(target)) LIMIT 1000` query. This
// system reproduces the same bound in-process over an already-loaded
// graph rather than re-querying the store per pair.
const (
	betweennessMaxPaths = 1000
	betweennessMaxDepth = 5
)

// Betweenness approximates betweenness centrality by sampling shortest
// paths up to betweennessMaxDepth hops, stopping after betweennessMaxPaths
// paths have been counted, then normalizing by the maximum observed score.
// Exact all-pairs betweenness is an explicit non-goal (spec.md §1).
func Betweenness(g *DirectedGraph) map[string]float64 {
	nodes := g.NodeIDs()
	scores := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		scores[n] = 0
	}

	pathsCounted := 0
outer:
	for _, source := range nodes {
		for _, target := range nodes {
			if source == target {
				continue
			}
			if pathsCounted >= betweennessMaxPaths {
				break outer
			}
			path, ok := shortestPath(g, source, target, betweennessMaxDepth)
			if !ok {
				continue
			}
			pathsCounted++
			for i := 1; i < len(path)-1; i++ {
				scores[path[i]]++
			}
		}
	}

	return normalizeByMaxInPlace(scores)
}

// shortestPath finds an unweighted shortest path from source to target
// within maxDepth hops via BFS, treating the graph as undirected (matching
// the original's `-[*..5]-` undirected path pattern).
func shortestPath(g *DirectedGraph, source, target string, maxDepth int) ([]string, bool) {
	type queued struct {
		node string
		path []string
	}

	visited := map[string]struct{}{source: {}}
	queue := []queued{{node: source, path: []string{source}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if len(cur.path)-1 >= maxDepth {
			continue
		}
		for _, next := range g.neighbors(cur.node) {
			if _, ok := visited[next]; ok {
				continue
			}
			nextPath := append(append([]string{}, cur.path...), next)
			if next == target {
				return nextPath, true
			}
			visited[next] = struct{}{}
			queue = append(queue, queued{node: next, path: nextPath})
		}
	}
	return nil, false
}

func normalizeByMaxInPlace(scores map[string]float64) map[string]float64 {
	var max float64
	for _, v := range scores {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return scores
	}
	for k, v := range scores {
		scores[k] = v / max
	}
	return scores
}
