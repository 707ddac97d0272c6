// Package centrality computes PageRank, degree, betweenness, and
// eigenvector centrality over the graph loaded from the Graph Adapter, and
// writes scores back as node properties (spec.md §4.7). Graph
// representation uses gonum.org/v1/gonum/graph/simple; the numeric
// recurrences are hand-written to match this system's documented
// deviations from the textbook algorithms (no dangling-mass
// redistribution in PageRank, sampled rather than exact betweenness),
// grounded on
// original_source/graphiti-centrality-rs/src/algorithms.rs's custom
// (non-native-delegated) fallback implementations.
package centrality

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// DirectedGraph is the adjacency representation fed to every algorithm in
// this package: node identifiers mapped to gonum's int64 IDs, built once
// per computation from the edge list the Graph Adapter returns.
type DirectedGraph struct {
	g        *simple.DirectedGraph
	idOf     map[string]int64
	nodeOf   map[int64]string
}

// EdgeRef is the minimal edge shape needed to build a DirectedGraph: a
// source/target node identifier pair.
type EdgeRef struct {
	Source string
	Target string
}

// BuildGraph constructs a DirectedGraph from the given node set and edge
// list. Isolated nodes (no incident edges) are included so centrality
// scores are still reported for them (score 0, or (1-damping)/n for
// PageRank).
func BuildGraph(nodeIDs []string, edges []EdgeRef) *DirectedGraph {
	g := simple.NewDirectedGraph()
	idOf := make(map[string]int64, len(nodeIDs))
	nodeOf := make(map[int64]string, len(nodeIDs))

	var nextID int64
	ensure := func(id string) int64 {
		if gid, ok := idOf[id]; ok {
			return gid
		}
		gid := nextID
		nextID++
		idOf[id] = gid
		nodeOf[gid] = id
		g.AddNode(simple.Node(gid))
		return gid
	}

	for _, id := range nodeIDs {
		ensure(id)
	}
	for _, e := range edges {
		s := ensure(e.Source)
		t := ensure(e.Target)
		if s == t {
			continue
		}
		if !g.HasEdgeFromTo(s, t) {
			g.SetEdge(simple.Edge{F: simple.Node(s), T: simple.Node(t)})
		}
	}

	return &DirectedGraph{g: g, idOf: idOf, nodeOf: nodeOf}
}

// NodeIDs returns every node's domain identifier, in stable gonum-ID order.
func (d *DirectedGraph) NodeIDs() []string {
	out := make([]string, 0, len(d.nodeOf))
	nodes := graph.NodesOf(d.g.Nodes())
	for _, n := range nodes {
		out = append(out, d.nodeOf[n.ID()])
	}
	return out
}

func (d *DirectedGraph) outNeighbors(id string) []string {
	gid, ok := d.idOf[id]
	if !ok {
		return nil
	}
	it := d.g.From(gid)
	out := []string{}
	for it.Next() {
		out = append(out, d.nodeOf[it.Node().ID()])
	}
	return out
}

func (d *DirectedGraph) inNeighbors(id string) []string {
	gid, ok := d.idOf[id]
	if !ok {
		return nil
	}
	it := d.g.To(gid)
	out := []string{}
	for it.Next() {
		out = append(out, d.nodeOf[it.Node().ID()])
	}
	return out
}

func (d *DirectedGraph) neighbors(id string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, n := range d.outNeighbors(id) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for _, n := range d.inNeighbors(id) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
