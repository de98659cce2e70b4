// Package graph is the arena-based reachability/subsumption graph that
// covreach and couvscc build while exploring: nodes are states, edges are
// either ACTUAL (a real transition) or SUBSUMED (spec.md §4.5, §9). Nodes
// are indexed by stable integer ids rather than linked by pointer, so
// arbitrary cycles never create a reference cycle.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arnabSur/tchecker/syncprod"
	"github.com/arnabSur/tchecker/zg"
)

// EdgeKind distinguishes a real transition from a subsumption link.
type EdgeKind int

const (
	Actual EdgeKind = iota
	Subsumed
)

func (k EdgeKind) String() string {
	if k == Actual {
		return "ACTUAL"
	}
	return "SUBSUMED"
}

// NodeID is a stable index into a Graph's node arena.
type NodeID int

// Node is one explored state, plus the bookkeeping the search algorithms
// attach to it.
type Node struct {
	ID    NodeID
	State zg.State
}

// Edge is a directed link between two nodes.
type Edge struct {
	Source, Target NodeID
	Vedge          syncprod.Vedge
	Kind           EdgeKind
}

// Graph is the arena: nodes in a dense slice indexed by NodeID, edges in
// an adjacency list keyed by source NodeID (spec.md §9 "Cyclic graphs").
type Graph struct {
	nodes []Node
	out   map[NodeID][]Edge
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{out: make(map[NodeID][]Edge)}
}

// AddNode appends a new node and returns its id.
func (g *Graph) AddNode(s zg.State) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, State: s})
	return id
}

// AddEdge records a directed edge from source to target.
func (g *Graph) AddEdge(source, target NodeID, vedge syncprod.Vedge, kind EdgeKind) {
	g.out[source] = append(g.out[source], Edge{Source: source, Target: target, Vedge: vedge, Kind: kind})
}

// RedirectEdges rewrites every edge targeting oldTarget to target
// newTarget instead, the way covreach's COVERING_FULL policy redirects a
// subsumed node's predecessors onto its replacement (spec.md §4.5).
func (g *Graph) RedirectEdges(oldTarget, newTarget NodeID) {
	for source, edges := range g.out {
		for i := range edges {
			if edges[i].Target == oldTarget {
				edges[i].Target = newTarget
			}
		}
		g.out[source] = edges
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) Node {
	return g.nodes[id]
}

// Len is the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Successors returns the edges leaving a node.
func (g *Graph) Successors(id NodeID) []Edge {
	return g.out[id]
}

// Nodes returns every node, in insertion order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// DotDump renders the graph in Graphviz dot format: nodes labeled with
// vloc, discrete store and the zone's canonical textual form under the
// attribute key "zone" (spec.md §6 "Outputs", §11 "Attributes/dump key
// names" — this key name is taken from the original implementation's
// attribute map).
func (g *Graph) DotDump() string {
	var b strings.Builder
	b.WriteString("digraph tchecker {\n")
	for _, n := range g.nodes {
		b.WriteString(fmt.Sprintf(
			"  n%d [vloc=%q, intval=%q, zone=%q];\n",
			n.ID, vlocLabel(n.State.Vloc), n.State.Store.String(), n.State.Zone.String(),
		))
	}
	ids := make([]NodeID, 0, len(g.out))
	for id := range g.out {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		edges := g.out[id]
		sorted := make([]Edge, len(edges))
		copy(sorted, edges)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Target < sorted[j].Target })
		for _, e := range sorted {
			b.WriteString(fmt.Sprintf("  n%d -> n%d [vedge=%q, kind=%q];\n", e.Source, e.Target, vedgeLabel(e.Vedge), e.Kind))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func vlocLabel(v syncprod.Vloc) string {
	parts := make([]string, len(v))
	for i, loc := range v {
		parts[i] = fmt.Sprintf("%d", loc)
	}
	return strings.Join(parts, ",")
}

func vedgeLabel(v syncprod.Vedge) string {
	parts := make([]string, len(v))
	for i, e := range v {
		if e == syncprod.NoEdge {
			parts[i] = "-"
		} else {
			parts[i] = fmt.Sprintf("%d", e)
		}
	}
	return strings.Join(parts, ",")
}
