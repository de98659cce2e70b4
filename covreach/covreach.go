// Package covreach implements subsumption-based reachability search over
// a zone graph (spec.md §4.5): a newly generated node is discarded when an
// already-stored node with the same discrete part has a larger-or-equal
// zone, and symmetrically covers/evicts stored nodes it itself subsumes.
package covreach

import (
	"github.com/arnabSur/tchecker/dbm"
	"github.com/arnabSur/tchecker/graph"
	"github.com/arnabSur/tchecker/stats"
	"github.com/arnabSur/tchecker/syncprod"
	"github.com/arnabSur/tchecker/system"
	"github.com/arnabSur/tchecker/zg"
)

// SearchOrder selects how the waiting set is drained.
type SearchOrder int

const (
	BFS SearchOrder = iota
	DFS
)

// CoveringPolicy selects which stored nodes are eligible to be subsumed by
// a newly generated node (spec.md §4.5).
type CoveringPolicy int

const (
	// CoveringFull allows any stored node, internal or still-waiting, to
	// be subsumed and evicted, redirecting its predecessors.
	CoveringFull CoveringPolicy = iota
	// CoveringLeafNodes only allows nodes still on the waiting set (not
	// yet expanded) to be subsumed.
	CoveringLeafNodes
)

// discreteKey groups nodes that share a discrete part, so cover
// candidates collide under a single lookup (spec.md §4.5 "Hash").
type discreteKey struct {
	vloc  string
	store string
}

func keyOf(s zg.State) discreteKey {
	return discreteKey{vloc: vlocString(s.Vloc), store: s.Store.String()}
}

func vlocString(v syncprod.Vloc) string {
	out := make([]byte, 0, 4*len(v))
	for _, l := range v {
		out = append(out, byte(l), byte(l>>8), byte(l>>16), byte(l>>24))
	}
	return string(out)
}

// waitingSet is the BFS/DFS frontier of not-yet-expanded node ids.
type waitingSet struct {
	order SearchOrder
	items []graph.NodeID
}

func (w *waitingSet) push(id graph.NodeID) {
	w.items = append(w.items, id)
}

func (w *waitingSet) pop() (graph.NodeID, bool) {
	if len(w.items) == 0 {
		return 0, false
	}
	if w.order == DFS {
		last := len(w.items) - 1
		id := w.items[last]
		w.items = w.items[:last]
		return id, true
	}
	id := w.items[0]
	w.items = w.items[1:]
	return id, true
}

// Result is the outcome of a covreach run.
type Result struct {
	Stats stats.Stats
	Graph *graph.Graph
	Found bool
}

// Options configures a Run.
type Options struct {
	Labels   map[string]bool
	Search   SearchOrder
	Covering CoveringPolicy
	// StopOnFirst halts exploration as soon as an accepting node is found.
	StopOnFirst bool
}

// Run explores sys's zone graph looking for a state carrying one of
// Options.Labels (spec.md §4.5 "Search").
func Run(sys *system.System, g *zg.Zg, opts Options) Result {
	var st stats.Stats
	st.Start()

	gr := graph.New()
	stored := map[discreteKey][]graph.NodeID{}
	waiting := &waitingSet{order: opts.Search}
	leaf := map[graph.NodeID]bool{}
	found := false

	insert := func(s zg.State, onto graph.NodeID, vedge syncprod.Vedge, kind graph.EdgeKind) (graph.NodeID, bool) {
		key := keyOf(s)
		for _, mid := range stored[key] {
			m := gr.Node(mid)
			if dbm.Inclusion(s.Zone, m.State.Zone) {
				if onto >= 0 {
					gr.AddEdge(onto, mid, vedge, graph.Subsumed)
				}
				st.Subsumptions++
				return mid, false
			}
		}
		id := gr.AddNode(s)

		// Evict stored nodes subsumed by the new one, redirecting their
		// predecessors onto it (spec.md §4.5 "COVERING_FULL"); under
		// CoveringLeafNodes only nodes still waiting are evicted.
		var survivors []graph.NodeID
		for _, mid := range stored[key] {
			m := gr.Node(mid)
			if (opts.Covering == CoveringFull || leaf[mid]) && dbm.Inclusion(m.State.Zone, s.Zone) {
				st.Subsumptions++
				gr.RedirectEdges(mid, id)
				continue
			}
			survivors = append(survivors, mid)
		}
		stored[key] = append(survivors, id)
		leaf[id] = true
		st.StoredNodes++
		if onto >= 0 {
			gr.AddEdge(onto, id, vedge, kind)
		}
		return id, true
	}

	for _, r := range g.Initial() {
		if r.Status != zg.OK {
			continue
		}
		id, fresh := insert(r.State, -1, nil, graph.Actual)
		if fresh {
			waiting.push(id)
		}
	}

	for {
		id, ok := waiting.pop()
		if !ok {
			break
		}
		delete(leaf, id)
		st.VisitedNodes++
		node := gr.Node(id)

		if hasAcceptingLabel(g, node.State, opts.Labels) {
			found = true
			if opts.StopOnFirst {
				break
			}
		}

		for _, r := range g.Outgoing(node.State) {
			if r.Status != zg.OK {
				continue
			}
			st.Transitions++
			nid, fresh := insert(r.State, id, r.Transition.Vedge, graph.Actual)
			if fresh {
				waiting.push(nid)
			}
		}
	}

	st.Stop()
	return Result{Stats: st, Graph: gr, Found: found}
}

func hasAcceptingLabel(g *zg.Zg, s zg.State, labels map[string]bool) bool {
	if len(labels) == 0 {
		return false
	}
	held := g.Labels(s)
	for l := range labels {
		if held[l] {
			return true
		}
	}
	return false
}
