// Package couvscc implements Couvreur's on-the-fly nested-DFS algorithm
// for detecting an accepting strongly-connected component in a zone graph
// (spec.md §4.6): a DFS maintaining a "roots" stack of candidate SCC roots
// (each with its DFS number and the union of accepting labels seen so far
// in its partial SCC) and an "active" stack of every node currently
// believed live.
package couvscc

import (
	"github.com/arnabSur/tchecker/dbm"
	"github.com/arnabSur/tchecker/graph"
	"github.com/arnabSur/tchecker/stats"
	"github.com/arnabSur/tchecker/system"
	"github.com/arnabSur/tchecker/zg"
)

// Result is the outcome of a couvscc run.
type Result struct {
	Stats   stats.Stats
	Graph   *graph.Graph
	Found   bool
}

// root is one entry of the "roots" stack: the DFS number of the node that
// opened this candidate SCC, and the accepting labels merged into it so
// far.
type root struct {
	dfsnum int
	labels map[string]bool
}

type explorer struct {
	sys    *system.System
	zg     *zg.Zg
	g      *graph.Graph
	labels map[string]bool
	stats  stats.Stats

	dfsnum       map[graph.NodeID]int
	nextNum      int
	dead         map[graph.NodeID]bool
	onActive     map[graph.NodeID]bool
	active       []graph.NodeID
	roots        []root
	found        bool
	sccRootCount int
}

// Run searches for a reachable cycle whose union of location labels
// covers Labels (the acceptance condition), exploring sys's zone graph
// with Couvreur's algorithm.
func Run(sys *system.System, g *zg.Zg, labels map[string]bool) Result {
	ex := &explorer{
		sys:      sys,
		zg:       g,
		g:        graph.New(),
		labels:   labels,
		dfsnum:   map[graph.NodeID]int{},
		dead:     map[graph.NodeID]bool{},
		onActive: map[graph.NodeID]bool{},
	}
	ex.stats.Start()

	for _, r := range g.Initial() {
		if r.Status != zg.OK || ex.found {
			continue
		}
		id := ex.g.AddNode(r.State)
		ex.dfs(id)
	}

	ex.stats.Stop()
	ex.stats.StoredNodes = ex.g.Len()
	ex.stats.SCCRoots = ex.sccRootCount
	ex.stats.AcceptingCycle = ex.found
	return Result{Stats: ex.stats, Graph: ex.g, Found: ex.found}
}

func (ex *explorer) dfs(v graph.NodeID) {
	ex.dfsnum[v] = ex.nextNum
	num := ex.nextNum
	ex.nextNum++
	ex.stats.VisitedNodes++

	ex.active = append(ex.active, v)
	ex.onActive[v] = true
	ex.roots = append(ex.roots, root{dfsnum: num, labels: heldLabels(ex.g.Node(v), ex.zg)})
	ex.sccRootCount++

	for _, r := range ex.zg.Outgoing(ex.g.Node(v).State) {
		if ex.found {
			return
		}
		if r.Status != zg.OK {
			continue
		}
		w, existing := ex.findOrAdd(r.State)
		ex.stats.Transitions++
		if ex.dead[w] {
			continue
		}
		ex.g.AddEdge(v, w, r.Transition.Vedge, graph.Actual)

		if !existing {
			ex.dfs(w)
			if ex.found {
				return
			}
			continue
		}
		if ex.onActive[w] {
			ex.mergeRootsAbove(ex.dfsnum[w])
			if ex.found {
				return
			}
		}
		// w is on active but not a fresh child: it is already covered by
		// some ancestor root (or a sibling whose SCC has since been
		// closed); Couvreur's algorithm takes no further action here.
	}

	if len(ex.roots) > 0 && ex.roots[len(ex.roots)-1].dfsnum == num {
		ex.roots = ex.roots[:len(ex.roots)-1]
		for {
			top := ex.active[len(ex.active)-1]
			ex.active = ex.active[:len(ex.active)-1]
			ex.onActive[top] = false
			ex.dead[top] = true
			if top == v {
				break
			}
		}
	}
}

// mergeRootsAbove pops roots whose dfsnum is strictly greater than bound,
// merging their accepting-label sets into the new top root; if the merged
// set covers the acceptance condition, an accepting lasso exists through
// w and the search halts (spec.md §4.6).
func (ex *explorer) mergeRootsAbove(bound int) {
	merged := map[string]bool{}
	for len(ex.roots) > 0 && ex.roots[len(ex.roots)-1].dfsnum > bound {
		top := ex.roots[len(ex.roots)-1]
		ex.roots = ex.roots[:len(ex.roots)-1]
		for l := range top.labels {
			merged[l] = true
		}
	}
	if len(ex.roots) == 0 {
		return
	}
	newTop := &ex.roots[len(ex.roots)-1]
	for l := range merged {
		newTop.labels[l] = true
	}
	if coversAcceptance(newTop.labels, ex.labels) {
		ex.found = true
	}
}

func coversAcceptance(held, required map[string]bool) bool {
	if len(required) == 0 {
		return false
	}
	for l := range required {
		if !held[l] {
			return false
		}
	}
	return true
}

// findOrAdd returns the graph node id for s, adding it to the graph if it
// has never been seen (identified by an exact discrete+zone match), and
// reports whether it already existed.
func (ex *explorer) findOrAdd(s zg.State) (graph.NodeID, bool) {
	for _, n := range ex.g.Nodes() {
		if sameState(n.State, s) {
			return n.ID, true
		}
	}
	return ex.g.AddNode(s), false
}

func sameState(a, b zg.State) bool {
	if !a.Vloc.Equal(b.Vloc) {
		return false
	}
	if !a.Store.Equal(b.Store) {
		return false
	}
	return dbm.Equal(a.Zone, b.Zone)
}

func heldLabels(n graph.Node, g *zg.Zg) map[string]bool {
	return g.Labels(n.State)
}
