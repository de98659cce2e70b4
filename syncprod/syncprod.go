// Package syncprod computes the synchronized product of a system's
// processes: the cartesian product of their location and edge sets,
// filtered by synchronization vectors and committed locations. It knows
// nothing about clocks or zones — that composition happens one layer up,
// in zg and refzg (spec.md §4.2).
package syncprod

import (
	"sort"

	"github.com/arnabSur/tchecker/system"
	"github.com/segmentio/fasthash/fnv1a"
)

// NoEdge is the vedge sentinel for a process that does not participate in
// a joint step.
const NoEdge = -1

// Vloc is a tuple of locations, one per process, indexed by process id.
type Vloc []int

// Clone returns a copy of the tuple.
func (v Vloc) Clone() Vloc {
	out := make(Vloc, len(v))
	copy(out, v)
	return out
}

// Equal reports structural equality.
func (v Vloc) Equal(other Vloc) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}

// Hash is a structural hash of the tuple, used to canonicalize vlocs
// through a pool.SharingTable (spec.md §4.4).
func (v Vloc) Hash() uint32 {
	h := uint64(fnv1a.Init32)
	for _, loc := range v {
		h = fnv1a.AddUint64(h, uint64(uint32(loc)))
	}
	return uint32(h)
}

// Vedge is a tuple of edge ids, one per process, indexed by process id;
// NoEdge marks a non-participant.
type Vedge []int

// Clone returns a copy of the tuple.
func (v Vedge) Clone() Vedge {
	out := make(Vedge, len(v))
	copy(out, v)
	return out
}

// Equal reports structural equality.
func (v Vedge) Equal(other Vedge) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}

// Hash is a structural hash of the tuple, used to canonicalize vedges
// through a pool.SharingTable (spec.md §4.4).
func (v Vedge) Hash() uint32 {
	h := uint64(fnv1a.Init32)
	for _, edge := range v {
		h = fnv1a.AddUint64(h, uint64(uint32(edge)))
	}
	return uint32(h)
}

// StepStatus is the outcome of applying a Vedge to a Vloc.
type StepStatus int

const (
	StepOK StepStatus = iota
	StepIncompatibleEdge
)

func (s StepStatus) String() string {
	if s == StepOK {
		return "OK"
	}
	return "INCOMPATIBLE_EDGE"
}

// Product enumerates the synchronized product of a system's processes.
type Product struct {
	sys *system.System
}

// New builds a Product over sys.
func New(sys *system.System) *Product {
	return &Product{sys: sys}
}

// Initial returns every initial Vloc: the cartesian product of each
// process's initial-location set (spec.md §4.2 "Initial edges").
func (p *Product) Initial() []Vloc {
	n := len(p.sys.Processes)
	if n == 0 {
		return nil
	}
	choices := make([][]int, n)
	for i, proc := range p.sys.Processes {
		choices[i] = proc.InitialLocations()
	}
	var out []Vloc
	current := make(Vloc, n)
	var rec func(i int)
	rec = func(i int) {
		if i == n {
			out = append(out, current.Clone())
			return
		}
		for _, loc := range choices[i] {
			current[i] = loc
			rec(i + 1)
		}
	}
	rec(0)
	return out
}

// JointEdge is one enabled joint step out of a Vloc: the set of
// participating (process, edge) pairs and the sync vector index, or -1 for
// an asynchronous edge.
type JointEdge struct {
	SyncVector int // -1 for an asynchronous edge
	Edges      []ProcessEdge
}

// ProcessEdge pairs a process id with one of its edges.
type ProcessEdge struct {
	Process int
	Edge    system.Edge
}

// Vedge renders a JointEdge as a Vedge tuple.
func (j JointEdge) Vedge(n int) Vedge {
	v := make(Vedge, n)
	for i := range v {
		v[i] = NoEdge
	}
	for _, pe := range j.Edges {
		v[pe.Process] = pe.Edge.ID
	}
	return v
}

// Outgoing enumerates every joint edge enabled at vloc: asynchronous edges
// of unsynchronized events, then one joint edge per satisfiable sync
// vector, applying the committed-process filter (spec.md §4.2). Order is
// deterministic: asynchronous edges sorted by process id then edge id,
// followed by sync vectors in declaration order.
func (p *Product) Outgoing(vloc Vloc) []JointEdge {
	committed := p.committedProcesses(vloc)

	var out []JointEdge
	for pid, proc := range p.sys.Processes {
		loc := proc.Location(vloc[pid])
		edges := proc.OutgoingEdges(loc.ID)
		sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
		for _, e := range edges {
			if p.sys.IsSynchronized(pid, e.Event) {
				continue
			}
			je := JointEdge{SyncVector: -1, Edges: []ProcessEdge{{Process: pid, Edge: e}}}
			if committedFilterAllows(committed, je) {
				out = append(out, je)
			}
		}
	}

	for vi, sv := range p.sys.SyncVectors {
		for _, je := range p.syncVectorJointEdges(vi, sv, vloc) {
			if committedFilterAllows(committed, je) {
				out = append(out, je)
			}
		}
	}
	return out
}

// syncVectorJointEdges enumerates every way sv can fire at vloc: all
// strong participants must offer their event, and each weak participant
// independently may or may not join (spec.md §4.2 "Synchronized").
func (p *Product) syncVectorJointEdges(svIdx int, sv system.SyncVector, vloc Vloc) []JointEdge {
	strong := sv.Strong()
	weak := sv.Weak()

	strongEdges := make([]system.Edge, len(strong))
	for i, part := range strong {
		e, ok := p.offeredEdge(part.Process, vloc[part.Process], part.Event)
		if !ok {
			return nil // a strong participant does not offer the event: no joint edge
		}
		strongEdges[i] = e
	}

	weakOffers := make([]*system.Edge, len(weak))
	for i, part := range weak {
		if e, ok := p.offeredEdge(part.Process, vloc[part.Process], part.Event); ok {
			weakOffers[i] = &e
		}
	}

	var out []JointEdge
	// Enumerate every subset of weak participants that currently offer
	// their event; subsets of weak participants who don't offer it are
	// never eligible regardless of the bitmask.
	eligible := make([]int, 0, len(weak))
	for i := range weak {
		if weakOffers[i] != nil {
			eligible = append(eligible, i)
		}
	}
	for mask := 0; mask < 1<<len(eligible); mask++ {
		var participants []ProcessEdge
		for i, part := range strong {
			participants = append(participants, ProcessEdge{Process: part.Process, Edge: strongEdges[i]})
		}
		for bit, idx := range eligible {
			if mask&(1<<bit) != 0 {
				part := weak[idx]
				participants = append(participants, ProcessEdge{Process: part.Process, Edge: *weakOffers[idx]})
			}
		}
		sort.Slice(participants, func(i, j int) bool { return participants[i].Process < participants[j].Process })
		out = append(out, JointEdge{SyncVector: svIdx, Edges: participants})
	}
	return out
}

func (p *Product) offeredEdge(process, loc int, event string) (system.Edge, bool) {
	for _, e := range p.sys.Processes[process].OutgoingEdges(loc) {
		if e.Event == event {
			return e, true
		}
	}
	return system.Edge{}, false
}

func (p *Product) committedProcesses(vloc Vloc) map[int]bool {
	committed := map[int]bool{}
	for pid, proc := range p.sys.Processes {
		if proc.Location(vloc[pid]).Committed {
			committed[pid] = true
		}
	}
	return committed
}

// committedFilterAllows implements spec.md §4.2 "Committed filter": if any
// process is committed, only joint edges that move at least one committed
// process are allowed.
func committedFilterAllows(committed map[int]bool, je JointEdge) bool {
	if len(committed) == 0 {
		return true
	}
	for _, pe := range je.Edges {
		if committed[pe.Process] {
			return true
		}
	}
	return false
}

// Step applies a JointEdge to vloc, replacing the location of each
// participating process with its edge's target. Returns StepIncompatibleEdge
// if any participant's edge source does not match vloc (spec.md §4.2
// "Step").
func Step(vloc Vloc, je JointEdge) (Vloc, StepStatus) {
	out := vloc.Clone()
	for _, pe := range je.Edges {
		if vloc[pe.Process] != pe.Edge.Source {
			return nil, StepIncompatibleEdge
		}
		out[pe.Process] = pe.Edge.Target
	}
	return out, StepOK
}
