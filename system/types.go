// Package system is the discrete model: clocks, integer variables,
// locations, edges, processes, synchronization vectors, and the System
// that bundles them. It has no notion of zones or symbolic exploration —
// those live in dbm, syncprod, zg and refzg — and treats clock guards as
// plain data (dbm.Constraint) the zone graph later evaluates.
package system

import "github.com/arnabSur/tchecker/dbm"

// Clock is a declared clock variable. Id 0 is reserved for the zero clock
// (dbm row/column 0); declared clocks are numbered 1..n in declaration
// order, matching a Zone's dimension 1+len(Clocks).
type Clock struct {
	ID   int
	Name string
}

// IntVar is a declared bounded integer variable.
type IntVar struct {
	ID       int
	Name     string
	Min, Max int
	Init     int
}

// Param is a read-only system parameter (spec.md §12: no write path
// exists anywhere in this module).
type Param struct {
	Name  string
	Value int
}

// Location is a single control location of a process.
type Location struct {
	ID         int
	Process    int
	Name       string
	Labels     map[string]bool
	Initial    bool
	Committed  bool
	Urgent     bool
	Invariant  []dbm.Constraint
}

// HasLabel reports whether the location carries the given label.
func (l Location) HasLabel(label string) bool {
	return l.Labels != nil && l.Labels[label]
}

// ClockReset describes one clock update performed by an edge's statement,
// applied in declaration order (spec.md §4.3 "apply resets in the order
// given by the statement").
type ClockReset struct {
	Clock int // the clock being assigned
	// SumWith is the clock added to Value; 0 (the zero clock) makes this a
	// plain reset_to_value.
	SumWith int
	Value   int
}

// Edge is one directed transition of a process: source and target
// location, the event it offers, a clock guard, an integer-variable
// statement, and the clock resets it performs on top of the statement's
// effect on the discrete store.
type Edge struct {
	ID            int
	Process       int
	Source        int
	Target        int
	Event         string
	Guard         []dbm.Constraint
	Statement     Statement
	Resets        []ClockReset
	ReadVars      []string // precomputed by the caller (spec.md §11)
	WriteVars     []string
}

// SyncParticipant is one process's role in a SyncVector: the event it must
// offer, and whether it is a strong (mandatory) or weak (optional)
// participant.
type SyncParticipant struct {
	Process int
	Event   string
	Strong  bool
}

// SyncVector is a partial map from process to event plus a weak/strong
// flag per participant (spec.md §3).
type SyncVector struct {
	Participants []SyncParticipant
}

// Strong returns the strong participants of the vector.
func (v SyncVector) Strong() []SyncParticipant {
	var out []SyncParticipant
	for _, p := range v.Participants {
		if p.Strong {
			out = append(out, p)
		}
	}
	return out
}

// Weak returns the weak participants of the vector.
func (v SyncVector) Weak() []SyncParticipant {
	var out []SyncParticipant
	for _, p := range v.Participants {
		if !p.Strong {
			out = append(out, p)
		}
	}
	return out
}

// Process is one sequential component of the network: a fixed set of
// locations and edges, with one or more initial locations.
type Process struct {
	ID        int
	Name      string
	Locations []Location
	Edges     []Edge
}

// InitialLocations returns the ids of this process's initial locations.
func (p Process) InitialLocations() []int {
	var out []int
	for _, l := range p.Locations {
		if l.Initial {
			out = append(out, l.ID)
		}
	}
	return out
}

// Location looks up a location by id within the process.
func (p Process) Location(id int) Location {
	return p.Locations[id]
}

// OutgoingEdges returns the edges of the process whose Source is loc.
func (p Process) OutgoingEdges(loc int) []Edge {
	var out []Edge
	for _, e := range p.Edges {
		if e.Source == loc {
			out = append(out, e)
		}
	}
	return out
}

// System is the fully-built, validated discrete model (spec.md §6
// "Input"): processes, clocks, integer variables, parameters, and the
// synchronization vectors governing joint steps.
type System struct {
	Clocks      []Clock
	IntVars     []IntVar
	Params      []Param
	Processes   []Process
	SyncVectors []SyncVector

	// syncedEvents[p][event] is true if process p's event is constrained
	// by some SyncVector, i.e. it can never fire asynchronously.
	syncedEvents []map[string]bool
}

// Dim is the DBM dimension this system's zones must have: the zero clock
// plus every declared clock.
func (s *System) Dim() int {
	return 1 + len(s.Clocks)
}

// IsSynchronized reports whether process p's event is referenced by any
// sync vector, and therefore cannot fire as an asynchronous edge
// (spec.md §4.2 "Asynchronous").
func (s *System) IsSynchronized(process int, event string) bool {
	if process >= len(s.syncedEvents) {
		return false
	}
	return s.syncedEvents[process][event]
}
