// Package refzg is the reference-clock zone graph variant: it augments
// the plain zone graph with a reference clock per process (or one shared
// reference clock for the whole system) and checks, through
// IsSynchronizable, whether those reference clocks can agree within a
// bounded "spread" (spec.md §4.1 "Reference-clock DBMs", §11). Time
// elapse is dbm.Zone.OpenUp, which advances every reference clock and
// every declared clock at the same rate, so reference clocks that start
// equal stay equal: processes do not desynchronize from one another.
package refzg

import (
	"fmt"

	"github.com/arnabSur/tchecker/dbm"
	"github.com/arnabSur/tchecker/numeric"
	"github.com/arnabSur/tchecker/pool"
	"github.com/arnabSur/tchecker/syncprod"
	"github.com/arnabSur/tchecker/system"
	"github.com/arnabSur/tchecker/zg"
)

// Kind selects how many reference clocks the system has, mirroring
// tchecker::refzg::reference_clock_variables_type_t (spec.md §11).
type Kind int

const (
	// SingleReferenceClocks gives every process the same reference clock.
	// Only sound when no variable is read or written by more than one
	// process; Build rejects it otherwise.
	SingleReferenceClocks Kind = iota
	// ProcessReferenceClocks gives each process its own reference clock.
	ProcessReferenceClocks
)

// RefZone is a DBM whose dimension is 1 (absolute zero) + R (reference
// clocks) + len(clocks). Index 0 is a fixed, never-constrained absolute
// zero that lets OpenUp (dbm.Zone's ordinary time-elapse operation) make
// every reference clock and every declared clock advance at the same real
// rate; indices 1..R are the reference clocks; indices R+1..R+n are the
// declared clocks, offset by R from their system.Clock ids.
type RefZone struct {
	Zone *dbm.Zone
	R    int
}

// NewRefZone allocates a RefZone of r reference clocks and n declared
// clocks, set to {0}.
func NewRefZone(r, n int) *RefZone {
	z := dbm.New(1 + r + n)
	z.Zero()
	return &RefZone{Zone: z, R: r}
}

// clockIndex maps a declared clock id (1-based, as in system.Clock) to
// this RefZone's inner dimension.
func (rz *RefZone) clockIndex(clockID int) int {
	return rz.R + clockID
}

// refIndex maps a reference clock number (0-based) to the inner dimension.
func (rz *RefZone) refIndex(ref int) int {
	return 1 + ref
}

// Synchronize intersects every pair of the given reference clocks to be
// exactly equal: the sync_refclocks step fired by a joint edge (spec.md
// §11 "sync_refclocks").
func (rz *RefZone) Synchronize(refs []int) dbm.Status {
	for i := 0; i < len(refs); i++ {
		for j := i + 1; j < len(refs); j++ {
			a, b := rz.refIndex(refs[i]), rz.refIndex(refs[j])
			if st := rz.Zone.Constrain([]dbm.Constraint{
				{I: a, J: b, Bound: 0, Cmp: numeric.LE},
				{I: b, J: a, Bound: 0, Cmp: numeric.LE},
			}); st == dbm.EMPTY {
				return dbm.EMPTY
			}
		}
	}
	return dbm.OK
}

// IsSynchronizable reports whether the zone is non-empty and every pair of
// reference clocks can agree within spread (spread=0 means "can be made
// exactly equal"), without mutating the receiver (spec.md §11 "Spread").
func (rz *RefZone) IsSynchronizable(spread numeric.Bound) bool {
	if rz.Zone.IsEmpty() {
		return false
	}
	probe := rz.Zone.Clone()
	for i := 0; i < rz.R; i++ {
		for j := 0; j < rz.R; j++ {
			if i == j {
				continue
			}
			a, b := rz.refIndex(i), rz.refIndex(j)
			if probe.Constrain([]dbm.Constraint{{I: a, J: b, Bound: spread, Cmp: numeric.LE}}) == dbm.EMPTY {
				return false
			}
		}
	}
	return true
}

// Clone deep-copies the RefZone.
func (rz *RefZone) Clone() *RefZone {
	return &RefZone{Zone: rz.Zone.Clone(), R: rz.R}
}

// Hash delegates to the inner zone's structural hash, so RefZones can be
// canonicalized through a pool.SharingTable like a plain dbm.Zone.
func (rz *RefZone) Hash() uint32 {
	return rz.Zone.Hash()
}

// Equal reports structural equality of both the reference-clock count and
// the inner zone.
func (rz *RefZone) Equal(other *RefZone) bool {
	return rz.R == other.R && dbm.Equal(rz.Zone, other.Zone)
}

// State mirrors zg.State with a RefZone instead of a plain dbm.Zone.
type State struct {
	Vloc  syncprod.Vloc
	Store system.DiscreteStore
	Zone  *RefZone
}

// Result mirrors zg.Result.
type Result struct {
	Status     zg.Status
	State      State
	Transition zg.Transition
}

// Zg is the reference-clock zone graph engine.
type Zg struct {
	sys      *system.System
	product  *syncprod.Product
	kind     Kind
	spread   numeric.Bound
	refCount int
	ceilings zg.CeilingFunc

	vlocs  *pool.SharingTable[syncprod.Vloc]
	vedges *pool.SharingTable[syncprod.Vedge]
	zones  *pool.SharingTable[*RefZone]
}

// Build validates kind against sys and returns a Zg. SingleReferenceClocks
// is rejected when more than one process reads or writes the same
// variable, mirroring the original implementation's constructor guard
// (spec.md §11). Sharing of vloc/vedge/zone is on by default, like zg.New;
// pass zg.WithSharing(false) or zg.WithPoolSizes to change that.
func Build(sys *system.System, kind Kind, spread numeric.Bound, ceilings zg.CeilingFunc, opts ...zg.Option) (*Zg, error) {
	if kind == SingleReferenceClocks && len(sys.Processes) > 1 {
		if shared, name := sharedVariable(sys); shared {
			return nil, fmt.Errorf("refzg: SingleReferenceClocks is unsound: variable %q is shared across processes", name)
		}
	}
	refCount := 1
	if kind == ProcessReferenceClocks {
		refCount = len(sys.Processes)
	}
	if ceilings == nil {
		ceilings = zg.DefaultCeilings()
	}
	cfg := zg.PoolConfigFrom(opts)
	z := &Zg{sys: sys, product: syncprod.New(sys), kind: kind, spread: spread, refCount: refCount, ceilings: ceilings}
	if cfg.Share {
		z.vlocs = pool.NewSharingTable[syncprod.Vloc](cfg.TableSize)
		z.vedges = pool.NewSharingTable[syncprod.Vedge](cfg.TableSize)
		z.zones = pool.NewSharingTable[*RefZone](cfg.TableSize)
	}
	return z, nil
}

func (z *Zg) canonicalize(s State, vedge syncprod.Vedge) (State, syncprod.Vedge) {
	if z.vlocs != nil {
		s.Vloc = z.vlocs.Share(s.Vloc)
	}
	if z.zones != nil {
		s.Zone = z.zones.Share(s.Zone)
	}
	if z.vedges != nil {
		vedge = z.vedges.Share(vedge)
	}
	return s, vedge
}

func sharedVariable(sys *system.System) (bool, string) {
	owners := map[string]int{}
	for pid, proc := range sys.Processes {
		for _, e := range proc.Edges {
			for _, name := range append(append([]string{}, e.ReadVars...), e.WriteVars...) {
				if owner, ok := owners[name]; ok && owner != pid {
					return true, name
				}
				owners[name] = pid
			}
		}
	}
	return false, ""
}

func (z *Zg) refOf(process int) int {
	if z.kind == SingleReferenceClocks {
		return 0
	}
	return process
}

// Initial returns the initial states, one per initial Vloc, with the
// absolute-zero elapse already applied.
func (z *Zg) Initial() []Result {
	var out []Result
	for _, vloc := range z.product.Initial() {
		store := z.initialStore()
		rz := NewRefZone(z.refCount, len(z.sys.Clocks))
		status := z.applyInvariants(vloc, rz)
		if status == zg.OK {
			if !z.anyUrgent(vloc) {
				rz.Zone.OpenUp()
			}
			z.extrapolate(rz, nil)
		}
		state, _ := z.canonicalize(State{Vloc: vloc, Store: store, Zone: rz}, nil)
		out = append(out, Result{Status: status, State: state})
	}
	return out
}

func (z *Zg) initialStore() system.DiscreteStore {
	values := make([]int, len(z.sys.IntVars))
	for i, v := range z.sys.IntVars {
		values[i] = v.Init
	}
	return system.NewDiscreteStore(values)
}

// Outgoing enumerates successors of s, sequencing sync_refclocks between
// the discrete step and clock invariants/resets (spec.md §11).
func (z *Zg) Outgoing(s State) []Result {
	var out []Result
	for _, je := range z.product.Outgoing(s.Vloc) {
		out = append(out, z.step(s, je))
	}
	return out
}

func (z *Zg) step(s State, je syncprod.JointEdge) Result {
	nextVloc, stepStatus := syncprod.Step(s.Vloc, je)
	transition := zg.Transition{Vedge: je.Vedge(len(s.Vloc))}
	if stepStatus != syncprod.StepOK {
		return Result{Status: zg.IncompatibleEdge, Transition: transition}
	}

	store := s.Store
	for _, pe := range je.Edges {
		var ok bool
		store, ok = pe.Edge.Statement.Apply(store)
		if !ok {
			return Result{Status: zg.IntVarViolated, Transition: transition}
		}
	}

	rz := s.Zone.Clone()

	var refs []int
	for _, pe := range je.Edges {
		refs = append(refs, z.refOf(pe.Process))
	}
	if rz.Synchronize(refs) == dbm.EMPTY {
		return Result{Status: zg.ClocksEmpty, Transition: transition}
	}

	if st := z.applyInvariants(s.Vloc, rz); st != zg.OK {
		return Result{Status: st, Transition: transition}
	}
	for _, pe := range je.Edges {
		if guardOnRefZone(rz, pe.Edge.Guard) == dbm.EMPTY {
			return Result{Status: zg.GuardViolated, Transition: transition}
		}
	}
	for _, pe := range je.Edges {
		for _, r := range pe.Edge.Resets {
			var st dbm.Status
			ci := rz.clockIndex(r.Clock)
			if r.SumWith == 0 {
				st = rz.Zone.ResetToValue(ci, numeric.Bound(r.Value))
			} else {
				st = rz.Zone.ResetToSum(ci, rz.clockIndex(r.SumWith), numeric.Bound(r.Value))
			}
			if st == dbm.EMPTY {
				return Result{Status: zg.ClocksEmpty, Transition: transition}
			}
		}
	}
	if st := z.applyInvariants(nextVloc, rz); st != zg.OK {
		return Result{Status: st, Transition: transition}
	}
	if !z.anyUrgent(nextVloc) {
		rz.Zone.OpenUp()
	}
	z.extrapolate(rz, localClocks(rz, je))

	state := State{Vloc: nextVloc, Store: store, Zone: rz}
	state, transition.Vedge = z.canonicalize(state, transition.Vedge)

	return Result{
		Status:     zg.OK,
		State:      state,
		Transition: transition,
	}
}

// guardOnRefZone applies a guard whose clock indices are system.Clock ids
// by remapping them through the RefZone's clock offset.
func guardOnRefZone(rz *RefZone, guard []dbm.Constraint) dbm.Status {
	remapped := make([]dbm.Constraint, len(guard))
	for i, c := range guard {
		remapped[i] = dbm.Constraint{I: remapIndex(rz, c.I), J: remapIndex(rz, c.J), Bound: c.Bound, Cmp: c.Cmp}
	}
	return rz.Zone.Constrain(remapped)
}

func remapIndex(rz *RefZone, i int) int {
	if i == 0 {
		return 0 // the zero clock maps to the absolute zero, not a reference clock
	}
	return rz.clockIndex(i)
}

func (z *Zg) applyInvariants(vloc syncprod.Vloc, rz *RefZone) zg.Status {
	for pid, proc := range z.sys.Processes {
		loc := proc.Location(vloc[pid])
		if guardOnRefZone(rz, loc.Invariant) == dbm.EMPTY {
			return zg.InvariantViolated
		}
	}
	return zg.OK
}

func (z *Zg) anyUrgent(vloc syncprod.Vloc) bool {
	for pid, proc := range z.sys.Processes {
		if proc.Location(vloc[pid]).Urgent {
			return true
		}
	}
	return false
}

func localClocks(rz *RefZone, je syncprod.JointEdge) []bool {
	local := make([]bool, rz.Zone.Dim)
	for _, pe := range je.Edges {
		for _, c := range pe.Edge.Guard {
			local[remapIndex(rz, c.I)] = true
			local[remapIndex(rz, c.J)] = true
		}
		for _, r := range pe.Edge.Resets {
			local[rz.clockIndex(r.Clock)] = true
		}
	}
	return local
}

func (z *Zg) extrapolate(rz *RefZone, local []bool) {
	l, u := z.ceilings(z.sys)
	dim := rz.Zone.Dim
	ll := make([]numeric.Bound, dim)
	uu := make([]numeric.Bound, dim)
	for i := range ll {
		ll[i] = numeric.NoBound
		uu[i] = numeric.NoBound
	}
	// Reference clocks are never extrapolated: they carry the
	// synchronization information IsSynchronizable depends on, not a
	// per-clock guard ceiling. An infinite ceiling means "never above
	// it", so extrapolate keeps their bounds against the absolute zero and
	// against each other; only their cross bounds with a declared clock
	// that exceeds its own ceiling are cleared.
	for ref := 0; ref < rz.R; ref++ {
		idx := rz.refIndex(ref)
		ll[idx] = numeric.Infinity
		uu[idx] = numeric.Infinity
	}
	for cid := range z.sys.Clocks {
		idx := rz.clockIndex(cid + 1)
		if idx < dim {
			if cid+1 < len(l) {
				ll[idx] = l[cid+1]
			}
			if cid+1 < len(u) {
				uu[idx] = u[cid+1]
			}
		}
	}
	if local == nil {
		rz.Zone.ExtrapolateLU(ll, uu)
		return
	}
	rz.Zone.ExtrapolateLUPlusLocal(ll, uu, local)
}

// Labels returns the union of labels held at s's current vloc.
func (z *Zg) Labels(s State) map[string]bool {
	labels := map[string]bool{}
	for pid, proc := range z.sys.Processes {
		for label := range proc.Location(s.Vloc[pid]).Labels {
			labels[label] = true
		}
	}
	return labels
}

// IsValidFinal requires a non-empty, synchronizable zone under the
// configured spread (spec.md §6, §11).
func (z *Zg) IsValidFinal(s State) bool {
	return s.Zone.IsSynchronizable(z.spread)
}
