// Package zg is the zone graph: it composes the synchronized product
// (syncprod) with the DBM engine (dbm) to produce symbolic states
// (vloc, discrete store, zone) and the transitions between them
// (spec.md §4.3).
package zg

import (
	"github.com/arnabSur/tchecker/dbm"
	"github.com/arnabSur/tchecker/numeric"
	"github.com/arnabSur/tchecker/pool"
	"github.com/arnabSur/tchecker/syncprod"
	"github.com/arnabSur/tchecker/system"
)

// Status is the outcome of a single zone-graph step (spec.md §7).
type Status int

const (
	OK Status = iota
	IncompatibleEdge
	IntVarViolated
	GuardViolated
	ClocksEmpty
	InvariantViolated
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case IncompatibleEdge:
		return "INCOMPATIBLE_EDGE"
	case IntVarViolated:
		return "INTVAR_VIOLATED"
	case GuardViolated:
		return "CLOCKS_GUARD_VIOLATED"
	case ClocksEmpty:
		return "CLOCKS_EMPTY"
	case InvariantViolated:
		return "INVARIANT_VIOLATED"
	default:
		return "UNKNOWN"
	}
}

// Extrapolation selects which abstraction dbm.Zone.extrapolate* variant a
// Zg applies after every step (spec.md §4.3: "fixed at graph
// construction").
type Extrapolation int

const (
	// ExtraLUPlusLocal is the default policy for covreach (spec.md §4.3).
	ExtraLUPlusLocal Extrapolation = iota
	ExtraLU
	ExtraK
	ExtraNone
)

// State is a symbolic node: a discrete vloc+store and the zone of clock
// valuations reachable along with it.
type State struct {
	Vloc  syncprod.Vloc
	Store system.DiscreteStore
	Zone  *dbm.Zone
}

// Transition is the symbolic edge between two States: the joint discrete
// edge that was fired, rendered as a Vedge.
type Transition struct {
	Vedge syncprod.Vedge
}

// Zg is the zone graph engine over one System.
type Zg struct {
	sys           *system.System
	product       *syncprod.Product
	extrapolation Extrapolation
	ceilings      CeilingFunc

	states *pool.Block[State]

	// vlocs, vedges and zones canonicalize the discrete and zone parts of
	// every produced state/transition through a pool.SharingTable, the
	// "with sharing" exploration layer of spec.md §9. Nil when sharing is
	// disabled, in which case Initial/Outgoing hand back states as built.
	vlocs  *pool.SharingTable[syncprod.Vloc]
	vedges *pool.SharingTable[syncprod.Vedge]
	zones  *pool.SharingTable[*dbm.Zone]
}

// PoolConfig collects the pool sizing and sharing knobs New (and refzg.Build)
// accept through Option (spec.md §6 "block_size, table_size").
type PoolConfig struct {
	Share     bool
	BlockSize int
	TableSize int
}

// DefaultPoolConfig is the config New starts from before applying opts:
// sharing on, matching the real tool's factory_sharing default.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{Share: true, BlockSize: 1024, TableSize: 64}
}

// PoolConfigFrom resolves opts against DefaultPoolConfig, so refzg.Build can
// share the same Option vocabulary as New without duplicating it.
func PoolConfigFrom(opts []Option) PoolConfig {
	cfg := DefaultPoolConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures the pool-backed allocator and sharing tables a Zg
// builds its states from.
type Option func(*PoolConfig)

// WithSharing turns structural sharing of vloc/vedge/zone on or off.
// Sharing is on by default, matching the real tool's factory_sharing,
// which is the only zone-graph constructor tck-reach and tck-liveness
// call (_examples/original_source/src/tck-reach/zg-covreach.cc:171).
func WithSharing(share bool) Option {
	return func(c *PoolConfig) { c.Share = share }
}

// WithPoolSizes sets the state block allocator's block size and the
// sharing tables' initial size hint.
func WithPoolSizes(blockSize, tableSize int) Option {
	return func(c *PoolConfig) {
		if blockSize > 0 {
			c.BlockSize = blockSize
		}
		if tableSize > 0 {
			c.TableSize = tableSize
		}
	}
}

// CeilingFunc supplies the L (lower) and U (upper) bound vectors used by
// LU extrapolation, once for the whole system; the "local clocks" set for
// LU+local is not part of it and is derived per step from the fired edges
// (localClocks). Index 0 (the zero clock) is unused. Callers typically
// precompute one global ceiling from the system's guards and invariants.
type CeilingFunc func(sys *system.System) (l, u []numeric.Bound)

// DefaultCeilings returns a CeilingFunc that sets every clock's L and U to
// numeric.NoBound, the conservative choice when no static ceiling
// analysis is available: every clock is always extrapolated to infinity
// beyond any bound it is ever compared to within a single zone.
func DefaultCeilings() CeilingFunc {
	return func(sys *system.System) (l, u []numeric.Bound) {
		dim := sys.Dim()
		l = make([]numeric.Bound, dim)
		u = make([]numeric.Bound, dim)
		for i := range l {
			l[i] = numeric.NoBound
			u[i] = numeric.NoBound
		}
		return l, u
	}
}

// New builds a Zg over sys with the given extrapolation policy. A nil
// ceilings func defaults to DefaultCeilings(). By default states are
// allocated from a growable pool.Block and their vloc/vedge/zone are
// canonicalized through pool.SharingTable instances; pass WithSharing(false)
// for the unshared exploration layer, or WithPoolSizes to size the pools.
func New(sys *system.System, extra Extrapolation, ceilings CeilingFunc, opts ...Option) *Zg {
	if ceilings == nil {
		ceilings = DefaultCeilings()
	}
	cfg := PoolConfigFrom(opts)
	z := &Zg{
		sys:           sys,
		product:       syncprod.New(sys),
		extrapolation: extra,
		ceilings:      ceilings,
		states:        pool.NewBlock[State](cfg.BlockSize, true),
	}
	if cfg.Share {
		z.vlocs = pool.NewSharingTable[syncprod.Vloc](cfg.TableSize)
		z.vedges = pool.NewSharingTable[syncprod.Vedge](cfg.TableSize)
		z.zones = pool.NewSharingTable[*dbm.Zone](cfg.TableSize)
	}
	return z
}

// canonicalize shares vloc, vedge and zone through z's sharing tables when
// sharing is enabled, and always tracks the state in z's block allocator
// (spec.md §4.4). A run's states are released together when the Zg itself
// is discarded; covreach and couvscc do not free individual states mid-run,
// so Release is not called on the returned handle.
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
	if z.states != nil {
		s = z.states.New(s).Value
	}
	return s, vedge
}

// Initial returns the initial (status, state, transition) triples: the
// zero zone at every initial vloc, with target invariants and elapse
// applied (spec.md §4.3 "Initial state").
func (z *Zg) Initial() []Result {
	var out []Result
	for _, vloc := range z.product.Initial() {
		store := z.initialStore()
		zone := dbm.New(z.sys.Dim())
		zone.Zero()

		status := z.applyInvariants(vloc, zone)
		if status == OK {
			if !z.anyUrgent(vloc) {
				zone.OpenUp()
			}
			z.extrapolate(zone, nil)
		}
		state := State{Vloc: vloc, Store: store, Zone: zone}
		state, _ = z.canonicalize(state, nil)
		out = append(out, Result{
			Status: status,
			State:  state,
		})
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

// Result is one (status, state, transition) triple yielded by Initial or
// Outgoing.
type Result struct {
	Status     Status
	State      State
	Transition Transition
}

// Outgoing enumerates every successor of s via the three-phase step
// pipeline of spec.md §4.3.
func (z *Zg) Outgoing(s State) []Result {
	var out []Result
	for _, je := range z.product.Outgoing(s.Vloc) {
		out = append(out, z.step(s, je))
	}
	return out
}

func (z *Zg) step(s State, je syncprod.JointEdge) Result {
	nextVloc, stepStatus := syncprod.Step(s.Vloc, je)
	transition := Transition{Vedge: je.Vedge(len(s.Vloc))}
	if stepStatus != syncprod.StepOK {
		return Result{Status: IncompatibleEdge, Transition: transition}
	}

	// Phase 1: discrete step.
	store := s.Store
	for _, pe := range je.Edges {
		var ok bool
		store, ok = pe.Edge.Statement.Apply(store)
		if !ok {
			return Result{Status: IntVarViolated, Transition: transition}
		}
	}

	// Phase 2: clock step.
	zone := s.Zone.Clone()
	if st := z.applyInvariants(s.Vloc, zone); st != OK {
		return Result{Status: st, Transition: transition}
	}
	for _, pe := range je.Edges {
		if zone.Constrain(pe.Edge.Guard) == dbm.EMPTY {
			return Result{Status: GuardViolated, Transition: transition}
		}
	}
	for _, pe := range je.Edges {
		for _, r := range pe.Edge.Resets {
			var st dbm.Status
			if r.SumWith == 0 {
				st = zone.ResetToValue(r.Clock, numeric.Bound(r.Value))
			} else {
				st = zone.ResetToSum(r.Clock, r.SumWith, numeric.Bound(r.Value))
			}
			if st == dbm.EMPTY {
				return Result{Status: ClocksEmpty, Transition: transition}
			}
		}
	}
	if st := z.applyInvariants(nextVloc, zone); st != OK {
		return Result{Status: st, Transition: transition}
	}
	if !z.anyUrgent(nextVloc) {
		zone.OpenUp()
	}
	local := localClocks(z.sys.Dim(), je)
	z.extrapolate(zone, local)

	state := State{Vloc: nextVloc, Store: store, Zone: zone}
	state, transition.Vedge = z.canonicalize(state, transition.Vedge)

	return Result{
		Status:     OK,
		State:      state,
		Transition: transition,
	}
}

func (z *Zg) applyInvariants(vloc syncprod.Vloc, zone *dbm.Zone) Status {
	for pid, proc := range z.sys.Processes {
		loc := proc.Location(vloc[pid])
		if zone.Constrain(loc.Invariant) == dbm.EMPTY {
			return InvariantViolated
		}
	}
	return OK
}

func (z *Zg) anyUrgent(vloc syncprod.Vloc) bool {
	for pid, proc := range z.sys.Processes {
		if proc.Location(vloc[pid]).Urgent {
			return true
		}
	}
	return false
}

// localClocks marks every clock read or written by je's edges, for
// ExtraLUPlusLocal (spec.md §4.3, §9).
func localClocks(dim int, je syncprod.JointEdge) []bool {
	local := make([]bool, dim)
	for _, pe := range je.Edges {
		for _, c := range pe.Edge.Guard {
			local[c.I] = true
			local[c.J] = true
		}
		for _, r := range pe.Edge.Resets {
			local[r.Clock] = true
		}
	}
	return local
}

func (z *Zg) extrapolate(zone *dbm.Zone, local []bool) {
	l, u := z.ceilings(z.sys)
	switch z.extrapolation {
	case ExtraLUPlusLocal:
		zone.ExtrapolateLUPlusLocal(l, u, local)
	case ExtraLU:
		zone.ExtrapolateLU(l, u)
	case ExtraK:
		zone.ExtrapolateK(u)
	case ExtraNone:
	}
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

// IsValidFinal reports whether s is an acceptable terminal state: for a
// plain zone graph this only requires a non-empty zone (spec.md §6;
// refzg overrides this with a synchronizability check).
func (z *Zg) IsValidFinal(s State) bool {
	return !s.Zone.IsEmpty()
}
