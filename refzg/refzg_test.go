package refzg

import (
	"testing"

	"github.com/arnabSur/tchecker/dbm"
	"github.com/arnabSur/tchecker/numeric"
	"github.com/arnabSur/tchecker/system"
	"github.com/arnabSur/tchecker/zg"
)

// independentClockProcesses grounds spec.md §8 scenario 6: two
// independent single-clock processes with no shared variables and no
// synchronization, checked with spread=0.
func independentClockProcesses(t *testing.T) (*system.System, int, int) {
	b := system.NewBuilder()
	x := b.AddClock("x")
	y := b.AddClock("y")
	b.AddProcess(system.Process{
		Name: "A",
		Locations: []system.Location{
			{ID: 0, Name: "l0", Initial: true},
			{ID: 1, Name: "l1"},
		},
		Edges: []system.Edge{
			{Source: 0, Target: 1, Event: "tickA", Statement: system.Nop, Resets: []system.ClockReset{{Clock: x, Value: 0}}},
		},
	})
	b.AddProcess(system.Process{
		Name: "B",
		Locations: []system.Location{
			{ID: 0, Name: "l0", Initial: true},
			{ID: 1, Name: "l1"},
		},
		Edges: []system.Edge{
			{Source: 0, Target: 1, Event: "tickB", Statement: system.Nop, Resets: []system.ClockReset{{Clock: y, Value: 0}}},
		},
	})
	sys, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return sys, x, y
}

func TestBuildRejectsSingleReferenceClocksWithSharedVariable(t *testing.T) {
	b := system.NewBuilder()
	b.AddProcess(system.Process{
		Name: "A",
		Locations: []system.Location{{ID: 0, Name: "l0", Initial: true}},
		Edges: []system.Edge{
			{Source: 0, Target: 0, Event: "a", Statement: system.Nop, WriteVars: []string{"shared"}},
		},
	})
	b.AddProcess(system.Process{
		Name: "B",
		Locations: []system.Location{{ID: 0, Name: "l0", Initial: true}},
		Edges: []system.Edge{
			{Source: 0, Target: 0, Event: "b", Statement: system.Nop, ReadVars: []string{"shared"}},
		},
	})
	sys, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := Build(sys, SingleReferenceClocks, 0, nil); err == nil {
		t.Fatalf("Build should reject SingleReferenceClocks when a variable is shared across processes")
	}
}

func TestIsValidFinalRequiresSynchronizability(t *testing.T) {
	sys, _, _ := independentClockProcesses(t)
	rg, err := Build(sys, ProcessReferenceClocks, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	init := rg.Initial()
	if len(init) != 1 {
		t.Fatalf("len(Initial()) = %d, want 1", len(init))
	}
	s := init[0].State
	if !rg.IsValidFinal(s) {
		t.Errorf("the shared initial state should be synchronizable at spread 0")
	}

	out := rg.Outgoing(s)
	if len(out) != 2 {
		t.Fatalf("len(Outgoing) = %d, want 2 independent async edges", len(out))
	}
	for _, r := range out {
		if r.Status != zg.OK {
			t.Fatalf("Outgoing status = %v, want OK", r.Status)
		}
	}
}

func TestSynchronizeForcesReferenceClocksEqual(t *testing.T) {
	rz := NewRefZone(2, 0)
	rz.Zone.Constrain([]dbm.Constraint{{I: rz.refIndex(0), J: 0, Bound: 3, Cmp: numeric.LE}})
	if st := rz.Synchronize([]int{0, 1}); st == dbm.EMPTY {
		t.Fatalf("Synchronize should not empty a zone with no conflicting bound on ref 1")
	}
	if !rz.IsSynchronizable(0) {
		t.Errorf("after Synchronize, the two reference clocks should be exactly synchronizable")
	}
}
