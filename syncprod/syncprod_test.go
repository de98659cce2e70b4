package syncprod

import (
	"testing"

	"github.com/arnabSur/tchecker/system"
)

func mutexSystem(t *testing.T) (*system.System, int, int) {
	b := system.NewBuilder()
	procA := b.AddProcess(system.Process{
		Name: "A",
		Locations: []system.Location{
			{ID: 0, Name: "idle", Initial: true},
			{ID: 1, Name: "crit"},
		},
		Edges: []system.Edge{
			{Source: 0, Target: 1, Event: "enter", Statement: system.Nop},
			{Source: 1, Target: 0, Event: "leave", Statement: system.Nop},
		},
	})
	procB := b.AddProcess(system.Process{
		Name: "B",
		Locations: []system.Location{
			{ID: 0, Name: "idle", Initial: true},
			{ID: 1, Name: "crit"},
		},
		Edges: []system.Edge{
			{Source: 0, Target: 1, Event: "enter", Statement: system.Nop},
			{Source: 1, Target: 0, Event: "leave", Statement: system.Nop},
		},
	})
	sys, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return sys, procA, procB
}

func TestInitialIsCartesianProduct(t *testing.T) {
	sys, _, _ := mutexSystem(t)
	p := New(sys)
	init := p.Initial()
	if len(init) != 1 {
		t.Fatalf("len(Initial()) = %d, want 1 (single initial location per process)", len(init))
	}
	if !init[0].Equal(Vloc{0, 0}) {
		t.Errorf("Initial()[0] = %v, want [0 0]", init[0])
	}
}

func TestOutgoingEnumeratesAsynchronousEdgesIndependently(t *testing.T) {
	sys, _, _ := mutexSystem(t)
	p := New(sys)
	out := p.Outgoing(Vloc{0, 0})
	if len(out) != 2 {
		t.Fatalf("len(Outgoing) = %d, want 2 independent 'enter' edges", len(out))
	}
	for _, je := range out {
		if je.SyncVector != -1 {
			t.Errorf("expected an asynchronous joint edge, got sync vector %d", je.SyncVector)
		}
	}
}

func TestCommittedFilterOnlyAllowsCommittedMoves(t *testing.T) {
	sys, _, _ := mutexSystem(t)
	sys.Processes[0].Locations[0].Committed = true
	p := New(sys)
	out := p.Outgoing(Vloc{0, 0})
	if len(out) != 1 {
		t.Fatalf("len(Outgoing) = %d, want 1 (only A's committed move)", len(out))
	}
	if out[0].Edges[0].Process != 0 {
		t.Errorf("surviving joint edge should move process 0, got %v", out[0].Edges)
	}
}

func TestStepAppliesParticipatingEdges(t *testing.T) {
	sys, _, _ := mutexSystem(t)
	p := New(sys)
	je := p.Outgoing(Vloc{0, 0})[0]
	next, status := Step(Vloc{0, 0}, je)
	if status != StepOK {
		t.Fatalf("Step status = %v, want OK", status)
	}
	if next[je.Edges[0].Process] != je.Edges[0].Edge.Target {
		t.Errorf("participant location not updated: %v", next)
	}
}

func TestStepDetectsIncompatibleEdge(t *testing.T) {
	sys, _, _ := mutexSystem(t)
	p := New(sys)
	je := p.Outgoing(Vloc{0, 0})[0]
	_, status := Step(Vloc{1, 1}, je)
	if status != StepIncompatibleEdge {
		t.Errorf("Step status = %v, want StepIncompatibleEdge", status)
	}
}

func TestSyncVectorRequiresAllStrongParticipants(t *testing.T) {
	b := system.NewBuilder()
	procA := b.AddProcess(system.Process{
		Name: "A",
		Locations: []system.Location{
			{ID: 0, Name: "idle", Initial: true},
			{ID: 1, Name: "crit"},
		},
		Edges: []system.Edge{{Source: 0, Target: 1, Event: "enter", Statement: system.Nop}},
	})
	procB := b.AddProcess(system.Process{
		Name: "B",
		Locations: []system.Location{
			{ID: 0, Name: "idle", Initial: true},
			{ID: 1, Name: "crit"},
		},
		Edges: []system.Edge{{Source: 0, Target: 1, Event: "enter", Statement: system.Nop}},
	})
	b.AddSyncVector(system.SyncVector{Participants: []system.SyncParticipant{
		{Process: procA, Event: "enter", Strong: true},
		{Process: procB, Event: "enter", Strong: true},
	}})
	sys, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	p := New(sys)
	out := p.Outgoing(Vloc{0, 0})
	if len(out) != 1 {
		t.Fatalf("len(Outgoing) = %d, want exactly the one synchronized joint edge", len(out))
	}
	if out[0].SyncVector != 0 || len(out[0].Edges) != 2 {
		t.Errorf("expected a synchronized joint edge moving both processes, got %+v", out[0])
	}
}
