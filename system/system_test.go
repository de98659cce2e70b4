package system

import "testing"

func twoLocationProcess(name string, event string) Process {
	return Process{
		Name: name,
		Locations: []Location{
			{ID: 0, Name: "l0", Initial: true},
			{ID: 1, Name: "l1"},
		},
		Edges: []Edge{
			{Source: 0, Target: 1, Event: event, Statement: Nop},
		},
	}
}

func TestBuildAcceptsWellFormedSystem(t *testing.T) {
	b := NewBuilder()
	b.AddClock("x")
	pA := b.AddProcess(twoLocationProcess("A", "sync"))
	pB := b.AddProcess(twoLocationProcess("B", "sync"))
	b.AddSyncVector(SyncVector{Participants: []SyncParticipant{
		{Process: pA, Event: "sync", Strong: true},
		{Process: pB, Event: "sync", Strong: true},
	}})

	sys, err := b.Build()
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}
	if sys.Dim() != 2 {
		t.Errorf("Dim() = %d, want 2", sys.Dim())
	}
	if !sys.IsSynchronized(pA, "sync") {
		t.Errorf("IsSynchronized(A, sync) should be true")
	}
	if sys.IsSynchronized(pA, "nonexistent") {
		t.Errorf("IsSynchronized(A, nonexistent) should be false")
	}
}

func TestBuildRejectsDuplicateClockNames(t *testing.T) {
	b := NewBuilder()
	b.AddClock("x")
	b.AddClock("x")
	b.AddProcess(twoLocationProcess("A", "a"))
	if _, err := b.Build(); err == nil {
		t.Fatalf("Build() should reject duplicate clock names")
	}
}

func TestBuildRejectsSyncVectorWithoutStrongParticipant(t *testing.T) {
	b := NewBuilder()
	pA := b.AddProcess(twoLocationProcess("A", "a"))
	b.AddSyncVector(SyncVector{Participants: []SyncParticipant{
		{Process: pA, Event: "a", Strong: false},
	}})
	if _, err := b.Build(); err == nil {
		t.Fatalf("Build() should reject a sync vector with no strong participant")
	}
}

func TestBuildRejectsDuplicateSyncVectors(t *testing.T) {
	b := NewBuilder()
	pA := b.AddProcess(twoLocationProcess("A", "a"))
	pB := b.AddProcess(twoLocationProcess("B", "a"))
	v := SyncVector{Participants: []SyncParticipant{
		{Process: pA, Event: "a", Strong: true},
		{Process: pB, Event: "a", Strong: true},
	}}
	b.AddSyncVector(v)
	b.AddSyncVector(v)
	if _, err := b.Build(); err == nil {
		t.Fatalf("Build() should reject a duplicate sync vector")
	}
}

func TestBuildRejectsProcessWithNoInitialLocation(t *testing.T) {
	b := NewBuilder()
	b.AddProcess(Process{Name: "A", Locations: []Location{{ID: 0, Name: "l0"}}})
	if _, err := b.Build(); err == nil {
		t.Fatalf("Build() should reject a process with no initial location")
	}
}

func TestDiscreteStoreSetIsPersistent(t *testing.T) {
	s0 := NewDiscreteStore([]int{0, 1, 2})
	s1 := s0.Set(1, 99)
	if s0.Get(1) != 1 {
		t.Errorf("Set should not mutate the receiver, got s0.Get(1) = %d", s0.Get(1))
	}
	if s1.Get(1) != 99 {
		t.Errorf("s1.Get(1) = %d, want 99", s1.Get(1))
	}
	if s0.Equal(s1) {
		t.Errorf("s0 and s1 should differ")
	}
}

func TestDiscreteStoreHashMatchesEqualValues(t *testing.T) {
	s0 := NewDiscreteStore([]int{1, 2, 3})
	s1 := NewDiscreteStore([]int{1, 2, 3})
	if s0.Hash() != s1.Hash() {
		t.Errorf("equal stores should hash equal")
	}
}
