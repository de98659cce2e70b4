package stats

import "testing"

func TestStartStopRecordsElapsedTime(t *testing.T) {
	var s Stats
	s.Start()
	s.Stop()
	if s.RunningTime < 0 {
		t.Errorf("RunningTime should never be negative, got %v", s.RunningTime)
	}
}

func TestStringIncludesCounters(t *testing.T) {
	s := Stats{VisitedNodes: 3, StoredNodes: 2, AcceptingCycle: true}
	out := s.String()
	if out == "" {
		t.Fatalf("String() should not be empty")
	}
}
