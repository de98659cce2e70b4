// Package stats is the shared statistics type exploration algorithms fill
// in as they run (spec.md §6 "Outputs").
package stats

import (
	"fmt"
	"time"
)

// Stats aggregates the counters both covreach and couvscc report.
type Stats struct {
	VisitedNodes   int
	StoredNodes    int
	Subsumptions   int
	Transitions    int
	SCCRoots       int
	AcceptingCycle bool
	RunningTime    time.Duration

	start time.Time
}

// Start marks the beginning of an exploration run.
func (s *Stats) Start() {
	s.start = time.Now()
}

// Stop records the elapsed running time since Start.
func (s *Stats) Stop() {
	s.RunningTime = time.Since(s.start)
}

// String renders a one-line human-readable summary, the form
// cmd/tchecker logs via log.Printf on completion (SPEC_FULL.md §10.2).
func (s *Stats) String() string {
	return fmt.Sprintf(
		"visited=%d stored=%d subsumptions=%d transitions=%d scc_roots=%d accepting_cycle=%t time=%s",
		s.VisitedNodes, s.StoredNodes, s.Subsumptions, s.Transitions, s.SCCRoots, s.AcceptingCycle, s.RunningTime,
	)
}
