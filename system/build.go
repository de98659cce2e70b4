package system

import (
	"fmt"

	"github.com/mitchellh/hashstructure/v2"
	"go.uber.org/multierr"
)

// Builder assembles a System incrementally and validates it on Build,
// the way a parser's semantic-analysis pass would (spec.md §6 "Input" is
// produced upstream by a parser; Builder stands in for that pass's
// output-construction half so tests and examples/ can build systems
// without a textual front end).
type Builder struct {
	clocks      []Clock
	intVars     []IntVar
	params      []Param
	processes   []Process
	syncVectors []SyncVector
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddClock declares a new clock and returns its id.
func (b *Builder) AddClock(name string) int {
	id := len(b.clocks) + 1 // id 0 is the zero clock
	b.clocks = append(b.clocks, Clock{ID: id, Name: name})
	return id
}

// AddIntVar declares a new bounded integer variable and returns its id.
func (b *Builder) AddIntVar(name string, min, max, init int) int {
	id := len(b.intVars)
	b.intVars = append(b.intVars, IntVar{ID: id, Name: name, Min: min, Max: max, Init: init})
	return id
}

// AddParam declares a read-only parameter.
func (b *Builder) AddParam(name string, value int) {
	b.params = append(b.params, Param{Name: name, Value: value})
}

// AddProcess registers a fully-built process and returns its id. Process
// ids are assigned in the order processes are added, and must match the
// index each process's Location/Edge ids are relative to.
func (b *Builder) AddProcess(p Process) int {
	p.ID = len(b.processes)
	b.processes = append(b.processes, p)
	return p.ID
}

// AddSyncVector registers a synchronization vector.
func (b *Builder) AddSyncVector(v SyncVector) {
	b.syncVectors = append(b.syncVectors, v)
}

// Build validates the declared model and returns the finished System.
// Every problem found is combined into one returned error via multierr,
// rather than stopping at the first (spec.md §7, §10.3).
func (b *Builder) Build() (*System, error) {
	var err error

	err = multierr.Append(err, b.checkDuplicateNames())
	err = multierr.Append(err, b.checkSyncVectors())
	err = multierr.Append(err, b.checkDuplicateSyncVectors())
	err = multierr.Append(err, b.checkParams())

	if err != nil {
		return nil, err
	}

	sys := &System{
		Clocks:      b.clocks,
		IntVars:     b.intVars,
		Params:      b.params,
		Processes:   b.processes,
		SyncVectors: b.syncVectors,
	}
	sys.syncedEvents = make([]map[string]bool, len(sys.Processes))
	for i := range sys.syncedEvents {
		sys.syncedEvents[i] = make(map[string]bool)
	}
	for _, v := range sys.SyncVectors {
		for _, p := range v.Participants {
			sys.syncedEvents[p.Process][p.Event] = true
		}
	}
	return sys, nil
}

func (b *Builder) checkDuplicateNames() error {
	var err error
	seen := map[string]bool{}
	for _, c := range b.clocks {
		if seen[c.Name] {
			err = multierr.Append(err, fmt.Errorf("duplicate clock name %q", c.Name))
		}
		seen[c.Name] = true
	}
	seen = map[string]bool{}
	for _, v := range b.intVars {
		if seen[v.Name] {
			err = multierr.Append(err, fmt.Errorf("duplicate integer variable name %q", v.Name))
		}
		seen[v.Name] = true
		if v.Min > v.Max {
			err = multierr.Append(err, fmt.Errorf("integer variable %q has min %d > max %d", v.Name, v.Min, v.Max))
		}
		if v.Init < v.Min || v.Init > v.Max {
			err = multierr.Append(err, fmt.Errorf("integer variable %q initial value %d outside [%d,%d]", v.Name, v.Init, v.Min, v.Max))
		}
	}
	seen = map[string]bool{}
	for _, p := range b.processes {
		if seen[p.Name] {
			err = multierr.Append(err, fmt.Errorf("duplicate process name %q", p.Name))
		}
		seen[p.Name] = true
		if len(p.InitialLocations()) == 0 {
			err = multierr.Append(err, fmt.Errorf("process %q has no initial location", p.Name))
		}
	}
	return err
}

func (b *Builder) checkSyncVectors() error {
	var err error
	for vi, v := range b.syncVectors {
		seenProc := map[int]bool{}
		for _, p := range v.Participants {
			if p.Process < 0 || p.Process >= len(b.processes) {
				err = multierr.Append(err, fmt.Errorf("sync vector %d references unknown process %d", vi, p.Process))
				continue
			}
			if seenProc[p.Process] {
				err = multierr.Append(err, fmt.Errorf("sync vector %d references process %d more than once", vi, p.Process))
			}
			seenProc[p.Process] = true
			if !b.processes[p.Process].offersEvent(p.Event) {
				err = multierr.Append(err, fmt.Errorf("sync vector %d: process %d never offers event %q", vi, p.Process, p.Event))
			}
		}
		if len(v.Strong()) == 0 {
			err = multierr.Append(err, fmt.Errorf("sync vector %d has no strong participant", vi))
		}
	}
	return err
}

// checkDuplicateSyncVectors hashes each vector's participant set
// structurally (via hashstructure, since SyncVector has no bespoke Hash
// method) and reports any exact duplicate declaration.
func (b *Builder) checkDuplicateSyncVectors() error {
	var err error
	seen := map[uint64]int{}
	for vi, v := range b.syncVectors {
		h, herr := hashstructure.Hash(v, hashstructure.FormatV2, nil)
		if herr != nil {
			err = multierr.Append(err, fmt.Errorf("sync vector %d: %w", vi, herr))
			continue
		}
		if other, ok := seen[h]; ok {
			err = multierr.Append(err, fmt.Errorf("sync vector %d duplicates sync vector %d", vi, other))
			continue
		}
		seen[h] = vi
	}
	return err
}

func (b *Builder) checkParams() error {
	var err error
	seen := map[string]bool{}
	for _, p := range b.params {
		if seen[p.Name] {
			err = multierr.Append(err, fmt.Errorf("duplicate parameter name %q", p.Name))
		}
		seen[p.Name] = true
	}
	return err
}

func (p Process) offersEvent(event string) bool {
	for _, e := range p.Edges {
		if e.Event == event {
			return true
		}
	}
	return false
}
