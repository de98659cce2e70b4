package system

import (
	"fmt"

	"github.com/benbjohnson/immutable"
	"github.com/segmentio/fasthash/fnv1a"
)

// Statement is the opaque, externally-supplied step function for a single
// edge's integer-variable effect: applying it to a discrete store either
// produces the successor store, or reports that an integer guard failed.
// The core never inspects a Statement's internals — expression/statement
// static analysis lives with the caller (spec.md §1).
type Statement interface {
	Apply(DiscreteStore) (DiscreteStore, bool)
}

// statementFunc adapts a plain function to Statement, the way callers wire
// up edges built in Go rather than parsed from a textual declaration.
type statementFunc func(DiscreteStore) (DiscreteStore, bool)

func (f statementFunc) Apply(s DiscreteStore) (DiscreteStore, bool) { return f(s) }

// StatementFunc builds a Statement from a plain function.
func StatementFunc(f func(DiscreteStore) (DiscreteStore, bool)) Statement {
	return statementFunc(f)
}

// Nop is the identity statement: every guard passes, the store is unchanged.
var Nop Statement = statementFunc(func(s DiscreteStore) (DiscreteStore, bool) { return s, true })

// DiscreteStore is an immutable vector of integer-variable values, indexed
// by IntVar id. Two stores compare equal iff every value is equal; stores
// are never mutated in place, so a System can safely hand the same
// DiscreteStore to many states without copying (spec.md §3 "Discrete
// store").
type DiscreteStore struct {
	values *immutable.List[int]
}

// NewDiscreteStore builds a store from initial values, one per IntVar id in
// order.
func NewDiscreteStore(values []int) DiscreteStore {
	b := immutable.NewListBuilder[int]()
	for _, v := range values {
		b.Append(v)
	}
	return DiscreteStore{values: b.List()}
}

// Len is the number of integer variables carried by the store.
func (s DiscreteStore) Len() int {
	if s.values == nil {
		return 0
	}
	return s.values.Len()
}

// Get returns the value of the integer variable with the given id.
func (s DiscreteStore) Get(id int) int {
	return s.values.Get(id)
}

// Set returns a new store with the variable id set to v; the receiver is
// unchanged.
func (s DiscreteStore) Set(id int, v int) DiscreteStore {
	return DiscreteStore{values: s.values.Set(id, v)}
}

// Equal reports whether two stores hold identical values.
func (s DiscreteStore) Equal(other DiscreteStore) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		if s.Get(i) != other.Get(i) {
			return false
		}
	}
	return true
}

// Hash is a structural hash of the store's values, used to canonicalize
// discrete parts of states alongside vloc and vedge (spec.md §3
// "Lifecycles").
func (s DiscreteStore) Hash() uint32 {
	h := uint64(fnv1a.Init32)
	for i := 0; i < s.Len(); i++ {
		h = fnv1a.AddUint64(h, uint64(uint32(s.Get(i))))
	}
	return uint32(h)
}

func (s DiscreteStore) String() string {
	out := "("
	for i := 0; i < s.Len(); i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%d", s.Get(i))
	}
	return out + ")"
}
