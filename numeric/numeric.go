// Package numeric provides the bounded-integer arithmetic and the packed
// bound/strictness representation that every DBM cell is built from.
package numeric

import (
	"fmt"
	"math"

	"github.com/segmentio/fasthash/fnv1a"
)

// Bound is a raw integer bound on a clock difference. Infinity and
// NoBound are clamped sentinels rather than being representable exactly,
// so arithmetic on Bound never overflows int32.
type Bound int32

const (
	// Infinity denotes "no constraint" on a DBM entry (dbm.go uses it, as
	// PlusInfinity, for unconstrained cells such as column 0 after time
	// elapse and the non-zero-clock rows of a universal-positive zone).
	Infinity Bound = math.MaxInt32 / 4

	// NoBound is the distinguished sentinel used by LU-bound vectors
	// (dbm.Zone.ExtrapolateLU, dbm.Zone.ExtrapolateLUPlusLocal) to mean "this clock was never seen in an
	// upper- or lower-bound guard" — any recorded DBM value, however
	// small, then triggers extrapolation to Infinity. It is never the
	// bound of a DBM cell itself.
	NoBound Bound = -1
)

// Add saturates instead of overflowing: Infinity absorbs any finite
// addend, and sums are clamped back into [-Infinity, Infinity].
func Add(a, b Bound) Bound {
	if a == Infinity || b == Infinity {
		return Infinity
	}
	sum := int64(a) + int64(b)
	switch {
	case sum >= int64(Infinity):
		return Infinity
	case sum <= int64(-Infinity):
		return -Infinity
	default:
		return Bound(sum)
	}
}

// Cmp is the strictness of a bound: x ≺ b is either x ≤ b or x < b.
type Cmp uint8

const (
	LE Cmp = iota // ≤, non-strict
	LT            // <, strict
)

func (c Cmp) String() string {
	if c == LT {
		return "<"
	}
	return "<="
}

// Tighter reports whether c is at least as tight as other for equal
// bounds: < dominates ≤.
func (c Cmp) Tighter(other Cmp) bool {
	return c >= other
}

// Entry packs a (Bound, Cmp) pair into a single ordered machine integer:
// Entry(b, LT) < Entry(b, LE) < Entry(b+1, LT) for any b, so plain integer
// comparison of two Entry values is exactly the "is at least as tight"
// partial order DBM tightening and intersection rely on.
type Entry int64

// Pack builds an Entry from a bound and its strictness. Bit 0 carries the
// strictness so that plain integer comparison orders entries correctly;
// the bound is shifted rather than multiplied so Unpack's arithmetic
// right-shift is an exact inverse for negative bounds too.
func Pack(b Bound, c Cmp) Entry {
	e := Entry(b) << 1
	if c == LE {
		e |= 1
	}
	return e
}

// Unpack recovers the bound and strictness from an Entry.
func (e Entry) Unpack() (Bound, Cmp) {
	c := LT
	if e&1 != 0 {
		c = LE
	}
	return Bound(e >> 1), c
}

// LEZero is the Entry for the diagonal of a canonical, non-empty DBM: x - x ≤ 0.
var LEZero = Pack(0, LE)

// PlusInfinity is the Entry meaning "no constraint".
var PlusInfinity = Pack(Infinity, LT)

// Min returns the tighter (smaller) of two entries.
func Min(a, b Entry) Entry {
	if a < b {
		return a
	}
	return b
}

// Sum adds two entries the way Floyd-Warshall closure does: bounds add,
// and the result is strict iff either operand was strict.
func Sum(a, b Entry) Entry {
	ab, ac := a.Unpack()
	bb, bc := b.Unpack()
	cmp := LE
	if ac == LT || bc == LT {
		cmp = LT
	}
	return Pack(Add(ab, bb), cmp)
}

// Shift adds a plain integer delta to an entry's bound, preserving its
// strictness. Used when a reset-to-sum shifts a whole row/column by a
// constant offset.
func (e Entry) Shift(delta Bound) Entry {
	b, c := e.Unpack()
	return Pack(Add(b, delta), c)
}

// IsInfinite reports whether e carries no real constraint.
func (e Entry) IsInfinite() bool {
	b, _ := e.Unpack()
	return b >= Infinity
}

func (e Entry) String() string {
	b, c := e.Unpack()
	if b >= Infinity {
		return "<inf"
	}
	return fmt.Sprintf("%s%d", c, b)
}

// Hash is a cheap structural hash of a single Entry. dbm.Zone.Hash does
// not call it; it folds the raw cell values into its own hash.
func (e Entry) Hash() uint32 {
	return uint32(fnv1a.HashUint64(uint64(e)))
}
