// Package dbm implements difference bound matrices: the canonical,
// in-place representation of a zone (a convex set of clock valuations)
// that the zone graph steps forward one edge at a time.
//
// A Zone of dimension n holds n*n packed (bound, strictness) Entry
// values; cell (i, j) is the tightest known bound on x_i - x_j. Index 0
// is reserved for the zero clock (in refzg it stays the absolute zero and
// the reference clocks take the indices after it, see the refzg
// package). Canonical form is Floyd-Warshall closure: tightest possible
// bounds everywhere, diagonal (0, ≤), and no negative diagonal entry.
package dbm

import (
	"fmt"
	"strings"

	"github.com/segmentio/fasthash/fnv1a"

	"github.com/arnabSur/tchecker/numeric"
)

// Status is the outcome of an operation that can make a zone empty.
type Status int

const (
	OK Status = iota
	EMPTY
)

// Zone is a square DBM of dimension Dim, stored row-major. It is always
// either canonical or EMPTY — operations never leave it in a
// non-canonical, non-empty state, so every reader can assume closure.
type Zone struct {
	Dim   int
	cells []numeric.Entry
	empty bool
}

// New allocates a Zone of the given dimension set to {0} (every clock,
// including the reference clock, pinned to exactly 0): the canonical
// initial zone before any invariant or elapse is applied.
func New(dim int) *Zone {
	z := &Zone{Dim: dim, cells: make([]numeric.Entry, dim*dim)}
	z.Zero()
	return z
}

func (z *Zone) at(i, j int) numeric.Entry { return z.cells[i*z.Dim+j] }

func (z *Zone) set(i, j int, e numeric.Entry) { z.cells[i*z.Dim+j] = e }

// Zero resets the zone to {x : all clocks = 0}, canonical.
func (z *Zone) Zero() {
	z.empty = false
	for i := 0; i < z.Dim; i++ {
		for j := 0; j < z.Dim; j++ {
			z.set(i, j, numeric.LEZero)
		}
	}
}

// UniversalPositive resets the zone to {x : x >= 0}, canonical.
func (z *Zone) UniversalPositive() {
	z.empty = false
	for i := 0; i < z.Dim; i++ {
		for j := 0; j < z.Dim; j++ {
			switch {
			case i == j:
				z.set(i, j, numeric.LEZero)
			case i == 0:
				// reference clock minus anything is at most 0: x_0 - x_i <= 0
				z.set(i, j, numeric.LEZero)
			default:
				z.set(i, j, numeric.PlusInfinity)
			}
		}
	}
}

// IsEmpty reports whether the zone is empty. Canonical zones detect
// emptiness purely from a negative diagonal entry.
func (z *Zone) IsEmpty() bool {
	if z.empty {
		return true
	}
	for i := 0; i < z.Dim; i++ {
		if z.at(i, i) < numeric.LEZero {
			return true
		}
	}
	return false
}

func (z *Zone) markEmptyIfDiagonalNegative() Status {
	if z.IsEmpty() {
		z.empty = true
		return EMPTY
	}
	return OK
}

// Clone deep-copies the zone.
func (z *Zone) Clone() *Zone {
	out := &Zone{Dim: z.Dim, cells: make([]numeric.Entry, len(z.cells)), empty: z.empty}
	copy(out.cells, z.cells)
	return out
}

// CopyFrom overwrites the receiver's cells with other's. Dimensions must match.
func (z *Zone) CopyFrom(other *Zone) {
	if z.Dim != other.Dim {
		panic(fmt.Sprintf("dbm: dimension mismatch %d != %d", z.Dim, other.Dim))
	}
	copy(z.cells, other.cells)
	z.empty = other.empty
}

// Tighten sets cell (i, j) to the tighter of its current value and v,
// then restores canonical form if that actually changed anything. It
// returns EMPTY iff the zone becomes empty as a result.
func (z *Zone) Tighten(i, j int, v numeric.Entry) Status {
	if z.IsEmpty() {
		return EMPTY
	}
	if numeric.Min(z.at(i, j), v) == z.at(i, j) {
		return OK // v is not tighter than what we already have
	}
	z.set(i, j, v)
	return z.canonicalizeIncremental(i, j)
}

// canonicalizeIncremental restores closure after tightening a single
// cell (i, j): every path that could now be shortened must route through
// i or j, so it is enough to run two Floyd-Warshall rounds, pivot i and
// then pivot j, instead of rerunning the full closure.
func (z *Zone) canonicalizeIncremental(i, j int) Status {
	n := z.Dim
	for _, k := range [2]int{i, j} {
		for a := 0; a < n; a++ {
			for b := 0; b < n; b++ {
				viaK := numeric.Sum(z.at(a, k), z.at(k, b))
				if viaK < z.at(a, b) {
					z.set(a, b, viaK)
				}
			}
		}
	}
	return z.markEmptyIfDiagonalNegative()
}

// Canonicalize runs full Floyd-Warshall closure on the (min, +)
// semiring. Always safe to call on any matrix of packed entries, used
// after bulk cell edits that Tighten's incremental shortcut does not
// cover (Intersection, ResetToValue, ResetToSum).
func (z *Zone) Canonicalize() Status {
	n := z.Dim
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if z.at(i, k).IsInfinite() {
				continue
			}
			for j := 0; j < n; j++ {
				viaK := numeric.Sum(z.at(i, k), z.at(k, j))
				if viaK < z.at(i, j) {
					z.set(i, j, viaK)
				}
			}
		}
	}
	return z.markEmptyIfDiagonalNegative()
}

// Constraint is one atomic clock constraint x_i - x_j ≺ b.
type Constraint struct {
	I, J  int
	Bound numeric.Bound
	Cmp   numeric.Cmp
}

// Constrain applies every atomic constraint by Tighten, short-circuiting
// as soon as the zone becomes empty.
func (z *Zone) Constrain(cc []Constraint) Status {
	for _, c := range cc {
		if z.Tighten(c.I, c.J, numeric.Pack(c.Bound, c.Cmp)) == EMPTY {
			return EMPTY
		}
	}
	return OK
}

// ResetToValue sets x_i := v (v >= 0): row and column i are recomputed as
// if x_i had always been exactly v relative to the reference clock.
func (z *Zone) ResetToValue(i int, v numeric.Bound) Status {
	if v < 0 {
		panic("dbm: ResetToValue requires v >= 0")
	}
	for j := 0; j < z.Dim; j++ {
		if j == i {
			continue
		}
		z.set(i, j, numeric.Sum(numeric.Pack(v, numeric.LE), z.at(0, j)))
		z.set(j, i, numeric.Sum(z.at(j, 0), numeric.Pack(-v, numeric.LE)))
	}
	z.set(i, i, numeric.LEZero)
	return z.Canonicalize()
}

// ResetToSum sets x_i := x_j + v. Row and column i are overwritten with
// row and column j shifted by v (x_i - x_k ≤ D[j,k] + v and
// x_k - x_i ≤ D[k,j] - v), then the zone is re-closed.
func (z *Zone) ResetToSum(i, j int, v numeric.Bound) Status {
	if i == j {
		// x_i := x_i + v: shift row/column i directly.
		for k := 0; k < z.Dim; k++ {
			if k == i {
				continue
			}
			z.set(i, k, z.at(i, k).Shift(v))
			z.set(k, i, z.at(k, i).Shift(-v))
		}
		return z.Canonicalize()
	}
	for k := 0; k < z.Dim; k++ {
		if k == i {
			continue
		}
		z.set(i, k, numeric.Sum(numeric.Pack(v, numeric.LE), z.at(j, k)))
		z.set(k, i, numeric.Sum(z.at(k, j), numeric.Pack(-v, numeric.LE)))
	}
	z.set(i, i, numeric.LEZero)
	return z.Canonicalize()
}

// OpenUp is time elapse: every clock may grow without bound, so every
// upper bound against the reference clock (column 0, rows > 0) is lifted.
func (z *Zone) OpenUp() {
	for i := 1; i < z.Dim; i++ {
		z.set(i, 0, numeric.PlusInfinity)
	}
}

// Intersection writes the tightest zone satisfying both a and b into the
// receiver (which must already have the same dimension).
func (z *Zone) Intersection(a, b *Zone) Status {
	if a.Dim != b.Dim || a.Dim != z.Dim {
		panic("dbm: Intersection requires matching dimensions")
	}
	for idx := range z.cells {
		z.cells[idx] = numeric.Min(a.cells[idx], b.cells[idx])
	}
	z.empty = false
	return z.Canonicalize()
}

// Inclusion reports A ⊆ B: every cell of A is at least as tight as the
// corresponding cell of B. Both must be canonical.
func Inclusion(a, b *Zone) bool {
	if a.Dim != b.Dim {
		panic("dbm: Inclusion requires matching dimensions")
	}
	if a.IsEmpty() {
		return true
	}
	if b.IsEmpty() {
		return false
	}
	for idx := range a.cells {
		if a.cells[idx] > b.cells[idx] {
			return false
		}
	}
	return true
}

// Equal reports structural equality of two canonical zones.
func Equal(a, b *Zone) bool {
	if a.Dim != b.Dim {
		return false
	}
	if a.IsEmpty() != b.IsEmpty() {
		return false
	}
	if a.IsEmpty() {
		return true
	}
	for idx := range a.cells {
		if a.cells[idx] != b.cells[idx] {
			return false
		}
	}
	return true
}

// Equal reports structural equality against other, satisfying
// pool.Hashable so canonical zones can be shared through a
// pool.SharingTable (spec.md §4.4).
func (z *Zone) Equal(other *Zone) bool {
	return Equal(z, other)
}

// ExtrapolateK is classical k-bounds extrapolation: any bound beyond the
// corresponding clock's ceiling in U collapses to infinity.
func (z *Zone) ExtrapolateK(u []numeric.Bound) {
	z.extrapolate(u, u, nil)
}

// ExtrapolateLU applies the coarser LU-extrapolation, which only needs an
// upper ceiling U[i] for upper-bound guards on x_i and a lower ceiling
// L[i] for lower-bound guards, and is still precise enough to preserve
// reachability of location-based properties (the invariant covreach relies
// on for soundness/completeness, §8).
func (z *Zone) ExtrapolateLU(l, u []numeric.Bound) {
	z.extrapolate(l, u, nil)
}

// ExtrapolateLUPlusLocal is LU-extrapolation refined by a per-step set of
// "local" clocks (those read or written by the edge that produced this
// zone): local clocks are left untouched by the coarsening so that a
// guard/reset on the very same step that built this zone is never
// needlessly abstracted away. This is the graph construction's default
// extrapolation policy (SPEC_FULL.md §10.1, spec.md §4.3).
func (z *Zone) ExtrapolateLUPlusLocal(l, u []numeric.Bound, local []bool) {
	z.extrapolate(l, u, local)
}

func (z *Zone) extrapolate(l, u []numeric.Bound, local []bool) {
	n := z.Dim
	if len(l) != n || len(u) != n {
		panic("dbm: extrapolation bound vectors must have zone dimension")
	}
	if z.IsEmpty() {
		return
	}

	isLocal := func(i int) bool {
		return local != nil && i < len(local) && local[i]
	}

	// A clock "exceeds" once either its upper bound against the reference
	// clock is beyond U[i], or its lower bound is beyond L[i]. z.at(0,i)
	// packs x_0 - x_i ≺ b, i.e. a lower bound of -b on x_i, so the lower
	// check is against -b, not b directly.
	exceeded := make([]bool, n)
	for i := 1; i < n; i++ {
		if isLocal(i) {
			continue
		}
		upperBound, _ := z.at(i, 0).Unpack()
		if aboveCeiling(upperBound, u[i]) {
			exceeded[i] = true
		}
		negatedLowerBound, _ := z.at(0, i).Unpack()
		if aboveCeiling(-negatedLowerBound, l[i]) {
			exceeded[i] = true
		}
	}

	for i := 1; i < n; i++ {
		if exceeded[i] {
			z.set(i, 0, numeric.PlusInfinity)
			z.set(0, i, numeric.PlusInfinity)
		}
	}

	// extra_lu also resets every direct cross-clock bound D(i,j) between
	// two non-local clocks once either one has exceeded its ceiling: the
	// reference-clock row/column is not the only place a stale precise
	// bound can survive, since Floyd-Warshall closure only ever tightens
	// (min), never loosens, so a direct D(i,j) left untouched here would
	// never be lifted back to infinity by Canonicalize below.
	for i := 1; i < n; i++ {
		if isLocal(i) {
			continue
		}
		for j := 1; j < n; j++ {
			if i == j || isLocal(j) {
				continue
			}
			if exceeded[i] || exceeded[j] {
				z.set(i, j, numeric.PlusInfinity)
			}
		}
	}

	// Lifting individual bounds to infinity can break closure (a path
	// through i that used to be tighter than a direct i,j bound may now
	// be the only finite witness); re-close before handing the zone back.
	z.Canonicalize()
}

// aboveCeiling reports whether a recorded bound forces extrapolation
// given a ceiling that may be the NoBound sentinel (always extrapolate).
func aboveCeiling(b, ceiling numeric.Bound) bool {
	if b >= numeric.Infinity {
		return false
	}
	if ceiling == numeric.NoBound {
		return true
	}
	return int64(b) > int64(ceiling)
}

// String renders the zone in the canonical textual form the spec's
// output interface names: "x-y<=k" / "x-y<k" per non-trivial cell,
// separated by "&&", matching the zone attribute dump format.
func (z *Zone) String() string {
	if z.IsEmpty() {
		return "false"
	}
	var parts []string
	for i := 0; i < z.Dim; i++ {
		for j := 0; j < z.Dim; j++ {
			if i == j {
				continue
			}
			e := z.at(i, j)
			if e.IsInfinite() {
				continue
			}
			b, cmp := e.Unpack()
			parts = append(parts, fmt.Sprintf("x%d-x%d%s%d", i, j, cmp, b))
		}
	}
	if len(parts) == 0 {
		return "true"
	}
	return strings.Join(parts, "&&")
}

// Hash is a structural hash of the canonical matrix, used by pool.Share
// to canonicalize zones. covreach groups cover candidates by discrete part
// only and does not use it.
func (z *Zone) Hash() uint32 {
	if z.IsEmpty() {
		return fnv1a.HashUint32(0xE7370713)
	}
	h := uint64(fnv1a.Init32)
	for _, e := range z.cells {
		h = fnv1a.AddUint64(h, uint64(e))
	}
	return uint32(h)
}
