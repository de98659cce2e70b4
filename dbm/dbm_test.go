package dbm

import (
	"testing"

	"github.com/arnabSur/tchecker/numeric"
)

func freshUniversal(dim int) *Zone {
	z := New(dim)
	z.UniversalPositive()
	return z
}

func TestOpenUpIsIdempotent(t *testing.T) {
	z := freshUniversal(3)
	z.Constrain([]Constraint{{I: 1, J: 0, Bound: 5, Cmp: numeric.LE}})
	z.OpenUp()
	once := z.Clone()
	z.OpenUp()
	if !Equal(once, z) {
		t.Errorf("OpenUp is not idempotent: %v != %v", once, z)
	}
}

func TestConstrainWithNoConstraintsIsIdentity(t *testing.T) {
	z := freshUniversal(3)
	before := z.Clone()
	if st := z.Constrain(nil); st != OK {
		t.Fatalf("Constrain(nil) = %v, want OK", st)
	}
	if !Equal(before, z) {
		t.Errorf("Constrain(nil) changed the zone")
	}
}

func TestIntersectionWithSelfIsIdentity(t *testing.T) {
	z := freshUniversal(3)
	z.Constrain([]Constraint{{I: 1, J: 0, Bound: 5, Cmp: numeric.LE}})
	out := New(3)
	out.Intersection(z, z)
	if !Equal(out, z) {
		t.Errorf("Intersection(D, D) != D")
	}
}

func TestInclusionAfterResetToZero(t *testing.T) {
	// reset(D, x1 := 0) included in D ∧ x1 >= 0.
	z := freshUniversal(3)
	z.Constrain([]Constraint{{I: 1, J: 0, Bound: 10, Cmp: numeric.LE}, {I: 2, J: 0, Bound: 10, Cmp: numeric.LE}})
	reset := z.Clone()
	reset.ResetToValue(1, 0)

	constrained := z.Clone()
	constrained.Constrain([]Constraint{{I: 0, J: 1, Bound: 0, Cmp: numeric.LE}}) // x1 >= 0

	if !Inclusion(reset, constrained) {
		t.Errorf("reset(D, x1:=0) should be included in D ∧ x1 >= 0")
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	z := freshUniversal(3)
	z.Constrain([]Constraint{{I: 1, J: 2, Bound: 3, Cmp: numeric.LT}, {I: 2, J: 0, Bound: 7, Cmp: numeric.LE}})
	once := z.Clone()
	once.Canonicalize()
	twice := once.Clone()
	twice.Canonicalize()
	if !Equal(once, twice) {
		t.Errorf("Canonicalize is not idempotent")
	}
}

func TestExtrapolateLUOverApproximates(t *testing.T) {
	z := freshUniversal(3)
	z.Constrain([]Constraint{{I: 1, J: 0, Bound: 100, Cmp: numeric.LE}})
	before := z.Clone()
	l := []numeric.Bound{0, 2, 2}
	u := []numeric.Bound{0, 2, 2}
	z.ExtrapolateLU(l, u)
	if !Inclusion(before, z) {
		t.Errorf("extrapolate_LU(D, L, U) must over-approximate D")
	}
}

func TestExtrapolateLUClearsCrossClockBound(t *testing.T) {
	z := freshUniversal(3)
	z.Constrain([]Constraint{
		{I: 1, J: 0, Bound: 10, Cmp: numeric.LE},
		{I: 2, J: 0, Bound: 10, Cmp: numeric.LE},
		{I: 1, J: 2, Bound: 5, Cmp: numeric.LE},
		{I: 2, J: 1, Bound: 5, Cmp: numeric.LE},
	})
	l := []numeric.Bound{0, 3, 3}
	u := []numeric.Bound{0, 3, 3}
	z.ExtrapolateLU(l, u)
	if !z.at(1, 2).IsInfinite() || !z.at(2, 1).IsInfinite() {
		t.Errorf("both clocks exceed their ceiling: the direct bound between them must also be cleared to infinity, got (1,2)=%v (2,1)=%v", z.at(1, 2), z.at(2, 1))
	}
}

func TestEmptyZoneDetection(t *testing.T) {
	z := freshUniversal(2)
	// x1 <= 0 and x1 >= 1 is unsatisfiable.
	z.Constrain([]Constraint{{I: 1, J: 0, Bound: 0, Cmp: numeric.LE}})
	if st := z.Constrain([]Constraint{{I: 0, J: 1, Bound: -1, Cmp: numeric.LE}}); st != EMPTY {
		t.Errorf("expected EMPTY from contradictory constraints, got %v", st)
	}
	if !z.IsEmpty() {
		t.Errorf("IsEmpty() should be true after an EMPTY Constrain")
	}
}

func TestResetToSumCopiesShiftedBounds(t *testing.T) {
	z := freshUniversal(3)
	z.Constrain([]Constraint{{I: 2, J: 0, Bound: 5, Cmp: numeric.LE}, {I: 0, J: 2, Bound: -1, Cmp: numeric.LE}}) // 1 <= x2 <= 5
	z.ResetToSum(1, 2, 2)                                                                                       // x1 := x2 + 2
	upper, cmp := z.at(1, 0).Unpack()
	if upper != 7 || cmp != numeric.LE {
		t.Errorf("x1 upper bound after x1 := x2+2 = (%v,%v), want (7, <=)", upper, cmp)
	}
}

func TestHashStableAcrossClone(t *testing.T) {
	z := freshUniversal(3)
	z.Constrain([]Constraint{{I: 1, J: 0, Bound: 4, Cmp: numeric.LE}})
	if z.Hash() != z.Clone().Hash() {
		t.Errorf("Hash should be stable across Clone")
	}
}

func TestStringRendersCanonicalForm(t *testing.T) {
	z := New(2)
	z.Zero()
	if got, want := z.String(), "x0-x1<=0&&x1-x0<=0"; got != want {
		t.Errorf("String() of the zero zone = %q, want %q", got, want)
	}
	z.UniversalPositive()
	z.Constrain([]Constraint{{I: 1, J: 0, Bound: 3, Cmp: numeric.LE}})
	if got := z.String(); got == "" {
		t.Errorf("String() should render the x1<=3 constraint, got empty")
	}
}
