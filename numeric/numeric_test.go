package numeric

import "testing"

func TestPackUnpackRoundTrip(t *testing.T) {
	type Record struct {
		Name  string
		Bound Bound
		Cmp   Cmp
	}

	tests := []Record{
		{Name: "zero, non-strict", Bound: 0, Cmp: LE},
		{Name: "zero, strict", Bound: 0, Cmp: LT},
		{Name: "positive, non-strict", Bound: 42, Cmp: LE},
		{Name: "negative, strict", Bound: -7, Cmp: LT},
		{Name: "negative, non-strict", Bound: -1, Cmp: LE},
		{Name: "infinity", Bound: Infinity, Cmp: LT},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			entry := Pack(test.Bound, test.Cmp)
			gotBound, gotCmp := entry.Unpack()
			if gotBound != test.Bound || gotCmp != test.Cmp {
				t.Errorf("Pack(%v, %v).Unpack() = (%v, %v), want (%v, %v)",
					test.Bound, test.Cmp, gotBound, gotCmp, test.Bound, test.Cmp)
			}
		})
	}
}

func TestEntryOrderingMatchesTightness(t *testing.T) {
	// For equal bounds, strict (<) must compare as tighter (smaller) than
	// non-strict (≤); across bounds, the smaller bound must always win.
	strict5 := Pack(5, LT)
	nonStrict5 := Pack(5, LE)
	nonStrict4 := Pack(4, LE)

	if !(strict5 < nonStrict5) {
		t.Errorf("Pack(5, LT) should sort before Pack(5, LE)")
	}
	if !(nonStrict4 < strict5) {
		t.Errorf("Pack(4, LE) should sort before Pack(5, LT)")
	}
}

func TestMin(t *testing.T) {
	a := Pack(3, LE)
	b := Pack(3, LT)
	if Min(a, b) != b {
		t.Errorf("Min(3<=, 3<) = %v, want the strict entry", Min(a, b))
	}
}

func TestSumCombinesStrictness(t *testing.T) {
	a := Pack(2, LE)
	b := Pack(3, LT)
	sum := Sum(a, b)
	bound, cmp := sum.Unpack()
	if bound != 5 || cmp != LT {
		t.Errorf("Sum(2<=, 3<) = (%v, %v), want (5, <)", bound, cmp)
	}
}

func TestAddSaturatesAtInfinity(t *testing.T) {
	if got := Add(Infinity, 10); got != Infinity {
		t.Errorf("Add(Infinity, 10) = %v, want Infinity", got)
	}
	if got := Add(Infinity/2, Infinity/2+10); got != Infinity {
		t.Errorf("overflowing sum should clamp to Infinity, got %v", got)
	}
}

func TestIsInfinite(t *testing.T) {
	if !PlusInfinity.IsInfinite() {
		t.Errorf("PlusInfinity should report IsInfinite() == true")
	}
	if Pack(0, LE).IsInfinite() {
		t.Errorf("Pack(0, LE) should not be infinite")
	}
}
