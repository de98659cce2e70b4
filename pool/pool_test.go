package pool

import "testing"

type intVal int

func (v intVal) Hash() uint32        { return uint32(v) }
func (v intVal) Equal(o intVal) bool { return v == o }

func TestBlockAllocatesAndFrees(t *testing.T) {
	b := NewBlock[intVal](2, false)
	h1 := b.New(intVal(1))
	h2 := b.New(intVal(2))
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	if h1.Release() != true {
		t.Fatalf("Release() on a singly-referenced handle should report true")
	}
	b.Free(h1)
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after Free", b.Len())
	}
	_ = h2
}

func TestBlockPanicsWhenExhaustedAndNotGrowable(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("New() should panic once a non-growable block is exhausted")
		}
	}()
	b := NewBlock[intVal](1, false)
	b.New(intVal(1))
	b.New(intVal(2))
}

func TestBlockGrows(t *testing.T) {
	b := NewBlock[intVal](1, true)
	b.New(intVal(1))
	b.New(intVal(2)) // should not panic
	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
}

func TestRefIncrementsCount(t *testing.T) {
	b := NewBlock[intVal](1, false)
	h := b.New(intVal(1))
	h.Ref()
	if h.Release() {
		t.Fatalf("Release() should report false while a reference remains")
	}
	if !h.Release() {
		t.Fatalf("Release() should report true once the last reference drops")
	}
}

func TestSharingTableCanonicalizesEqualValues(t *testing.T) {
	table := NewSharingTable[intVal](64)
	a := table.Share(intVal(5))
	b := table.Share(intVal(5))
	if a != b {
		t.Errorf("Share(5) twice should return the same canonical instance")
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
}

func TestSharingTableEvict(t *testing.T) {
	table := NewSharingTable[intVal](64)
	table.Share(intVal(5))
	table.Evict(intVal(5))
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Evict", table.Len())
	}
}

func TestSharingTableSnapshot(t *testing.T) {
	table := NewSharingTable[intVal](64)
	table.Share(intVal(1))
	table.Share(intVal(2))
	snap := table.Snapshot()
	if snap.Len() != 2 {
		t.Errorf("Snapshot().Len() = %d, want 2", snap.Len())
	}
}
