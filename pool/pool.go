// Package pool provides block allocators with reference-counted handles,
// and the sharing tables that canonicalize structurally-equal vlocs,
// vedges and zones into single immutable instances (spec.md §4.4).
package pool

import (
	"fmt"

	"github.com/benbjohnson/immutable"
)

// Hashable is the structural contract a sharing table's elements must
// satisfy: a cheap hash plus an equality check used to resolve collisions.
type Hashable[T any] interface {
	Hash() uint32
	Equal(other T) bool
}

// Handle is a reference-counted slot: a live value plus a count of
// outstanding references. It is never copied by value across package
// boundaries — callers hold a *Handle[T].
type Handle[T any] struct {
	Value T
	refs  int
}

// Ref increments the reference count and returns the handle, the way a
// smart pointer's copy constructor would.
func (h *Handle[T]) Ref() *Handle[T] {
	h.refs++
	return h
}

// Release decrements the reference count; when it reaches zero the caller
// must return the handle to its owning Block via Block.Free.
func (h *Handle[T]) Release() bool {
	h.refs--
	if h.refs < 0 {
		panic("pool: handle released more times than referenced")
	}
	return h.refs == 0
}

// Block is a fixed-capacity array of slots with an intrusive free list
// (spec.md §4.4 "A block allocator owns contiguous arrays of slots").
// Growable is false by default: exhausting a non-growable block panics,
// matching §7's "allocator exhaustion is fatal".
type Block[T any] struct {
	slots    []*Handle[T]
	free     []int
	growable bool
}

// NewBlock allocates a block of the given capacity. If growable is false,
// New panics once capacity is exhausted.
func NewBlock[T any](capacity int, growable bool) *Block[T] {
	b := &Block[T]{slots: make([]*Handle[T], capacity), growable: growable}
	for i := capacity - 1; i >= 0; i-- {
		b.free = append(b.free, i)
	}
	return b
}

// New allocates a fresh handle holding value, taking a slot from the free
// list (or growing the block if it is growable).
func (b *Block[T]) New(value T) *Handle[T] {
	if len(b.free) == 0 {
		if !b.growable {
			panic(fmt.Sprintf("pool: block exhausted (capacity %d)", len(b.slots)))
		}
		idx := len(b.slots)
		b.slots = append(b.slots, nil)
		b.free = append(b.free, idx)
	}
	idx := b.free[len(b.free)-1]
	b.free = b.free[:len(b.free)-1]
	h := &Handle[T]{Value: value, refs: 1}
	b.slots[idx] = h
	return h
}

// Free returns a handle's slot to the free list. Callers must only call
// Free after Release reports the reference count has dropped to zero.
func (b *Block[T]) Free(h *Handle[T]) {
	for i, s := range b.slots {
		if s == h {
			b.slots[i] = nil
			b.free = append(b.free, i)
			return
		}
	}
}

// Len is the number of slots currently in use.
func (b *Block[T]) Len() int {
	return len(b.slots) - len(b.free)
}

// bucket is one hash-table bucket: an immutable.List of entries sharing a
// hash. Share/Evict install a new persistent list rather than mutate one in
// place, so a Snapshot taken mid-run never observes a torn bucket.
type bucket[T Hashable[T]] struct {
	entries *immutable.List[T]
}

func (b *bucket[T]) find(x T) (T, bool) {
	if b.entries != nil {
		for i := 0; i < b.entries.Len(); i++ {
			if e := b.entries.Get(i); e.Equal(x) {
				return e, true
			}
		}
	}
	var zero T
	return zero, false
}

func (b *bucket[T]) append(x T) *bucket[T] {
	list := b.entries
	if list == nil {
		list = immutable.NewList[T]()
	}
	return &bucket[T]{entries: list.Append(x)}
}

func (b *bucket[T]) without(x T) *bucket[T] {
	if b.entries == nil {
		return b
	}
	out := immutable.NewListBuilder[T]()
	for i := 0; i < b.entries.Len(); i++ {
		if e := b.entries.Get(i); !e.Equal(x) {
			out.Append(e)
		}
	}
	return &bucket[T]{entries: out.List()}
}

// SharingTable canonicalizes structurally-equal values of T into a single
// shared instance, the way spec.md §4.4 describes: "share(x) either
// returns the canonical instance or installs x as canonical."
type SharingTable[T Hashable[T]] struct {
	buckets map[uint32]*bucket[T]
	count   int
}

// NewSharingTable builds an empty table with tableSize as a size hint for
// the underlying hash map (spec.md §6 "table_size").
func NewSharingTable[T Hashable[T]](tableSize int) *SharingTable[T] {
	if tableSize <= 0 {
		tableSize = 64
	}
	return &SharingTable[T]{buckets: make(map[uint32]*bucket[T], tableSize)}
}

// Share returns the canonical instance structurally equal to x, installing
// x as canonical if none exists yet.
func (t *SharingTable[T]) Share(x T) T {
	h := x.Hash()
	b, ok := t.buckets[h]
	if !ok {
		b = &bucket[T]{}
	}
	if e, found := b.find(x); found {
		return e
	}
	t.buckets[h] = b.append(x)
	t.count++
	return x
}

// Len is the number of distinct canonical instances currently shared.
func (t *SharingTable[T]) Len() int {
	return t.count
}

// Snapshot returns every canonical instance currently shared, as a
// persistent list: a covreach/couvscc dot dump can hold onto it while the
// table keeps evolving underneath (spec.md §6 "graph: dotted dump").
func (t *SharingTable[T]) Snapshot() *immutable.List[T] {
	b := immutable.NewListBuilder[T]()
	for _, bkt := range t.buckets {
		if bkt.entries == nil {
			continue
		}
		for i := 0; i < bkt.entries.Len(); i++ {
			b.Append(bkt.entries.Get(i))
		}
	}
	return b.List()
}

// Evict removes x's canonical entry, the way a weak reference table drops
// an entry once a canonical object's reference count falls to zero
// (spec.md §5 "Sharing tables hold weak references").
func (t *SharingTable[T]) Evict(x T) {
	h := x.Hash()
	b, ok := t.buckets[h]
	if !ok {
		return
	}
	if _, found := b.find(x); !found {
		return
	}
	t.buckets[h] = b.without(x)
	t.count--
}
