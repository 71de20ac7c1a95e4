// Package object implements the object table: a chunked, generation-checked
// slot array that owns object lifetime and hands out stable, ABA-safe
// handles. It is the foundation layer every higher package (reflection,
// serialization, packages) allocates objects through; it has no knowledge
// of classes, properties, or packages itself — only identity, flags, and
// reference counts.
package object

import (
	"sync"
	"sync/atomic"

	"github.com/lumina-rt/objectcore/internal/chunkedarray"
)

// Handle is a stable, ABA-safe reference to a table slot: Index selects the
// slot, Generation must match the slot's current generation for the handle
// to still be valid. A handle whose generation has gone stale resolves to
// nil instead of an unrelated object that has since reused the slot.
type Handle struct {
	Index      int32
	Generation uint32
}

// IsNull reports whether h is the zero Handle, which never refers to a live
// object (slot generations start at 1).
func (h Handle) IsNull() bool { return h.Generation == 0 }

// slot is one entry of the table. generation, strong, and weak are accessed
// atomically so Resolve/AddStrongRef/ReleaseStrongRef never take the table's
// allocMu; locating the slot still takes the chunk array's own mutex.
type slot[T any] struct {
	generation atomic.Uint32
	flags      atomic.Uint32
	strong     atomic.Int32
	weak       atomic.Int32
	object     T
}

// Table is a chunked object table generic over the stored object type T
// (ordinarily a pointer to a struct implementing whatever "is an object"
// interface the caller layers on top).
type Table[T any] struct {
	allocMu  sync.Mutex
	slots    *chunkedarray.Array[slot[T]]
	freeList freeStack
	next     int32 // next never-yet-used index, guarded by allocMu
}

// NewTable constructs an empty table using the default chunk size.
func NewTable[T any]() *Table[T] {
	return &Table[T]{slots: chunkedarray.New[slot[T]]()}
}

// NewTableSized constructs an empty table whose first chunk holds
// initialCapacity slots, so a caller with a known expected object count
// pays for one chunk allocation up front instead of several as the table
// grows into it. initialCapacity <= 0 falls back to NewTable's default.
func NewTableSized[T any](initialCapacity int) *Table[T] {
	return &Table[T]{slots: chunkedarray.NewSized[slot[T]](initialCapacity)}
}

// Allocate reserves a slot for obj and returns its handle. Slots freed by a
// prior Destroy are reused before new ones are carved off the chunk array,
// so long-running processes don't grow the table without bound under
// steady-state churn. Safe for concurrent use.
func (t *Table[T]) Allocate(obj T) Handle {
	t.allocMu.Lock()
	idx, reused := t.freeList.pop()
	if !reused {
		idx = t.next
		t.next++
	}
	t.allocMu.Unlock()

	s := t.slots.Grow(int(idx))
	gen := s.generation.Load()
	if gen == 0 {
		gen = 1
	}
	s.object = obj
	s.strong.Store(0)
	s.weak.Store(0)
	s.flags.Store(0)
	s.generation.Store(gen)

	return Handle{Index: idx, Generation: gen}
}

// Resolve returns the object at h, or the zero value and false if h is null,
// out of range, or stale (its generation no longer matches the slot's).
func (t *Table[T]) Resolve(h Handle) (T, bool) {
	var zero T
	if h.IsNull() {
		return zero, false
	}
	s := t.slots.Get(int(h.Index))
	if s == nil {
		return zero, false
	}
	if s.generation.Load() != h.Generation {
		return zero, false
	}
	return s.object, true
}

// Flags returns the current flag bits for h, or 0 if h is stale.
func (t *Table[T]) Flags(h Handle) Flags {
	s := t.slots.Get(int(h.Index))
	if s == nil || s.generation.Load() != h.Generation {
		return 0
	}
	return Flags(s.flags.Load())
}

// SetFlags sets mask's bits on h's slot, no-op if h is stale.
func (t *Table[T]) SetFlags(h Handle, mask Flags) {
	t.mutateFlags(h, func(f Flags) Flags { return f.Set(mask) })
}

// ClearFlags clears mask's bits on h's slot, no-op if h is stale.
func (t *Table[T]) ClearFlags(h Handle, mask Flags) {
	t.mutateFlags(h, func(f Flags) Flags { return f.Clear(mask) })
}

func (t *Table[T]) mutateFlags(h Handle, fn func(Flags) Flags) {
	s := t.slots.Get(int(h.Index))
	if s == nil {
		return
	}
	for {
		if s.generation.Load() != h.Generation {
			return
		}
		old := s.flags.Load()
		next := uint32(fn(Flags(old)))
		if s.flags.CompareAndSwap(old, next) {
			return
		}
	}
}

// AddStrongRef increments h's strong reference count and returns the new
// count, or 0 if h is stale. Shutdown sweeps ignore this counter entirely
// (see Table.Sweep); outside a sweep, a strong count dropping to zero is the
// caller's cue to call Destroy.
func (t *Table[T]) AddStrongRef(h Handle) int32 {
	s := t.slots.Get(int(h.Index))
	if s == nil || s.generation.Load() != h.Generation {
		return 0
	}
	return s.strong.Add(1)
}

// ReleaseStrongRef decrements h's strong reference count and returns the new
// count (which may be negative only if the caller has a bug double-releasing
// a handle). It never destroys the object itself; callers that want
// destroy-on-zero semantics check the returned count.
func (t *Table[T]) ReleaseStrongRef(h Handle) int32 {
	s := t.slots.Get(int(h.Index))
	if s == nil || s.generation.Load() != h.Generation {
		return 0
	}
	return s.strong.Add(-1)
}

// AddWeakRef / ReleaseWeakRef mirror the strong-ref pair but never gate
// destruction; they exist so external holders (e.g. an asset registry cache
// entry) can keep a slot from being mistaken for garbage by tooling that
// inspects reference counts, without keeping the object itself alive.
func (t *Table[T]) AddWeakRef(h Handle) int32 {
	s := t.slots.Get(int(h.Index))
	if s == nil || s.generation.Load() != h.Generation {
		return 0
	}
	return s.weak.Add(1)
}

func (t *Table[T]) ReleaseWeakRef(h Handle) int32 {
	s := t.slots.Get(int(h.Index))
	if s == nil || s.generation.Load() != h.Generation {
		return 0
	}
	return s.weak.Add(-1)
}

// StrongRefCount and WeakRefCount report the current counters for h, 0 if
// stale.
func (t *Table[T]) StrongRefCount(h Handle) int32 {
	s := t.slots.Get(int(h.Index))
	if s == nil || s.generation.Load() != h.Generation {
		return 0
	}
	return s.strong.Load()
}

func (t *Table[T]) WeakRefCount(h Handle) int32 {
	s := t.slots.Get(int(h.Index))
	if s == nil || s.generation.Load() != h.Generation {
		return 0
	}
	return s.weak.Load()
}

// Destroy retires h's slot: it advances the generation (invalidating every
// outstanding Handle with the old generation), clears the stored object to
// its zero value so it can be garbage collected, and returns the slot's
// index to the free list for reuse by a future Allocate.
//
// Destroy is a no-op if h is already stale, which makes double-Destroy safe.
func (t *Table[T]) Destroy(h Handle) {
	s := t.slots.Get(int(h.Index))
	if s == nil || s.generation.Load() != h.Generation {
		return
	}
	var zero T
	s.flags.Store(uint32(MarkedDestroy))
	s.object = zero
	s.generation.Add(1)

	t.allocMu.Lock()
	t.freeList.push(h.Index)
	t.allocMu.Unlock()
}

// Sweep tears down every live object for which shouldDestroy returns true,
// regardless of outstanding strong reference count; Sweep itself does not
// look at the Rooted flag, so shouldDestroy decides which objects survive.
// It is the shutdown path, and teardown order is whatever shouldDestroy and
// index order produce. Sweep records no state on the table: later
// ReleaseStrongRef calls behave exactly as before. Sweep returns the number
// of objects it destroyed.
func (t *Table[T]) Sweep(shouldDestroy func(h Handle, obj T) bool) int {
	destroyed := 0
	n := t.slots.Len()
	for i := 0; i < n; i++ {
		s := t.slots.Get(i)
		if s == nil {
			continue
		}
		gen := s.generation.Load()
		if gen == 0 || s.flags.Load()&uint32(MarkedDestroy) != 0 {
			continue
		}
		h := Handle{Index: int32(i), Generation: gen}
		if shouldDestroy(h, s.object) {
			t.Destroy(h)
			destroyed++
		}
	}
	return destroyed
}

// ForEach calls fn for every live slot, skipping slots that have been
// destroyed and not yet reallocated (a recycled slot is visited with its
// current object and live handle). Iteration order is index order, not
// allocation order. fn must not call Allocate or Destroy on t.
func (t *Table[T]) ForEach(fn func(h Handle, obj T)) {
	n := t.slots.Len()
	for i := 0; i < n; i++ {
		s := t.slots.Get(i)
		if s == nil {
			continue
		}
		gen := s.generation.Load()
		if gen == 0 || s.flags.Load()&uint32(MarkedDestroy) != 0 {
			continue
		}
		fn(Handle{Index: int32(i), Generation: gen}, s.object)
	}
}

// Len returns the number of slots ever allocated (including currently-free
// recycled ones); it is an upper bound on live object count, not an exact
// count.
func (t *Table[T]) Len() int { return t.slots.Len() }

// freeStack is a free-index stack; Table.allocMu guards every access to it.
type freeStack struct {
	indices []int32
}

func (f *freeStack) push(idx int32) {
	f.indices = append(f.indices, idx)
}

func (f *freeStack) pop() (int32, bool) {
	n := len(f.indices)
	if n == 0 {
		return 0, false
	}
	idx := f.indices[n-1]
	f.indices = f.indices[:n-1]
	return idx, true
}
