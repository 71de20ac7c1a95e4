// Package name implements a process-wide interner: a map from arbitrary
// byte strings to stable 64-bit IDs, with O(1) text recovery.
//
// A mutex-guarded hash map backs the lookup index and holds the Go string
// that Resolve returns; each new string is also copied, NUL-terminated, into
// a bump allocator (internal/arena) of 1 MiB chunks that is never freed
// until the table itself is discarded and that MemoryUsage measures. The ID for a string
// is its 64-bit xxhash digest, remapped away from the single reserved value
// (see None).
package name

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/lumina-rt/objectcore/internal/arena"
	"github.com/lumina-rt/objectcore/internal/assert"
)

// None is the reserved ID meaning "no name".
const None ID = 0

// ID is a stable 64-bit identifier for an interned byte string.
type ID uint64

// IsNone reports whether id is the reserved "none" value.
func (id ID) IsNone() bool { return id == None }

// String resolves id against the global table. It is mainly a debugging/log
// convenience; hot paths should call Resolve directly against the relevant
// table when they already hold a non-global one.
func (id ID) String() string { return Resolve(id) }

// Name is the public spelling the rest of the module uses for "an interned
// identifier". It is the same type as ID; the alias lets call sites read as
// Name rather than the implementation-flavored ID.
type Name = ID

// Table is the process-wide (or, for testing, scoped) name interner.
// The zero value is not usable; construct with NewTable.
type Table struct {
	mu     sync.RWMutex
	byID   map[ID]string
	pool   *arena.Arena
}

// NewTable constructs an empty interner.
func NewTable() *Table {
	return &Table{
		byID: make(map[ID]string, 4096),
		pool: arena.New(),
	}
}

// hash64 mixes xxhash's 64-bit digest so that a digest of exactly 0 (which
// would collide with the reserved None ID) maps to a nonzero value instead.
func hash64(b []byte) ID {
	h := xxhash.Sum64(b)
	if h == 0 {
		h = 1
	}
	return ID(h)
}

// Intern returns the stable ID for b, inserting it on first sight. Equal
// byte sequences always produce equal IDs; each unique string is inserted
// only once.
func (t *Table) Intern(b []byte) ID {
	if len(b) == 0 {
		return None
	}
	id := hash64(b)

	t.mu.RLock()
	existing, ok := t.byID[id]
	t.mu.RUnlock()
	if ok {
		// A 64-bit hash collision between two distinct strings is
		// vanishingly unlikely but must never silently corrupt the
		// first string's identity, so the second insertion is rejected
		// loudly instead.
		assert.That(existing == string(b), "name: hash collision between %q and %q", existing, string(b))
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Re-check under the write lock: another goroutine may have inserted
	// the same string between the RUnlock above and this Lock.
	if existing, ok := t.byID[id]; ok {
		assert.That(existing == string(b), "name: hash collision between %q and %q", existing, string(b))
		return id
	}

	stored := t.pool.AllocCString(b)
	t.byID[id] = string(stored)
	return id
}

// InternString is a convenience wrapper over Intern for string inputs.
func (t *Table) InternString(s string) ID {
	return t.Intern([]byte(s))
}

// Resolve recovers the original text for id, or "" if id is unknown or
// None. Lookups are O(1) (a single map read under a read lock).
func (t *Table) Resolve(id ID) string {
	if id.IsNone() {
		return ""
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byID[id]
}

// MemoryUsage reports the number of bytes committed in the backing arena.
func (t *Table) MemoryUsage() int {
	return t.pool.MemoryUsage()
}

// Global is the process-wide interner most callers use. Routing every Name
// construction through it keeps identity comparisons valid across unrelated
// packages.
var Global = NewTable()

// Intern interns b against the global table.
func Intern(b []byte) ID { return Global.Intern(b) }

// InternString interns s against the global table.
func InternString(s string) ID { return Global.InternString(s) }

// Resolve recovers text from the global table.
func Resolve(id ID) string { return Global.Resolve(id) }
