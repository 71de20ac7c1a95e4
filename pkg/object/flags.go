package object

// Flags is a bitset of per-object state flags, stored inline in each table
// slot alongside the generation and reference counters.
type Flags uint32

const (
	// Transient objects are never written into a package; a save pass skips
	// them even if they are reachable from an export.
	Transient Flags = 1 << iota
	// Rooted objects are kept alive unconditionally, independent of strong
	// reference count, until explicitly unrooted.
	Rooted
	// DefaultObject marks a class's lazily-constructed default instance.
	DefaultObject
	// NeedsLoad marks an object allocated by a package load before its
	// tagged-property data has been read off disk.
	NeedsLoad
	// Loading marks an object currently inside LoadObject, guarding against
	// re-entrant loads of the same export.
	Loading
	// NeedsPostLoad marks an object whose PostLoad hook has not yet run.
	NeedsPostLoad
	// WasLoaded marks an object that was constructed by loading a package,
	// as opposed to being created fresh at runtime.
	WasLoaded
	// Public objects are visible to discovery outside their own package.
	Public
	// MarkedDestroy marks a slot whose object has begun destruction; the
	// slot's generation has already been advanced and no new strong
	// reference may be taken against it.
	MarkedDestroy
)

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Any reports whether any bit in mask is set.
func (f Flags) Any(mask Flags) bool { return f&mask != 0 }

// Set returns f with mask's bits set.
func (f Flags) Set(mask Flags) Flags { return f | mask }

// Clear returns f with mask's bits cleared.
func (f Flags) Clear(mask Flags) Flags { return f &^ mask }
