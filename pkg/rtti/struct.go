package rtti

import (
	"github.com/lumina-rt/objectcore/internal/assert"
	"github.com/lumina-rt/objectcore/pkg/name"
)

// Field is the common base every reflection-graph entity embeds: a name
// plus a metadata dictionary keyed and valued by Name.
type Field struct {
	fieldName name.Name
	metadata  map[name.Name]name.Name
}

func newField(n name.Name) Field {
	return Field{fieldName: n}
}

// Name returns the entity's name.
func (f *Field) Name() name.Name { return f.fieldName }

// SetMetadata attaches a key/value pair to the entity's metadata dictionary.
func (f *Field) SetMetadata(key, value name.Name) {
	if f.metadata == nil {
		f.metadata = make(map[name.Name]name.Name)
	}
	f.metadata[key] = value
}

// Metadata looks up a key in the entity's metadata dictionary.
func (f *Field) Metadata(key name.Name) (name.Name, bool) {
	v, ok := f.metadata[key]
	return v, ok
}

// Enum describes a reflected enumeration: an ordered sequence of
// (name, value) pairs over a signed 64-bit domain.
type Enum struct {
	Field
	entries []enumEntry
}

type enumEntry struct {
	name  name.Name
	value int64
}

func newEnum(n name.Name) *Enum {
	return &Enum{Field: newField(n)}
}

// AddEnum appends a (name, value) pair.
func (e *Enum) AddEnum(n name.Name, value int64) {
	e.entries = append(e.entries, enumEntry{name: n, value: value})
}

// NameAtValue returns the first entry's name matching value, or name.None if
// none matches.
func (e *Enum) NameAtValue(value int64) name.Name {
	for _, ent := range e.entries {
		if ent.value == value {
			return ent.name
		}
	}
	return name.None
}

// ValueByName returns the value for the entry named n, or (0, false) if no
// entry has that name.
func (e *Enum) ValueByName(n name.Name) (int64, bool) {
	for _, ent := range e.entries {
		if ent.name == n {
			return ent.value, true
		}
	}
	return 0, false
}

// ForEachEnum calls fn for every (name, value) pair in declaration order.
func (e *Enum) ForEachEnum(fn func(n name.Name, value int64)) {
	for _, ent := range e.entries {
		fn(ent.name, ent.value)
	}
}

// Struct describes a reflected type with a super-struct pointer and a
// singly-linked list of Properties.
type Struct struct {
	Field
	super           *Struct
	linkedProperty  *Property
	linked          bool
}

func newStruct(n name.Name) *Struct {
	return &Struct{Field: newField(n)}
}

// SetSuperStruct sets the struct this one inherits from. Must be called
// before Link.
func (s *Struct) SetSuperStruct(super *Struct) {
	assert.That(!s.linked, "rtti: SetSuperStruct called on %s after Link", s.fieldName)
	s.super = super
}

// SuperStruct returns the struct this one inherits from, or nil.
func (s *Struct) SuperStruct() *Struct { return s.super }

// AddProperty appends a property to the struct's own property list (not
// including inherited ones — the full chain is reached through
// ForEachPropertyIncludingSuper or PropertiesChildFirst).
func (s *Struct) AddProperty(p *Property) {
	if s.linkedProperty == nil {
		s.linkedProperty = p
		return
	}
	tail := s.linkedProperty
	for tail.Next != nil {
		tail = tail.Next
	}
	tail.Next = p
}

// GetProperty searches the struct's own linked list (not the super chain)
// for a property named n.
func (s *Struct) GetProperty(n name.Name) *Property {
	for p := s.linkedProperty; p != nil; p = p.Next {
		if p.Name() == n {
			return p
		}
	}
	return nil
}

// FindProperty searches this struct and then its super chain for a property
// named n, returning the most-derived match.
func (s *Struct) FindProperty(n name.Name) *Property {
	for cur := s; cur != nil; cur = cur.super {
		if p := cur.GetProperty(n); p != nil {
			return p
		}
	}
	return nil
}

// ForEachProperty calls fn for every property this struct declares,
// front-to-back in declaration order. It does not include inherited
// properties; call ForEachProperty on SuperStruct() separately, or use
// ForEachPropertyIncludingSuper.
func (s *Struct) ForEachProperty(fn func(p *Property)) {
	for p := s.linkedProperty; p != nil; p = p.Next {
		fn(p)
	}
}

// ForEachPropertyIncludingSuper calls fn for every property the struct
// declares, superclass-to-subclass order (super's own properties first,
// then this struct's) — the reverse of PropertiesChildFirst's order, which
// is the one the tagged property serializer uses.
func (s *Struct) ForEachPropertyIncludingSuper(fn func(p *Property)) {
	if s.super != nil {
		s.super.ForEachPropertyIncludingSuper(fn)
	}
	s.ForEachProperty(fn)
}

// PropertiesChildFirst returns every property in s's inheritance chain,
// ordered child-first: s's own properties, then its super's own properties,
// then the super's super's, and so on. This is the order the tagged
// property serializer reads and writes in — most-derived data first.
func (s *Struct) PropertiesChildFirst() []*Property {
	var out []*Property
	for cur := s; cur != nil; cur = cur.super {
		cur.ForEachProperty(func(p *Property) { out = append(out, p) })
	}
	return out
}

// IsChildOf reports whether s is base or derives from base, walking the
// super-struct chain.
func (s *Struct) IsChildOf(base *Struct) bool {
	for cur := s; cur != nil; cur = cur.super {
		if cur == base {
			return true
		}
	}
	return false
}

// Link finalizes the struct: idempotent, safe to call multiple times. A
// struct must be linked before it is used for serialization or instance
// construction.
func (s *Struct) Link() {
	if s.linked {
		return
	}
	if s.super != nil {
		s.super.Link()
	}
	s.linked = true
}

// IsLinked reports whether Link has run.
func (s *Struct) IsLinked() bool { return s.linked }

// Class extends Struct with a factory function. The class-default object
// (CDO) itself is not cached here: constructing one means routing through
// the object table — flag, root, PostCreateCDO hook — which is layered
// above this package (see pkg/objectcore.DefaultObjectFor), so this package
// only ever hands out fresh, table-less instances via NewInstance.
type Class struct {
	Struct
	superClass *Class
	factory    func() any
}

func newClass(n name.Name, factory func() any) *Class {
	return &Class{Struct: *newStruct(n), factory: factory}
}

// SetSuperClass sets both the struct-level super pointer (used by
// IsChildOf/Link) and the typed class-level super pointer (used by
// SuperClass). Must be called before Link.
func (c *Class) SetSuperClass(super *Class) {
	c.superClass = super
	if super != nil {
		c.SetSuperStruct(&super.Struct)
	}
}

// SuperClass returns the class this one inherits from, or nil.
func (c *Class) SuperClass() *Class { return c.superClass }

// NewInstance constructs a new, zero-valued instance via the class's
// factory function.
func (c *Class) NewInstance() any {
	assert.That(c.factory != nil, "rtti: class %s has no factory function", c.fieldName)
	return c.factory()
}
