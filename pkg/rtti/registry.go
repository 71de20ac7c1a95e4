package rtti

import (
	"sync"

	"github.com/lumina-rt/objectcore/internal/assert"
	"github.com/lumina-rt/objectcore/pkg/name"
)

// PropertyParam describes one property slot in a deferred registration
// record. Vector and Enum params are followed immediately by the param
// describing their inner (element, or backing numeric) property — Flush
// consumes that following param rather than emitting it as a separate
// top-level property.
type PropertyParam struct {
	Name        name.Name
	Tag         Tag
	Accessor    Accessor
	EnumName    name.Name // only consulted when Tag == EnumValue
	RefArchiver RefArchiver
	Metadata    map[name.Name]name.Name
}

// EnumEntryParam is one (name, value) pair in an EnumRegistration.
type EnumEntryParam struct {
	Name  name.Name
	Value int64
}

// StructRegistration is a deferred record describing one reflected struct.
// Registering modules append these via RegisterStructs at init time; nothing
// is resolved until Flush runs.
type StructRegistration struct {
	Name       name.Name
	Super      name.Name // name.None if no super struct
	Properties []PropertyParam
}

// ClassRegistration is the class analogue of StructRegistration, adding the
// factory function every class needs to construct instances.
type ClassRegistration struct {
	Name       name.Name
	Super      name.Name // name.None for a root class
	Factory    func() any
	Properties []PropertyParam
}

// EnumRegistration is a deferred record describing one reflected enum.
type EnumRegistration struct {
	Name    name.Name
	Entries []EnumEntryParam
}

// Graph is the reflection graph: the set of registered Classes, Structs, and
// Enums. The zero value is not usable; construct with NewGraph.
//
// Graph is mutated only while modules are registering (RegisterClasses /
// RegisterStructs / RegisterEnums, followed by Flush); after Flush returns,
// every read method is safe to call from any number of goroutines without
// further synchronization, since nothing mutates the graph again.
type Graph struct {
	mu sync.Mutex

	pendingStructs []StructRegistration
	pendingClasses []ClassRegistration
	pendingEnums   []EnumRegistration

	structs map[name.Name]*Struct
	classes map[name.Name]*Class
	enums   map[name.Name]*Enum

	flushed bool
}

// NewGraph constructs an empty reflection graph.
func NewGraph() *Graph {
	return &Graph{
		structs: make(map[name.Name]*Struct),
		classes: make(map[name.Name]*Class),
		enums:   make(map[name.Name]*Enum),
	}
}

// RegisterStructs enqueues struct records for the next Flush.
func (g *Graph) RegisterStructs(records ...StructRegistration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	assert.That(!g.flushed, "rtti: RegisterStructs called after Flush")
	g.pendingStructs = append(g.pendingStructs, records...)
}

// RegisterClasses enqueues class records for the next Flush.
func (g *Graph) RegisterClasses(records ...ClassRegistration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	assert.That(!g.flushed, "rtti: RegisterClasses called after Flush")
	g.pendingClasses = append(g.pendingClasses, records...)
}

// RegisterEnums enqueues enum records for the next Flush.
func (g *Graph) RegisterEnums(records ...EnumRegistration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	assert.That(!g.flushed, "rtti: RegisterEnums called after Flush")
	g.pendingEnums = append(g.pendingEnums, records...)
}

// Flush drains every pending registration into live graph entries: enums
// first (they have no dependencies), then structs and classes allocated and
// super-linked, then each record's properties built and attached, then
// every struct/class linked. Flush is idempotent — a second call is a no-op
// — so a host can call it opportunistically after every module's init
// functions have had a chance to register without needing to track whether
// some other caller already flushed.
func (g *Graph) Flush() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.flushed {
		return
	}

	for _, rec := range g.pendingEnums {
		e := newEnum(rec.Name)
		for _, entry := range rec.Entries {
			e.AddEnum(entry.Name, entry.Value)
		}
		g.enums[rec.Name] = e
	}

	for _, rec := range g.pendingStructs {
		g.structs[rec.Name] = newStruct(rec.Name)
	}
	for _, rec := range g.pendingClasses {
		c := newClass(rec.Name, rec.Factory)
		g.classes[rec.Name] = c
		g.structs[rec.Name] = &c.Struct
	}

	for _, rec := range g.pendingStructs {
		s := g.structs[rec.Name]
		if !rec.Super.IsNone() {
			super, ok := g.structs[rec.Super]
			assert.That(ok, "rtti: struct %s references unknown super %s", rec.Name, rec.Super)
			s.SetSuperStruct(super)
		}
		s.linkedProperty = g.buildProperties(rec.Properties)
	}
	for _, rec := range g.pendingClasses {
		c := g.classes[rec.Name]
		if !rec.Super.IsNone() {
			super, ok := g.classes[rec.Super]
			assert.That(ok, "rtti: class %s references unknown super class %s", rec.Name, rec.Super)
			c.SetSuperClass(super)
		}
		c.linkedProperty = g.buildProperties(rec.Properties)
	}

	for _, s := range g.structs {
		s.Link()
	}

	g.flushed = true
}

// buildProperties constructs the front-to-back property list for one
// record's params, consuming each Vector/Enum param's following param as its
// inner property rather than emitting it separately — processing runs in
// reverse so the inner (which appears after its container) is always built
// before the container that references it.
func (g *Graph) buildProperties(params []PropertyParam) *Property {
	built := make([]*Property, len(params))
	consumed := make([]bool, len(params))

	for i := len(params) - 1; i >= 0; i-- {
		pr := params[i]
		prop := NewProperty(pr.Name, pr.Tag, pr.Accessor)
		if pr.RefArchiver != nil {
			prop.WithRefArchiver(pr.RefArchiver)
		}
		for k, v := range pr.Metadata {
			prop.WithMetadata(k, v)
		}
		if pr.Tag == EnumValue {
			e, ok := g.enums[pr.EnumName]
			assert.That(ok, "rtti: enum property %s references unknown enum %s", pr.Name, pr.EnumName)
			prop.WithEnum(e)
		}
		if pr.Tag == VectorValue || pr.Tag == EnumValue {
			if i+1 < len(params) {
				prop.WithInner(built[i+1])
				consumed[i+1] = true
			}
		}
		built[i] = prop
	}

	var head, tail *Property
	for i := range params {
		if consumed[i] {
			continue
		}
		if head == nil {
			head = built[i]
		} else {
			tail.Next = built[i]
		}
		tail = built[i]
	}
	return head
}

// FindStruct returns the struct named n, or nil if none is registered.
func (g *Graph) FindStruct(n name.Name) *Struct { return g.structs[n] }

// FindClass returns the class named n, or nil if none is registered.
func (g *Graph) FindClass(n name.Name) *Class { return g.classes[n] }

// FindEnum returns the enum named n, or nil if none is registered.
func (g *Graph) FindEnum(n name.Name) *Enum { return g.enums[n] }

// IsFlushed reports whether Flush has run.
func (g *Graph) IsFlushed() bool { return g.flushed }

// Global is the process-wide reflection graph most callers register
// against and flush once at startup.
var Global = NewGraph()
