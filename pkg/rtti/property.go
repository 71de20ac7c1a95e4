package rtti

import (
	stdreflect "reflect"

	"github.com/lumina-rt/objectcore/internal/assert"
	"github.com/lumina-rt/objectcore/pkg/name"
)

// Accessor reaches into a container (always a pointer to the Go struct a
// Property is attached to) to read or write the property's current value.
// Get and Set trade in `any` holding the property's natural Go type (int32
// for an Int32 property, string for a String property, a []T slice for a
// Vector property, and so on).
type Accessor struct {
	Get func(container any) any
	Set func(container any, value any)
}

// FieldAccessor builds an Accessor backed directly by a named struct field,
// the common case: most properties describe a real field rather than a
// computed value. Field type conversions (e.g. widening an on-disk int16
// into a struct's int32 field) are handled via stdlib reflect's numeric
// Convert, which never panics across numeric kinds.
func FieldAccessor(fieldName string) Accessor {
	return Accessor{
		Get: func(container any) any {
			v := stdreflect.ValueOf(container)
			if v.Kind() == stdreflect.Pointer {
				v = v.Elem()
			}
			return v.FieldByName(fieldName).Interface()
		},
		Set: func(container any, value any) {
			v := stdreflect.ValueOf(container)
			if v.Kind() == stdreflect.Pointer {
				v = v.Elem()
			}
			f := v.FieldByName(fieldName)
			val := stdreflect.ValueOf(value)
			if val.Type().ConvertibleTo(f.Type()) {
				f.Set(val.Convert(f.Type()))
			}
		},
	}
}

// RefArchiver resolves the object-reference indirection for ObjectRef and
// ClassRef properties. The reflection graph itself never touches the object
// table or a package's import/export tables — those live in higher layers —
// so a RefArchiver is supplied by whichever layer wires them together
// (ordinarily pkg/pkgfile, during tagged-property serialization).
type RefArchiver interface {
	Read(ar Archive) any
	Write(ar Archive, value any)
}

// rawIndexArchiver is the default RefArchiver used when none is supplied: it
// treats the stored value as a bare int32 package-local index, with no
// attempt at resolution. It exists so ObjectRef/ClassRef properties remain
// serializable in isolation (e.g. in package-free unit tests).
type rawIndexArchiver struct{}

func (rawIndexArchiver) Read(ar Archive) any        { return ar.ReadInt32() }
func (rawIndexArchiver) Write(ar Archive, value any) { ar.WriteInt32(value.(int32)) }

// Property describes one reflected field: a name, a fixed type tag, and the
// accessor used to read or write its value on a concrete container.
type Property struct {
	fieldName name.Name
	tag       Tag
	metadata  map[name.Name]name.Name
	accessor  Accessor

	inner *Property   // element type for Vector, backing numeric property for Enum
	enum  *Enum        // only set when tag == EnumValue
	refs  RefArchiver  // only consulted when tag == ObjectRef or tag == ClassRef

	// Next chains sibling properties on the owning Struct, in declaration
	// order (Struct.ForEachProperty walks this list front to back).
	Next *Property
}

// NewProperty constructs a Property. accessor must be non-zero; callers
// typically build it with FieldAccessor. Use NoAccessor for an inner
// (Vector element / Enum backing) property, which is never addressed
// directly against a container of its own.
func NewProperty(fieldName name.Name, tag Tag, accessor Accessor) *Property {
	assert.That(accessor.Get != nil && accessor.Set != nil, "rtti: property %s built with an incomplete accessor", fieldName)
	return &Property{fieldName: fieldName, tag: tag, accessor: accessor}
}

// NoAccessor returns a placeholder Accessor for properties that only ever
// describe a type (an inner Vector element, an Enum's backing numeric
// property) and are never themselves read or written against a container.
func NoAccessor() Accessor {
	return Accessor{
		Get: func(any) any { return nil },
		Set: func(any, any) {},
	}
}

// WithInner attaches the element property (Vector) or backing numeric
// property (Enum) and returns p for chaining.
func (p *Property) WithInner(inner *Property) *Property {
	p.inner = inner
	return p
}

// WithEnum attaches the CEnum an EnumValue property should resolve names
// against, and returns p for chaining.
func (p *Property) WithEnum(e *Enum) *Property {
	p.enum = e
	return p
}

// WithRefArchiver overrides the default raw-index object-reference
// serialization with a caller-supplied resolver, and returns p for chaining.
func (p *Property) WithRefArchiver(r RefArchiver) *Property {
	p.refs = r
	return p
}

// WithMetadata attaches a key/value pair to the property's metadata
// dictionary and returns p for chaining.
func (p *Property) WithMetadata(key, value name.Name) *Property {
	if p.metadata == nil {
		p.metadata = make(map[name.Name]name.Name)
	}
	p.metadata[key] = value
	return p
}

// Metadata looks up a key in the property's metadata dictionary.
func (p *Property) Metadata(key name.Name) (name.Name, bool) {
	v, ok := p.metadata[key]
	return v, ok
}

// Name returns the property's field name.
func (p *Property) Name() name.Name { return p.fieldName }

// Tag returns the property's fixed type tag.
func (p *Property) Tag() Tag { return p.tag }

// IsA reports whether the property's tag matches t.
func (p *Property) IsA(t Tag) bool { return p.tag == t }

// Inner returns the element (Vector) or backing numeric (Enum) property, or
// nil if p carries none.
func (p *Property) Inner() *Property { return p.inner }

// Enum returns the CEnum an EnumValue property resolves against, or nil.
func (p *Property) Enum() *Enum { return p.enum }

// GetValuePtr returns the property's current value on container. Despite
// the name (kept for continuity with the rest of the reflected-property
// vocabulary), Go has no raw void* — this returns the value itself, boxed.
func (p *Property) GetValuePtr(container any) any {
	return p.accessor.Get(container)
}

// SetValue applies the numeric-coercion-fallback contract: v is converted to
// the property's declared numeric width and written through the accessor,
// but only if v actually fits that width. It is a no-op (returning false)
// for non-numeric tags — those always go through Serialize or a direct
// SetRaw instead — and also a no-op, again returning false, when v falls
// outside the target type's range: the field is left at its current
// (ordinarily zero/default) value rather than silently truncated.
func (p *Property) SetValue(container any, v float64) bool {
	if !p.tag.IsNumeric() {
		return false
	}
	if !p.tag.FitsFloat64(v) {
		return false
	}
	var val any
	switch p.tag {
	case Int8:
		val = int8(v)
	case Int16:
		val = int16(v)
	case Int32:
		val = int32(v)
	case Int64:
		val = int64(v)
	case UInt8:
		val = uint8(v)
	case UInt16:
		val = uint16(v)
	case UInt32:
		val = uint32(v)
	case UInt64:
		val = uint64(v)
	case Float:
		val = float32(v)
	case Double:
		val = v
	}
	p.accessor.Set(container, val)
	return true
}

// SetRaw writes value directly through the accessor with no coercion; used
// by non-numeric tags (Bool, String, Name, Vector, Struct, Enum, and the
// object-reference tags) where the caller already holds a value of the
// exact expected Go type.
func (p *Property) SetRaw(container any, value any) {
	p.accessor.Set(container, value)
}

// Serialize reads or writes p's value on container through ar, dispatching
// on the property's tag. Vector and Struct properties recurse; ObjectRef and
// ClassRef properties delegate to the attached RefArchiver (or the raw
// package-local-index default if none was attached).
func (p *Property) Serialize(ar Archive, container any) {
	switch p.tag {
	case Int8:
		serializeScalar(ar, p, container, ar.ReadInt8, ar.WriteInt8)
	case Int16:
		serializeScalar(ar, p, container, ar.ReadInt16, ar.WriteInt16)
	case Int32:
		serializeScalar(ar, p, container, ar.ReadInt32, ar.WriteInt32)
	case Int64:
		serializeScalar(ar, p, container, ar.ReadInt64, ar.WriteInt64)
	case UInt8:
		serializeScalar(ar, p, container, ar.ReadUint8, ar.WriteUint8)
	case UInt16:
		serializeScalar(ar, p, container, ar.ReadUint16, ar.WriteUint16)
	case UInt32:
		serializeScalar(ar, p, container, ar.ReadUint32, ar.WriteUint32)
	case UInt64:
		serializeScalar(ar, p, container, ar.ReadUint64, ar.WriteUint64)
	case Float:
		serializeScalar(ar, p, container, ar.ReadFloat32, ar.WriteFloat32)
	case Double:
		serializeScalar(ar, p, container, ar.ReadFloat64, ar.WriteFloat64)
	case Bool:
		serializeScalar(ar, p, container, ar.ReadBool, ar.WriteBool)
	case NameValue:
		if ar.IsReading() {
			p.accessor.Set(container, name.ID(ar.ReadUint64()))
		} else {
			ar.WriteUint64(uint64(p.accessor.Get(container).(name.ID)))
		}
	case StringValue:
		if ar.IsReading() {
			p.accessor.Set(container, ar.ReadString())
		} else {
			ar.WriteString(p.accessor.Get(container).(string))
		}
	case EnumValue:
		assert.That(p.inner != nil, "rtti: enum property %s has no backing numeric property", p.fieldName)
		p.inner.Serialize(ar, container)
	case ObjectRef, ClassRef:
		archiver := p.refs
		if archiver == nil {
			archiver = rawIndexArchiver{}
		}
		if ar.IsReading() {
			p.accessor.Set(container, archiver.Read(ar))
		} else {
			archiver.Write(ar, p.accessor.Get(container))
		}
	case VectorValue:
		p.serializeVector(ar, container)
	case StructValue:
		nested, ok := p.accessor.Get(container).(TaggedSerializable)
		assert.That(ok, "rtti: struct property %s does not implement TaggedSerializable", p.fieldName)
		nested.SerializeTaggedProperties(ar)
	default:
		assert.Unreachable("rtti: property %s has unhandled tag %v", p.fieldName, p.tag)
	}
}

func serializeScalar[T any](ar Archive, p *Property, container any, read func() T, write func(T)) {
	if ar.IsReading() {
		p.accessor.Set(container, read())
	} else {
		write(p.accessor.Get(container).(T))
	}
}

// TaggedSerializable is implemented by nested struct values a StructValue
// property points at.
type TaggedSerializable interface {
	SerializeTaggedProperties(ar Archive)
}
