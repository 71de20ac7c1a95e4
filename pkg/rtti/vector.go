package rtti

import (
	stdreflect "reflect"

	"github.com/lumina-rt/objectcore/internal/assert"
	"github.com/lumina-rt/objectcore/pkg/name"
)

// PushBack appends value to a Vector property's backing slice on container.
func (p *Property) PushBack(container any, value any) {
	assert.That(p.tag == VectorValue, "rtti: PushBack called on non-vector property %s", p.fieldName)
	sv := stdreflect.ValueOf(p.accessor.Get(container))
	sv = stdreflect.Append(sv, stdreflect.ValueOf(value).Convert(sv.Type().Elem()))
	p.accessor.Set(container, sv.Interface())
}

// GetNum returns the element count of a Vector property's backing slice.
func (p *Property) GetNum(container any) int {
	assert.That(p.tag == VectorValue, "rtti: GetNum called on non-vector property %s", p.fieldName)
	return stdreflect.ValueOf(p.accessor.Get(container)).Len()
}

// GetAt returns element i of a Vector property's backing slice.
func (p *Property) GetAt(container any, i int) any {
	assert.That(p.tag == VectorValue, "rtti: GetAt called on non-vector property %s", p.fieldName)
	return stdreflect.ValueOf(p.accessor.Get(container)).Index(i).Interface()
}

// RemoveAt deletes element i from a Vector property's backing slice,
// preserving the order of the remaining elements.
func (p *Property) RemoveAt(container any, i int) {
	assert.That(p.tag == VectorValue, "rtti: RemoveAt called on non-vector property %s", p.fieldName)
	sv := stdreflect.ValueOf(p.accessor.Get(container))
	n := sv.Len()
	assert.That(i >= 0 && i < n, "rtti: RemoveAt index %d out of range [0,%d)", i, n)
	next := stdreflect.MakeSlice(sv.Type(), 0, n-1)
	next = stdreflect.AppendSlice(next, sv.Slice(0, i))
	next = stdreflect.AppendSlice(next, sv.Slice(i+1, n))
	p.accessor.Set(container, next.Interface())
}

// Clear empties a Vector property's backing slice.
func (p *Property) Clear(container any) {
	assert.That(p.tag == VectorValue, "rtti: Clear called on non-vector property %s", p.fieldName)
	sv := stdreflect.ValueOf(p.accessor.Get(container))
	p.accessor.Set(container, stdreflect.MakeSlice(sv.Type(), 0, 0).Interface())
}

// serializeVector reads or writes a Vector property's element count followed
// by each element, dispatching element encode/decode on the inner
// property's tag. The backing slice's static Go element type is recovered
// from the container's current (possibly empty) slice value, so a Vector
// property works without ever needing its own separate element-type token.
func (p *Property) serializeVector(ar Archive, container any) {
	assert.That(p.inner != nil, "rtti: vector property %s has no inner property", p.fieldName)

	if ar.IsWriting() {
		sv := stdreflect.ValueOf(p.accessor.Get(container))
		n := sv.Len()
		ar.WriteInt32(int32(n))
		for i := 0; i < n; i++ {
			writeVectorElement(ar, p.inner, sv.Index(i).Interface())
		}
		return
	}

	n := int(ar.ReadInt32())
	elemType := stdreflect.TypeOf(p.accessor.Get(container)).Elem()
	next := stdreflect.MakeSlice(stdreflect.SliceOf(elemType), 0, n)
	for i := 0; i < n; i++ {
		v := readVectorElement(ar, p.inner, elemType)
		next = stdreflect.Append(next, stdreflect.ValueOf(v).Convert(elemType))
	}
	p.accessor.Set(container, next.Interface())
}

func writeVectorElement(ar Archive, inner *Property, value any) {
	switch inner.tag {
	case Int8:
		ar.WriteInt8(value.(int8))
	case Int16:
		ar.WriteInt16(value.(int16))
	case Int32:
		ar.WriteInt32(value.(int32))
	case Int64:
		ar.WriteInt64(value.(int64))
	case UInt8:
		ar.WriteUint8(value.(uint8))
	case UInt16:
		ar.WriteUint16(value.(uint16))
	case UInt32:
		ar.WriteUint32(value.(uint32))
	case UInt64:
		ar.WriteUint64(value.(uint64))
	case Float:
		ar.WriteFloat32(value.(float32))
	case Double:
		ar.WriteFloat64(value.(float64))
	case Bool:
		ar.WriteBool(value.(bool))
	case NameValue:
		ar.WriteUint64(uint64(value.(name.ID)))
	case StringValue:
		ar.WriteString(value.(string))
	case ObjectRef, ClassRef:
		archiver := inner.refs
		if archiver == nil {
			archiver = rawIndexArchiver{}
		}
		archiver.Write(ar, value)
	case StructValue:
		nested, ok := value.(TaggedSerializable)
		assert.That(ok, "rtti: vector element does not implement TaggedSerializable")
		nested.SerializeTaggedProperties(ar)
	default:
		assert.Unreachable("rtti: vector element tag %v not serializable", inner.tag)
	}
}

func readVectorElement(ar Archive, inner *Property, elemType stdreflect.Type) any {
	switch inner.tag {
	case Int8:
		return ar.ReadInt8()
	case Int16:
		return ar.ReadInt16()
	case Int32:
		return ar.ReadInt32()
	case Int64:
		return ar.ReadInt64()
	case UInt8:
		return ar.ReadUint8()
	case UInt16:
		return ar.ReadUint16()
	case UInt32:
		return ar.ReadUint32()
	case UInt64:
		return ar.ReadUint64()
	case Float:
		return ar.ReadFloat32()
	case Double:
		return ar.ReadFloat64()
	case Bool:
		return ar.ReadBool()
	case NameValue:
		return name.ID(ar.ReadUint64())
	case StringValue:
		return ar.ReadString()
	case ObjectRef, ClassRef:
		archiver := inner.refs
		if archiver == nil {
			archiver = rawIndexArchiver{}
		}
		return archiver.Read(ar)
	case StructValue:
		elem := stdreflect.New(elemType).Interface().(TaggedSerializable)
		elem.SerializeTaggedProperties(ar)
		return stdreflect.ValueOf(elem).Elem().Interface()
	default:
		assert.Unreachable("rtti: vector element tag %v not deserializable", inner.tag)
		return nil
	}
}
