// Package rtti is the reflection graph: the set of Class, Struct, Enum, and
// Property entries describing object schemas, built up once at process
// startup from deferred registration records and then read lock-free for
// the rest of the process's life.
//
// It is named rtti rather than reflect so it doesn't shadow the standard
// library package it leans on internally for field access.
package rtti

import "math"

// Tag is the closed set of value kinds a Property can describe. It is fixed
// at registration time and determines the value-layout contract a Property
// implementation must honor.
type Tag uint8

const (
	Int8 Tag = iota
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float
	Double
	Bool
	ObjectRef
	ClassRef
	NameValue
	StringValue
	EnumValue
	VectorValue
	StructValue
)

func (t Tag) String() string {
	switch t {
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case UInt8:
		return "UInt8"
	case UInt16:
		return "UInt16"
	case UInt32:
		return "UInt32"
	case UInt64:
		return "UInt64"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case Bool:
		return "Bool"
	case ObjectRef:
		return "Object"
	case ClassRef:
		return "Class"
	case NameValue:
		return "Name"
	case StringValue:
		return "String"
	case EnumValue:
		return "Enum"
	case VectorValue:
		return "Vector"
	case StructValue:
		return "Struct"
	default:
		return "Unknown"
	}
}

// IsNumeric reports whether t is one of the fixed-width integer or
// floating-point tags, the set eligible for the widen-or-skip numeric
// coercion fallback.
func (t Tag) IsNumeric() bool {
	switch t {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, Float, Double:
		return true
	default:
		return false
	}
}

// FitsFloat64 reports whether v, read off disk as a float64, is
// representable in t's declared numeric width without truncation. Property
// numeric widening (pkg/serialize's applyNumericWiden, via Property.SetValue)
// applies a value only when this holds; otherwise the target field is left
// untouched rather than silently wrapped or clipped.
func (t Tag) FitsFloat64(v float64) bool {
	switch t {
	case Int8:
		return v == math.Trunc(v) && v >= math.MinInt8 && v <= math.MaxInt8
	case Int16:
		return v == math.Trunc(v) && v >= math.MinInt16 && v <= math.MaxInt16
	case Int32:
		return v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32
	case Int64:
		return v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64
	case UInt8:
		return v == math.Trunc(v) && v >= 0 && v <= math.MaxUint8
	case UInt16:
		return v == math.Trunc(v) && v >= 0 && v <= math.MaxUint16
	case UInt32:
		return v == math.Trunc(v) && v >= 0 && v <= math.MaxUint32
	case UInt64:
		return v == math.Trunc(v) && v >= 0 && v < math.MaxUint64
	case Float:
		return v >= -math.MaxFloat32 && v <= math.MaxFloat32
	case Double:
		return true
	default:
		return false
	}
}
