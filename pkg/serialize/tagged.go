package serialize

import (
	"go.uber.org/zap"

	"github.com/lumina-rt/objectcore/pkg/name"
	"github.com/lumina-rt/objectcore/pkg/rtti"
)

// propertyTag is the fixed-layout header written before every serialized
// property's value: the declared type, the field name, the byte size of the
// payload that follows, and the stream offset the tag itself started at
// (DataOffset). The payload size is what lets a reader seek straight past an
// unrecognized or type-incompatible property without understanding its
// contents.
type propertyTag struct {
	TypeName   name.Name
	FieldName  name.Name
	Size       int32
	DataOffset int64
}

const tagByteSize = 8 + 8 + 4 + 8 // two name.IDs, an int32, an int64

func writeTag(ar *Archive, t propertyTag) {
	ar.WriteUint64(uint64(t.TypeName))
	ar.WriteUint64(uint64(t.FieldName))
	ar.WriteInt32(t.Size)
	ar.WriteInt64(t.DataOffset)
}

func readTag(ar *Archive) propertyTag {
	return propertyTag{
		TypeName:   name.ID(ar.ReadUint64()),
		FieldName:  name.ID(ar.ReadUint64()),
		Size:       ar.ReadInt32(),
		DataOffset: ar.ReadInt64(),
	}
}

// tagNameFor interns (deterministically, by xxhash of the tag's literal
// text) the Name used as a property tag's TypeName field. Because Name IDs
// are a pure function of their byte content, a tag written by one process
// resolves correctly in any other process that reaches this function with
// the same Tag — no shared, persisted name table is required.
func tagNameFor(t rtti.Tag) name.Name {
	return name.InternString(t.String())
}

// Logger receives warnings about skipped or coerced properties during a
// tagged-property read. The zero value (nil) discards them; nothing in this
// module assigns it, so an embedder that wants the warnings sets it.
var Logger *zap.Logger

func warn(msg string, fields ...zap.Field) {
	if Logger != nil {
		Logger.Warn(msg, fields...)
	}
}

// SerializeTaggedProperties reads or writes every property in s's
// inheritance chain (child-first, then super) against container, in the
// self-describing tagged format: on write, each property's value is
// preceded by a tag recording its type, name, and byte size; on read, tags
// are matched against the current schema by declaration-order fast path,
// then by name, tolerating added, removed, reordered, and numeric-widened
// fields.
func SerializeTaggedProperties(ar *Archive, s *rtti.Struct, container any) {
	if ar.IsWriting() {
		writeTaggedProperties(ar, s, container)
	} else {
		readTaggedProperties(ar, s, container)
	}
}

func writeTaggedProperties(ar *Archive, s *rtti.Struct, container any) {
	props := s.PropertiesChildFirst()

	countPos := ar.Tell()
	ar.WriteInt32(int32(len(props)))

	for _, p := range props {
		tagPos := ar.Tell()
		writeTag(ar, propertyTag{TypeName: tagNameFor(p.Tag()), FieldName: p.Name()})

		valueStart := ar.Tell()
		p.Serialize(ar, container)
		valueEnd := ar.Tell()

		ar.Seek(tagPos)
		writeTag(ar, propertyTag{
			TypeName:   tagNameFor(p.Tag()),
			FieldName:  p.Name(),
			Size:       int32(valueEnd - valueStart),
			DataOffset: tagPos,
		})
		ar.Seek(valueEnd)
	}

	endPos := ar.Tell()
	ar.Seek(countPos)
	ar.WriteInt32(int32(len(props)))
	ar.Seek(endPos)
}

func readTaggedProperties(ar *Archive, s *rtti.Struct, container any) {
	props := s.PropertiesChildFirst()
	byName := make(map[name.Name]*rtti.Property, len(props))
	for _, p := range props {
		byName[p.Name()] = p
	}

	count := int(ar.ReadInt32())
	nextDeclIdx := 0

	for i := 0; i < count; i++ {
		tagPos := ar.Tell()
		tag := readTag(ar)

		var target *rtti.Property
		if nextDeclIdx < len(props) && props[nextDeclIdx].Name() == tag.FieldName {
			target = props[nextDeclIdx]
			nextDeclIdx++
		} else if p, ok := byName[tag.FieldName]; ok {
			target = p
		}

		switch {
		case target == nil:
			warn("tagged property: unknown field, skipping",
				zap.String("field", tag.FieldName.String()),
				zap.Int32("size", tag.Size))

		case tagNameFor(target.Tag()) == tag.TypeName:
			target.Serialize(ar, container)

		case target.Tag().IsNumeric() && isNumericTypeName(tag.TypeName):
			applyNumericWiden(ar, target, container, tag)

		default:
			warn("tagged property: type mismatch, skipping",
				zap.String("field", tag.FieldName.String()),
				zap.Int32("size", tag.Size))
		}

		ar.Seek(tagPos + tagByteSize + int64(tag.Size))
	}
}

var numericTagNames = func() map[name.Name]bool {
	m := make(map[name.Name]bool)
	for _, t := range []rtti.Tag{
		rtti.Int8, rtti.Int16, rtti.Int32, rtti.Int64,
		rtti.UInt8, rtti.UInt16, rtti.UInt32, rtti.UInt64,
		rtti.Float, rtti.Double,
	} {
		m[tagNameFor(t)] = true
	}
	return m
}()

func isNumericTypeName(n name.Name) bool { return numericTagNames[n] }

// applyNumericWiden reads the on-disk numeric value as a double and, if it
// both decodes cleanly and fits the target property's declared width,
// applies it through the property's SetValue coercion. Either failure mode —
// an unreadable on-disk tag, or a value that doesn't fit the narrower
// target (e.g. a saved int32 that no longer fits a since-narrowed int16
// field) — leaves the field at its current (ordinarily zero/default) value
// and logs a warning instead of truncating it.
func applyNumericWiden(ar *Archive, target *rtti.Property, container any, tag propertyTag) {
	v, ok := readOnDiskNumericAsFloat64(ar, tag.TypeName)
	if !ok {
		warn("tagged property: unreadable numeric payload, skipping",
			zap.String("field", tag.FieldName.String()))
		return
	}
	if !target.SetValue(container, v) {
		warn("tagged property: on-disk value does not fit the narrower field, skipping",
			zap.String("field", tag.FieldName.String()),
			zap.Float64("value", v))
	}
}

func readOnDiskNumericAsFloat64(ar *Archive, typeName name.Name) (float64, bool) {
	switch typeName {
	case tagNameFor(rtti.Int8):
		return float64(ar.ReadInt8()), true
	case tagNameFor(rtti.Int16):
		return float64(ar.ReadInt16()), true
	case tagNameFor(rtti.Int32):
		return float64(ar.ReadInt32()), true
	case tagNameFor(rtti.Int64):
		return float64(ar.ReadInt64()), true
	case tagNameFor(rtti.UInt8):
		return float64(ar.ReadUint8()), true
	case tagNameFor(rtti.UInt16):
		return float64(ar.ReadUint16()), true
	case tagNameFor(rtti.UInt32):
		return float64(ar.ReadUint32()), true
	case tagNameFor(rtti.UInt64):
		return float64(ar.ReadUint64()), true
	case tagNameFor(rtti.Float):
		return float64(ar.ReadFloat32()), true
	case tagNameFor(rtti.Double):
		return ar.ReadFloat64(), true
	default:
		return 0, false
	}
}
