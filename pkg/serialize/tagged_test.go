package serialize

import (
	"testing"

	"github.com/lumina-rt/objectcore/pkg/name"
	"github.com/lumina-rt/objectcore/pkg/rtti"
)

type point struct {
	X int32
	Y int32
}

func buildStruct(t *testing.T, structName string, props []rtti.PropertyParam) *rtti.Struct {
	t.Helper()
	g := rtti.NewGraph()
	n := name.InternString(structName)
	g.RegisterStructs(rtti.StructRegistration{Name: n, Properties: props})
	g.Flush()
	s := g.FindStruct(n)
	if s == nil {
		t.Fatalf("struct %s not registered", structName)
	}
	return s
}

func TestTaggedPropertiesRoundTrip(t *testing.T) {
	s := buildStruct(t, "serialize_test.Point", []rtti.PropertyParam{
		{Name: name.InternString("X"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("X")},
		{Name: name.InternString("Y"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Y")},
	})

	src := &point{X: 10, Y: 20}
	w := NewWriter()
	SerializeTaggedProperties(w, s, src)

	dst := &point{}
	r := NewReader(w.Bytes())
	SerializeTaggedProperties(r, s, dst)

	if dst.X != 10 || dst.Y != 20 {
		t.Fatalf("round trip produced %+v, want {10 20}", dst)
	}
}

func TestTaggedPropertiesToleratesReordering(t *testing.T) {
	writeSchema := buildStruct(t, "serialize_test.ReorderWrite", []rtti.PropertyParam{
		{Name: name.InternString("X"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("X")},
		{Name: name.InternString("Y"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Y")},
	})
	readSchema := buildStruct(t, "serialize_test.ReorderRead", []rtti.PropertyParam{
		{Name: name.InternString("Y"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Y")},
		{Name: name.InternString("X"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("X")},
	})

	src := &point{X: 5, Y: 9}
	w := NewWriter()
	SerializeTaggedProperties(w, writeSchema, src)

	dst := &point{}
	r := NewReader(w.Bytes())
	SerializeTaggedProperties(r, readSchema, dst)

	if dst.X != 5 || dst.Y != 9 {
		t.Fatalf("reordered-schema round trip produced %+v, want {5 9}", dst)
	}
}

type narrowed struct {
	V int16
}

type widened struct {
	V int32
}

func TestTaggedPropertiesNumericWidening(t *testing.T) {
	writeSchema := buildStruct(t, "serialize_test.WideSchema", []rtti.PropertyParam{
		{Name: name.InternString("V"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("V")},
	})
	readSchema := buildStruct(t, "serialize_test.NarrowSchema", []rtti.PropertyParam{
		{Name: name.InternString("V"), Tag: rtti.Int16, Accessor: rtti.FieldAccessor("V")},
	})

	src := &widened{V: 300}
	w := NewWriter()
	SerializeTaggedProperties(w, writeSchema, src)

	dst := &narrowed{}
	r := NewReader(w.Bytes())
	SerializeTaggedProperties(r, readSchema, dst)

	if dst.V != 300 {
		t.Fatalf("widened value = %d, want 300 (300 fits in int16)", dst.V)
	}
}

func TestTaggedPropertiesNumericShrinkThatDoesNotFitLeavesDefault(t *testing.T) {
	writeSchema := buildStruct(t, "serialize_test.OverflowWriteSchema", []rtti.PropertyParam{
		{Name: name.InternString("V"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("V")},
	})
	readSchema := buildStruct(t, "serialize_test.OverflowReadSchema", []rtti.PropertyParam{
		{Name: name.InternString("V"), Tag: rtti.Int16, Accessor: rtti.FieldAccessor("V")},
	})

	src := &widened{V: 70000} // does not fit int16 (max 32767)
	w := NewWriter()
	SerializeTaggedProperties(w, writeSchema, src)

	dst := &narrowed{V: 0}
	r := NewReader(w.Bytes())
	SerializeTaggedProperties(r, readSchema, dst)

	if dst.V != 0 {
		t.Fatalf("out-of-range shrink wrote %d, want the field left at its default 0", dst.V)
	}
	if r.HasError() {
		t.Fatalf("a value that doesn't fit the narrower field should warn and skip, not set an archive error")
	}
}

type withRemovedField struct {
	Kept int32
}

type withExtraField struct {
	Kept   int32
	Gone   int32
}

func TestTaggedPropertiesSkipsRemovedField(t *testing.T) {
	writeSchema := buildStruct(t, "serialize_test.WithExtra", []rtti.PropertyParam{
		{Name: name.InternString("Kept"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Kept")},
		{Name: name.InternString("Gone"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Gone")},
	})
	readSchema := buildStruct(t, "serialize_test.WithoutExtra", []rtti.PropertyParam{
		{Name: name.InternString("Kept"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Kept")},
	})

	src := &withExtraField{Kept: 1, Gone: 2}
	w := NewWriter()
	SerializeTaggedProperties(w, writeSchema, src)

	dst := &withRemovedField{}
	r := NewReader(w.Bytes())
	SerializeTaggedProperties(r, readSchema, dst)

	if dst.Kept != 1 {
		t.Fatalf("Kept = %d, want 1", dst.Kept)
	}
	if r.HasError() {
		t.Fatalf("reading past a removed field should not set an archive error")
	}
}
