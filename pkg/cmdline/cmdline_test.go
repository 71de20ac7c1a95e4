package cmdline

import (
	"reflect"
	"testing"
)

func TestParseKeyValueForms(t *testing.T) {
	a := Parse([]string{"--Name=Foo", "--Verbose", "--Level", "3", "positional1"})

	if v, ok := a.Get("name"); !ok || v != "Foo" {
		t.Fatalf("name = %q, %v", v, ok)
	}
	if !a.Bool("verbose") {
		t.Fatalf("verbose should be truthy (bare flag)")
	}
	if v, ok := a.Get("level"); !ok || v != "3" {
		t.Fatalf("level = %q, %v", v, ok)
	}
	if got := a.Positional(); !reflect.DeepEqual(got, []string{"positional1"}) {
		t.Fatalf("Positional = %v", got)
	}
}

func TestParseBundledShortFlags(t *testing.T) {
	a := Parse([]string{"-abc"})
	for _, k := range []string{"a", "b", "c"} {
		if !a.Bool(k) {
			t.Fatalf("%s should be truthy", k)
		}
	}
}

func TestParseValueThatLooksLikeFlagIsNotConsumed(t *testing.T) {
	a := Parse([]string{"--name", "--other"})
	if !a.Bool("name") {
		t.Fatalf("name should default to true when followed by another flag")
	}
	if !a.Bool("other") {
		t.Fatalf("other should also be true")
	}
}

func TestBoolTruthyValues(t *testing.T) {
	a := Parse([]string{"--a=1", "--b=yes", "--c=true", "--d=no"})
	for _, k := range []string{"a", "b", "c"} {
		if !a.Bool(k) {
			t.Fatalf("%s should be truthy", k)
		}
	}
	if a.Bool("d") {
		t.Fatalf("d=no should not be truthy")
	}
}
