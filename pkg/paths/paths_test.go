package paths

import "testing"

func TestCombineCollapsesSeparators(t *testing.T) {
	got := Combine("/Game/", "/Content/", "Foo.lasset")
	want := "/Game/Content/Foo.lasset"
	if got != want {
		t.Fatalf("Combine = %q, want %q", got, want)
	}
}

func TestNormalizeReplacesBackslashes(t *testing.T) {
	if got := Normalize(`Game\Content\Foo`); got != "Game/Content/Foo" {
		t.Fatalf("Normalize = %q", got)
	}
}

func TestMountTableResolvesLongestPrefix(t *testing.T) {
	mt := NewMountTable()
	mt.Mount("/Game/Content", "/data/game")
	mt.Mount("/Game/Content/DLC", "/data/dlc")

	got, ok := mt.Resolve("/Game/Content/DLC/Foo.lasset")
	if !ok {
		t.Fatalf("Resolve did not match any mount")
	}
	if want := "/data/dlc/Foo.lasset"; got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}

	got, ok = mt.Resolve("/Game/Content/Foo.lasset")
	if !ok || got != "/data/game/Foo.lasset" {
		t.Fatalf("Resolve = %q, %v", got, ok)
	}
}

func TestMountTableUnmatchedPathPassesThrough(t *testing.T) {
	mt := NewMountTable()
	got, ok := mt.Resolve("/Unmounted/Foo.lasset")
	if ok {
		t.Fatalf("Resolve matched a mount that was never registered")
	}
	if got != "/Unmounted/Foo.lasset" {
		t.Fatalf("Resolve = %q", got)
	}
}
