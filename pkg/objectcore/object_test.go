package objectcore

import (
	"testing"

	"github.com/lumina-rt/objectcore/pkg/guid"
	"github.com/lumina-rt/objectcore/pkg/name"
	"github.com/lumina-rt/objectcore/pkg/object"
	"github.com/lumina-rt/objectcore/pkg/rtti"
)

type widget struct {
	Base
	Health int32
}

func newTestClass(t *testing.T) *rtti.Class {
	t.Helper()
	g := rtti.NewGraph()
	className := name.InternString("objectcore_test.Widget")
	g.RegisterClasses(rtti.ClassRegistration{
		Name:    className,
		Factory: func() any { return &widget{} },
	})
	g.Flush()
	c := g.FindClass(className)
	if c == nil {
		t.Fatalf("class not registered")
	}
	return c
}

func TestNewObjectAssignsIdentity(t *testing.T) {
	class := newTestClass(t)
	objName := name.InternString("MyWidget")

	inst := NewObject(class, nil, objName, guid.GUID{}, 0)
	w, ok := inst.(*widget)
	if !ok {
		t.Fatalf("NewObject returned %T, want *widget", inst)
	}
	if w.ObjectName() != objName {
		t.Fatalf("ObjectName = %v, want %v", w.ObjectName(), objName)
	}
	if w.ObjectGUID().IsNil() {
		t.Fatalf("NewObject left the GUID nil")
	}
	if w.ClassPtr() != class {
		t.Fatalf("ClassPtr mismatch")
	}
	if w.Handle().IsNull() {
		t.Fatalf("NewObject did not assign a handle")
	}
}

func TestFindObjectByGUIDAndName(t *testing.T) {
	class := newTestClass(t)
	objName := name.InternString("Findable")
	inst := NewObject(class, nil, objName, guid.GUID{}, 0)

	byGUID, ok := FindObjectByGUID(inst.ObjectGUID())
	if !ok || byGUID != inst {
		t.Fatalf("FindObjectByGUID failed to find the object just created")
	}
	byName, ok := FindObjectByName(class, objName)
	if !ok || byName != inst {
		t.Fatalf("FindObjectByName failed to find the object just created")
	}
}

func TestRootedObjectSurvivesShutdownSweep(t *testing.T) {
	class := newTestClass(t)
	rooted := NewObject(class, nil, name.InternString("Rooted"), guid.GUID{}, 0)
	AddToRoot(rooted)
	unrooted := NewObject(class, nil, name.InternString("Unrooted"), guid.GUID{}, 0)

	Shutdown()

	if _, ok := table.Resolve(rooted.Handle()); !ok {
		t.Fatalf("rooted object did not survive Shutdown")
	}
	if _, ok := table.Resolve(unrooted.Handle()); ok {
		t.Fatalf("unrooted object survived Shutdown")
	}

	RemoveFromRoot(rooted)
	if _, ok := table.Resolve(rooted.Handle()); !ok {
		t.Fatalf("object was destroyed by RemoveFromRoot alone while still holding its original strong reference")
	}

	Destroy(rooted)
	if _, ok := table.Resolve(rooted.Handle()); ok {
		t.Fatalf("object survived explicit Destroy after unrooting")
	}
}

func TestStrongRefReleaseToZeroDestroysObject(t *testing.T) {
	class := newTestClass(t)
	inst := NewObject(class, nil, name.InternString("RefCounted"), guid.GUID{}, 0)

	if n := table.StrongRefCount(inst.Handle()); n != 1 {
		t.Fatalf("NewObject left strong count %d, want 1 (invariant (1): strong >= 1 for a live, unrooted slot)", n)
	}

	AddRef(inst)
	if n := table.StrongRefCount(inst.Handle()); n != 2 {
		t.Fatalf("AddRef left strong count %d, want 2", n)
	}

	Release(inst)
	if _, ok := table.Resolve(inst.Handle()); !ok {
		t.Fatalf("object was destroyed after releasing one of two strong references")
	}

	Release(inst)
	if _, ok := table.Resolve(inst.Handle()); ok {
		t.Fatalf("object survived its strong reference count reaching zero")
	}
}

func TestAddToRootRaisesStrongRefRemoveFromRootReverses(t *testing.T) {
	class := newTestClass(t)
	inst := NewObject(class, nil, name.InternString("RootedRefCounted"), guid.GUID{}, 0)

	AddToRoot(inst)
	if n := table.StrongRefCount(inst.Handle()); n != 2 {
		t.Fatalf("AddToRoot left strong count %d, want 2 (NewObject's ref plus the one AddToRoot adds)", n)
	}

	// The caller's own strong reference can be released while the object
	// stays alive purely on the root's reference.
	Release(inst)
	if _, ok := table.Resolve(inst.Handle()); !ok {
		t.Fatalf("rooted object was destroyed by releasing a non-root strong reference")
	}

	RemoveFromRoot(inst)
	if _, ok := table.Resolve(inst.Handle()); ok {
		t.Fatalf("object survived RemoveFromRoot after its last strong reference was the root's own")
	}
}

type widgetWithCDOHook struct {
	Base
	postCreateCDOCalled bool
}

func (w *widgetWithCDOHook) PostCreateCDO() { w.postCreateCDOCalled = true }

func TestDefaultObjectForConstructsRootsAndCachesOnce(t *testing.T) {
	g := rtti.NewGraph()
	className := name.InternString("objectcore_test.WidgetWithCDOHook")
	g.RegisterClasses(rtti.ClassRegistration{
		Name:    className,
		Factory: func() any { return &widgetWithCDOHook{} },
	})
	g.Flush()
	class := g.FindClass(className)
	if class == nil {
		t.Fatalf("class not registered")
	}

	cdo := DefaultObjectFor(class)
	hooked, ok := cdo.(*widgetWithCDOHook)
	if !ok {
		t.Fatalf("DefaultObjectFor returned %T, want *widgetWithCDOHook", cdo)
	}
	if !hooked.postCreateCDOCalled {
		t.Fatalf("DefaultObjectFor did not invoke PostCreateCDO")
	}
	if !cdo.Flags().Has(object.DefaultObject) {
		t.Fatalf("CDO is missing the DefaultObject flag")
	}
	if !cdo.Flags().Has(object.Rooted) {
		t.Fatalf("CDO was not rooted")
	}

	if again := DefaultObjectFor(class); again != cdo {
		t.Fatalf("DefaultObjectFor constructed a second CDO for the same class")
	}

	Shutdown()
	if _, ok := table.Resolve(cdo.Handle()); !ok {
		t.Fatalf("CDO did not survive Shutdown's sweep despite being rooted")
	}
}

func TestObjectFlags(t *testing.T) {
	class := newTestClass(t)
	inst := NewObject(class, nil, name.None, guid.GUID{}, object.Public|object.Transient)

	if f := inst.Flags(); !f.Has(object.Public) || !f.Has(object.Transient) {
		t.Fatalf("Flags = %v, want Public|Transient", f)
	}
}
