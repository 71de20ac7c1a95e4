package pkgfile

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/lumina-rt/objectcore/pkg/guid"
	"github.com/lumina-rt/objectcore/pkg/name"
	"github.com/lumina-rt/objectcore/pkg/object"
	"github.com/lumina-rt/objectcore/pkg/objectcore"
	"github.com/lumina-rt/objectcore/pkg/rtti"
)

type fooAsset struct {
	objectcore.Base
	Health int32
	Mana   int32
}

func newFooClass(t *testing.T, className string) (*rtti.Graph, *rtti.Class) {
	t.Helper()
	g := rtti.NewGraph()
	n := name.InternString(className)
	g.RegisterClasses(rtti.ClassRegistration{
		Name:    n,
		Factory: func() any { return &fooAsset{} },
		Properties: []rtti.PropertyParam{
			{Name: name.InternString("Health"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Health")},
			{Name: name.InternString("Mana"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Mana")},
		},
	})
	g.Flush()
	c := g.FindClass(n)
	if c == nil {
		t.Fatalf("class %s not registered", className)
	}
	c.SetMetadata(AssetMetadataKey, AssetMetadataTrue)
	return g, c
}

func TestSaveLoadRoundTrip(t *testing.T) {
	graph, class := newFooClass(t, "pkgfile_test.RoundTripFoo")
	fs := afero.NewMemMapFs()

	src := objectcore.NewObject(class, nil, name.InternString("Foo"), guid.GUID{}, 0).(*fooAsset)
	src.Health = 42
	src.Mana = 7

	pkgName := name.InternString("Foo")
	if err := SavePackage(fs, "/Game/Content/Foo.lasset", pkgName, []objectcore.Instance{src}, nil); err != nil {
		t.Fatalf("SavePackage: %v", err)
	}
	objectcore.Destroy(src)

	pkg, err := LoadPackage(fs, graph, "/Game/Content/Foo.lasset")
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}
	if pkg.Header().Tag != Tag {
		t.Fatalf("header tag = %#x, want %#x", pkg.Header().Tag, Tag)
	}
	if len(pkg.Exports()) != 1 {
		t.Fatalf("Exports() = %d entries, want 1", len(pkg.Exports()))
	}

	loaded, ok := pkg.Loaded(src.ObjectGUID())
	if !ok {
		t.Fatalf("Loaded did not find the export")
	}
	if !objectcore.Table().Flags(loaded.Handle()).Has(object.NeedsLoad) {
		t.Fatalf("freshly opened export should carry NeedsLoad before LoadObject")
	}

	out, err := pkg.LoadObject(src.ObjectGUID())
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	dst := out.(*fooAsset)
	if dst.Health != 42 || dst.Mana != 7 {
		t.Fatalf("LoadObject produced %+v, want Health=42 Mana=7", dst)
	}
	if objectcore.Table().Flags(dst.Handle()).Has(object.NeedsLoad) {
		t.Fatalf("LoadObject did not clear NeedsLoad")
	}
	if !objectcore.Table().Flags(dst.Handle()).Has(object.NeedsPostLoad) {
		t.Fatalf("LoadObject did not set NeedsPostLoad")
	}
}

func TestLoadPackageRejectsBadTag(t *testing.T) {
	graph, _ := newFooClass(t, "pkgfile_test.BadTagFoo")
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/Game/Content/Corrupt.lasset", []byte("not a package"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadPackage(fs, graph, "/Game/Content/Corrupt.lasset"); err != ErrBadTag {
		t.Fatalf("LoadPackage error = %v, want ErrBadTag", err)
	}
}

func TestPrimaryAssetRenameRecovery(t *testing.T) {
	graph, class := newFooClass(t, "pkgfile_test.RenameFoo")
	fs := afero.NewMemMapFs()

	src := objectcore.NewObject(class, nil, name.InternString("OldName"), guid.GUID{}, 0).(*fooAsset)
	if err := SavePackage(fs, "/Game/Content/OldName.lasset", name.InternString("OldName"), []objectcore.Instance{src}, nil); err != nil {
		t.Fatalf("SavePackage: %v", err)
	}

	data, err := afero.ReadFile(fs, "/Game/Content/OldName.lasset")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if err := afero.WriteFile(fs, "/Game/Content/NewName.lasset", data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	pkg, err := LoadPackage(fs, graph, "/Game/Content/NewName.lasset")
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}
	if pkg.Exports()[0].Name != "NewName" {
		t.Fatalf("recovered export name = %q, want %q", pkg.Exports()[0].Name, "NewName")
	}
	loaded, _ := pkg.Loaded(src.ObjectGUID())
	if loaded.ObjectName() != name.InternString("NewName") {
		t.Fatalf("in-memory instance was not renamed to match recovery")
	}
}

func TestSavePackageResolvesObjectReference(t *testing.T) {
	refGraph := rtti.NewGraph()
	targetClassName := name.InternString("pkgfile_test.RefTarget")
	refGraph.RegisterClasses(rtti.ClassRegistration{
		Name:    targetClassName,
		Factory: func() any { return &fooAsset{} },
		Properties: []rtti.PropertyParam{
			{Name: name.InternString("Health"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Health")},
		},
	})

	type holder struct {
		objectcore.Base
		Ref objectcore.Instance
	}
	holderClassName := name.InternString("pkgfile_test.RefHolder")
	refGraph.RegisterClasses(rtti.ClassRegistration{
		Name:    holderClassName,
		Factory: func() any { return &holder{} },
		Properties: []rtti.PropertyParam{
			{Name: name.InternString("Ref"), Tag: rtti.ObjectRef, Accessor: rtti.Accessor{
				Get: func(c any) any { return c.(*holder).Ref },
				Set: func(c any, v any) {
					inst, _ := v.(objectcore.Instance)
					c.(*holder).Ref = inst
				},
			}},
		},
	})
	refGraph.Flush()
	targetClass := refGraph.FindClass(targetClassName)
	holderClass := refGraph.FindClass(holderClassName)

	fs := afero.NewMemMapFs()
	target := objectcore.NewObject(targetClass, nil, name.InternString("Target"), guid.GUID{}, 0).(*fooAsset)
	target.Health = 99
	h := objectcore.NewObject(holderClass, nil, name.InternString("Holder"), guid.GUID{}, 0).(*holder)
	h.Ref = target

	pkgName := name.InternString("Holder")
	if err := SavePackage(fs, "/Game/Content/Holder.lasset", pkgName, []objectcore.Instance{h, target}, nil); err != nil {
		t.Fatalf("SavePackage: %v", err)
	}

	pkg, err := LoadPackage(fs, refGraph, "/Game/Content/Holder.lasset")
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}
	loadedHolder, err := pkg.LoadObject(h.ObjectGUID())
	if err != nil {
		t.Fatalf("LoadObject(holder): %v", err)
	}
	resolvedRef := loadedHolder.(*holder).Ref
	if resolvedRef == nil {
		t.Fatalf("Ref property did not resolve after load")
	}
	if _, err := pkg.LoadObject(resolvedRef.ObjectGUID()); err != nil {
		t.Fatalf("LoadObject(target): %v", err)
	}
	if resolvedRef.(*fooAsset).Health != 99 {
		t.Fatalf("referenced object Health = %d, want 99", resolvedRef.(*fooAsset).Health)
	}
}

func TestPeekExportsCachesUntilFileChanges(t *testing.T) {
	SetHeaderCacheSize(64)
	t.Cleanup(func() { SetHeaderCacheSize(defaultHeaderCacheCap) })

	_, class := newFooClass(t, "pkgfile_test.Cached")
	fs := afero.NewMemMapFs()
	inst := objectcore.NewObject(class, nil, name.InternString("Cached"), guid.GUID{}, 0).(*fooAsset)
	inst.Health = 7

	const p = "/Game/Content/Cached.lasset"
	if err := SavePackage(fs, p, name.InternString("Cached"), []objectcore.Instance{inst}, nil); err != nil {
		t.Fatalf("SavePackage: %v", err)
	}

	header1, exports1, err := PeekExports(fs, p)
	if err != nil {
		t.Fatalf("PeekExports: %v", err)
	}
	if len(exports1) != 1 {
		t.Fatalf("exports = %d, want 1", len(exports1))
	}

	if _, ok := headerCache.Get(p); !ok {
		t.Fatalf("PeekExports did not populate the header cache")
	}

	header2, exports2, err := PeekExports(fs, p)
	if err != nil {
		t.Fatalf("PeekExports (cached): %v", err)
	}
	if header2 != header1 || len(exports2) != len(exports1) {
		t.Fatalf("cached PeekExports result diverged from the first read")
	}

	inst2 := objectcore.NewObject(class, nil, name.InternString("Cached2"), guid.GUID{}, 0).(*fooAsset)
	if err := SavePackage(fs, p, name.InternString("Cached"), []objectcore.Instance{inst, inst2}, nil); err != nil {
		t.Fatalf("SavePackage (overwrite): %v", err)
	}

	_, exports3, err := PeekExports(fs, p)
	if err != nil {
		t.Fatalf("PeekExports (after overwrite): %v", err)
	}
	if len(exports3) != 2 {
		t.Fatalf("exports after overwrite = %d, want 2 (stale cache entry was served)", len(exports3))
	}
}
