// Package objectcore is the top-level facade tying the object table
// (pkg/object) and the reflection graph (pkg/rtti) together into concrete,
// constructible, destructible object instances. It is the layer most
// application code imports directly: NewObject, FindObjectByGUID/
// FindObjectByName, and the Init/Shutdown lifecycle.
package objectcore

import (
	"sync"

	"github.com/lumina-rt/objectcore/internal/assert"
	"github.com/lumina-rt/objectcore/pkg/guid"
	"github.com/lumina-rt/objectcore/pkg/metrics"
	"github.com/lumina-rt/objectcore/pkg/name"
	"github.com/lumina-rt/objectcore/pkg/object"
	"github.com/lumina-rt/objectcore/pkg/rtti"
)

// Metrics receives object-lifecycle counters. The zero value (metrics.Noop)
// costs nothing; callers that want Prometheus visibility assign
// metrics.NewPromSink(reg) once at startup.
var Metrics metrics.Sink = metrics.Noop

// PackageRef is the minimal view objectcore needs of whatever package an
// object belongs to. pkg/pkgfile's Package type implements this; objectcore
// itself never imports pkg/pkgfile; (keeping the dependency arrow pointing
// the other way avoids a cycle, since pkgfile needs to construct and
// inspect objects through this package).
type PackageRef interface {
	PackageName() name.Name
}

// Instance is implemented by every object managed through this package.
// Base implements it directly; reflected types embed Base to satisfy it for
// free.
type Instance interface {
	ClassPtr() *rtti.Class
	setClassPtr(*rtti.Class)
	ObjectName() name.Name
	setObjectName(name.Name)
	ObjectGUID() guid.GUID
	setObjectGUID(guid.GUID)
	Package() PackageRef
	setPackage(PackageRef)
	Handle() object.Handle
	setHandle(object.Handle)
	Flags() object.Flags

	// PostLoad runs once after a loaded object's tagged properties have been
	// read, before the object is handed to its caller. The zero-value
	// implementation on Base is a no-op; reflected types override it by
	// defining their own PostLoad method, which shadows Base's.
	PostLoad()
}

// Base is the concrete struct every reflected object type embeds. It
// carries the identity fields every object needs (class, package, name,
// GUID) plus the bookkeeping objectcore itself needs (table handle).
type Base struct {
	class   *rtti.Class
	pkg     PackageRef
	objName name.Name
	objGUID guid.GUID
	handle  object.Handle
}

func (b *Base) ClassPtr() *rtti.Class        { return b.class }
func (b *Base) setClassPtr(c *rtti.Class)    { b.class = c }
func (b *Base) ObjectName() name.Name        { return b.objName }
func (b *Base) setObjectName(n name.Name)    { b.objName = n }
func (b *Base) ObjectGUID() guid.GUID        { return b.objGUID }
func (b *Base) setObjectGUID(g guid.GUID)    { b.objGUID = g }
func (b *Base) Package() PackageRef          { return b.pkg }
func (b *Base) setPackage(p PackageRef)      { b.pkg = p }
func (b *Base) Handle() object.Handle        { return b.handle }
func (b *Base) setHandle(h object.Handle)    { b.handle = h }
func (b *Base) Flags() object.Flags          { return table.Flags(b.handle) }

// PostLoad is the default no-op hook; reflected types that need post-load
// fixup define their own PostLoad method on their embedding struct.
func (b *Base) PostLoad() {}

// table is the process-wide object table every Instance is allocated
// through. It is generic over the Instance interface rather than over any
// concrete struct, so Base and every type embedding it share one table.
var table = object.NewTable[Instance]()

// Table exposes the underlying object table for callers that need direct
// handle-level operations (pkg/pkgfile's load-flag bookkeeping, benchmarks,
// diagnostic tooling). Most application code should prefer NewObject /
// FindObjectByGUID / FindObjectByName instead.
func Table() *object.Table[Instance] { return table }

// Init replaces the process-wide object table with one sized for
// initialCapacity, so a caller who knows roughly how many objects it will
// allocate (pkg/engineconfig's ObjectTableCapacity, typically) pays for one
// chunk allocation instead of several as the table grows into it. It must
// run before the first NewObject call; calling it afterward would discard
// already-allocated objects' slots, so it asserts there have been none yet.
func Init(initialCapacity int) {
	assert.That(table.Len() == 0, "objectcore: Init called after objects were already allocated")
	if initialCapacity > 0 {
		table = object.NewTableSized[Instance](initialCapacity)
	}
}

// NewObject allocates and constructs a fresh instance of class, optionally
// owned by pkg (nil for a transient, packageless object), with the given
// name and GUID. A zero GUID is replaced with a freshly generated one.
func NewObject(class *rtti.Class, pkg PackageRef, objName name.Name, objGUID guid.GUID, flags object.Flags) Instance {
	assert.That(class != nil, "objectcore: NewObject called with a nil class")
	if objGUID.IsNil() {
		objGUID = guid.New()
	}

	raw := class.NewInstance()
	inst, ok := raw.(Instance)
	assert.That(ok, "objectcore: class %v's factory did not produce an objectcore.Instance", class.Name())

	inst.setClassPtr(class)
	inst.setPackage(pkg)
	inst.setObjectName(objName)
	inst.setObjectGUID(objGUID)

	h := table.Allocate(inst)
	inst.setHandle(h)
	table.SetFlags(h, flags)

	// NewObject hands back an owned strong reference: invariant (1) requires
	// every live, non-rooted slot to carry strong >= 1, and a freshly
	// allocated object is neither rooted nor referenced by anything else
	// yet. The caller releases it via Release (or AddToRoot, for permanent
	// objects) once it no longer needs its own hold.
	table.AddStrongRef(h)

	Metrics.IncObjectsAllocated()
	Metrics.SetLiveObjects(table.Len())
	return inst
}

// AddRef raises inst's strong reference count and returns the new count.
// Pair with Release; the object is destroyed automatically when the count
// returns to zero while unrooted.
func AddRef(inst Instance) int32 {
	return table.AddStrongRef(inst.Handle())
}

// Release drops one strong reference taken via NewObject or AddRef (resolving
// an ObjectRef property takes none). When the count reaches zero and inst is
// not rooted, it is destroyed immediately — the "strong release to zero
// schedules destruction" rule. Releasing a rooted object only lowers the
// count; RemoveFromRoot is what ultimately frees it.
func Release(inst Instance) {
	h := inst.Handle()
	n := table.ReleaseStrongRef(h)
	if n <= 0 && !table.Flags(h).Has(object.Rooted) {
		Destroy(inst)
	}
}

// FindObjectByGUID scans the live object table for an instance whose GUID
// matches. It is O(live objects); callers that look up the same GUID
// repeatedly should maintain their own index (the asset registry does).
func FindObjectByGUID(g guid.GUID) (Instance, bool) {
	var found Instance
	table.ForEach(func(h object.Handle, obj Instance) {
		if found == nil && obj.ObjectGUID() == g {
			found = obj
		}
	})
	return found, found != nil
}

// FindObjectByName scans the live object table for an instance of class
// with the given name.
func FindObjectByName(class *rtti.Class, objName name.Name) (Instance, bool) {
	var found Instance
	table.ForEach(func(h object.Handle, obj Instance) {
		if found != nil {
			return
		}
		if obj.ObjectName() == objName && obj.ClassPtr().IsChildOf(&class.Struct) {
			found = obj
		}
	})
	return found, found != nil
}

// cdoMu guards cdos, the per-class cache DefaultObjectFor lazily populates.
var (
	cdoMu sync.Mutex
	cdos  = make(map[*rtti.Class]Instance)
)

// postCreateCDO is implemented by reflected types that need to run
// per-class initialization once their class-default object is fully
// constructed and rooted — the hook DefaultObjectFor invokes as the last
// step, mirroring how Instance's PostLoad hook shadows Base's no-op default.
type postCreateCDO interface {
	PostCreateCDO()
}

// DefaultObjectFor returns class's class-default object (CDO), constructing
// it lazily on first access: factory, stamp the DefaultObject flag, root it,
// then invoke PostCreateCDO if the instance defines one. The result is
// cached for the life of the process — a class has exactly one CDO.
func DefaultObjectFor(class *rtti.Class) Instance {
	cdoMu.Lock()
	defer cdoMu.Unlock()

	if inst, ok := cdos[class]; ok {
		return inst
	}

	inst := NewObject(class, nil, class.Name(), guid.GUID{}, object.DefaultObject)
	AddToRoot(inst)
	if hook, ok := inst.(postCreateCDO); ok {
		hook.PostCreateCDO()
	}
	cdos[class] = inst
	return inst
}

// AddToRoot marks inst as rooted and raises its strong reference count to
// match: it now survives both Shutdown's sweep and an ordinary strong
// release to zero, until explicitly unrooted.
func AddToRoot(inst Instance) {
	h := inst.Handle()
	table.SetFlags(h, object.Rooted)
	table.AddStrongRef(h)
}

// RemoveFromRoot reverses AddToRoot: clears the rooted flag and releases
// the strong reference it added. If that brings the count to zero, inst is
// destroyed immediately, same as any other strong release to zero.
func RemoveFromRoot(inst Instance) {
	h := inst.Handle()
	table.ClearFlags(h, object.Rooted)
	if table.ReleaseStrongRef(h) <= 0 {
		Destroy(inst)
	}
}

// Destroy retires inst's table slot immediately. Ordinary application code
// should prefer letting strong references drop to zero; Destroy is for
// explicit teardown paths (package unload, Shutdown's sweep).
func Destroy(inst Instance) {
	table.Destroy(inst.Handle())
	Metrics.IncObjectsDestroyed()
	Metrics.SetLiveObjects(table.Len())
}

// RenameObject changes inst's object name in place. It exists for
// pkg/pkgfile's primary-asset recovery path (renaming an export whose
// in-package Name no longer matches its file after an external rename);
// ordinary code has no reason to rename a live object.
func RenameObject(inst Instance, newName name.Name) {
	inst.setObjectName(newName)
}

// RunPostLoad invokes inst's PostLoad hook and clears its NeedsPostLoad
// flag. Package loading defers PostLoad until after an object's tagged
// properties are read; callers (ordinarily a per-tick pump, or a test that
// wants the hook to run synchronously) call this once per loaded object.
func RunPostLoad(inst Instance) {
	inst.PostLoad()
	table.ClearFlags(inst.Handle(), object.NeedsPostLoad)
}

// Shutdown tears down every live, non-rooted object regardless of
// outstanding strong reference count and returns how many it destroyed.
// It sets no shutdown state: a later Release or RemoveFromRoot that brings
// a surviving object's count to zero still destroys it. No per-object
// teardown hook runs; the sweep only retires table slots.
func Shutdown() int {
	n := table.Sweep(func(h object.Handle, obj Instance) bool {
		return !table.Flags(h).Has(object.Rooted)
	})
	for i := 0; i < n; i++ {
		Metrics.IncObjectsDestroyed()
	}
	Metrics.SetLiveObjects(table.Len())
	return n
}
