package pkgfile

import (
	"go.uber.org/zap"

	"github.com/lumina-rt/objectcore/pkg/objectcore"
	"github.com/lumina-rt/objectcore/pkg/rtti"
)

// packageRefArchiver implements rtti.RefArchiver for ObjectRef/ClassRef
// properties during a save or load against one package. On write it resolves
// the property's live objectcore.Instance value to a LocalRef through the
// save context; on read it resolves a LocalRef back into the already
// allocated instance for an export (which may itself still carry
// NeedsLoad — LoadObject is the caller's explicit follow-up, never forced
// recursively from here, since a package operation already holds ioMu for
// the duration of one LoadObject call), falling back to a process-wide GUID
// lookup for imports that are already resident.
type packageRefArchiver struct {
	pkg  *Package
	save *saveContext
}

func (a packageRefArchiver) Read(ar rtti.Archive) any {
	ref := LocalRef(ar.ReadInt32())
	if ref.IsNull() {
		return nil
	}
	if ref.IsExport() {
		inst, ok := a.pkg.Loaded(a.pkg.exports[ref.ArrayIndex()].GUID)
		if !ok {
			return nil
		}
		return inst
	}
	imp := a.pkg.imports[ref.ArrayIndex()]
	if inst, ok := objectcore.FindObjectByGUID(imp.GUID); ok {
		return inst
	}
	a.pkg.logger().Warn("package reference: import not resident, leaving nil",
		zap.String("guid", imp.GUID.String()))
	return nil
}

func (a packageRefArchiver) Write(ar rtti.Archive, value any) {
	inst, _ := value.(objectcore.Instance)
	ar.WriteInt32(int32(a.save.refFor(inst)))
}
