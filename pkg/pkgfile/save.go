package pkgfile

import (
	"github.com/spf13/afero"

	"github.com/lumina-rt/objectcore/pkg/guid"
	"github.com/lumina-rt/objectcore/pkg/name"
	"github.com/lumina-rt/objectcore/pkg/objectcore"
	"github.com/lumina-rt/objectcore/pkg/rtti"
	"github.com/lumina-rt/objectcore/pkg/serialize"
)

// saveContext maps every object reachable from a SavePackage call to the
// LocalRef it will serialize as: this package's own exports get positive
// refs in export-table order, and every distinct externally-owned object
// they reference gets a negative import-table ref.
type saveContext struct {
	refByGUID map[guid.GUID]LocalRef
}

func (c *saveContext) refFor(inst objectcore.Instance) LocalRef {
	if inst == nil {
		return NullRef
	}
	if r, ok := c.refByGUID[inst.ObjectGUID()]; ok {
		return r
	}
	return NullRef
}

// collectImports walks every ObjectRef/ClassRef property of every export and
// records, in first-seen order, every referenced object that is not itself
// one of exports. It also extends ctx with an import ref for each.
func collectImports(exports []objectcore.Instance, ctx *saveContext) []Import {
	var imports []Import
	seen := make(map[guid.GUID]bool)
	for _, inst := range exports {
		for _, p := range refProperties(inst.ClassPtr()) {
			other, ok := p.GetValuePtr(inst).(objectcore.Instance)
			if !ok || other == nil {
				continue
			}
			g := other.ObjectGUID()
			if _, isExport := ctx.refByGUID[g]; isExport {
				continue
			}
			if seen[g] {
				continue
			}
			seen[g] = true
			ctx.refByGUID[g] = importRef(len(imports))
			imports = append(imports, Import{GUID: g})
		}
	}
	return imports
}

// SavePackage writes exports to path on fs as a package file. Objects they
// reference outside this package are not written; only their GUIDs are
// recorded, in the import table. exports
// must all share pkgName as their Package().PackageName(); SavePackage does
// not verify this, it trusts the caller's save context.
//
// Steps follow the format exactly: header with placeholder offsets, import
// table, export table with placeholder offsets, each export's tagged
// properties in turn (recording its real offset and size), an optional
// thumbnail, then a seek-back to rewrite the header and export table with
// their real offsets.
func SavePackage(fs afero.Fs, path string, pkgName name.Name, exports []objectcore.Instance, thumb *Thumbnail) error {
	ioMu.Lock()
	defer ioMu.Unlock()

	pkg := &Package{pkgName: pkgName, path: path}

	ctx := &saveContext{refByGUID: make(map[guid.GUID]LocalRef, len(exports))}
	for i, inst := range exports {
		ctx.refByGUID[inst.ObjectGUID()] = exportRef(i)
	}
	imports := collectImports(exports, ctx)
	pkg.imports = imports

	archiver := packageRefArchiver{pkg: pkg, save: ctx}
	wired := make(map[*rtti.Property]bool)
	for _, inst := range exports {
		for _, p := range refProperties(inst.ClassPtr()) {
			if !wired[p] {
				p.WithRefArchiver(archiver)
				wired[p] = true
			}
		}
	}

	ar := serialize.NewWriter()
	writeHeader(ar, Header{})

	importOffset := ar.Tell()
	writeImportTable(ar, imports)

	exportOffset := ar.Tell()
	records := make([]Export, len(exports))
	for i, inst := range exports {
		records[i] = Export{
			GUID:      inst.ObjectGUID(),
			Name:      inst.ObjectName().String(),
			ClassName: inst.ClassPtr().Name().String(),
		}
	}
	writeExportTable(ar, records)

	objectDataOff := ar.Tell()
	for i, inst := range exports {
		start := ar.Tell()
		serialize.SerializeTaggedProperties(ar, &inst.ClassPtr().Struct, inst)
		records[i].Offset = start
		records[i].Size = ar.Tell() - start
	}
	pkg.exports = records

	var thumbOff int64
	if thumb != nil {
		thumbOff = ar.Tell()
		writeThumbnail(ar, thumb)
	}

	header := Header{
		Tag:           Tag,
		Version:       Version,
		ImportOffset:  importOffset,
		ImportCount:   int32(len(imports)),
		ExportOffset:  exportOffset,
		ExportCount:   uint32(len(exports)),
		ObjectDataOff: objectDataOff,
		ThumbnailOff:  thumbOff,
	}
	ar.Seek(0)
	writeHeader(ar, header)
	ar.Seek(exportOffset)
	writeExportTable(ar, records)

	if ar.HasError() {
		return ar.Err()
	}
	if err := afero.WriteFile(fs, path, ar.Bytes(), 0o644); err != nil {
		return err
	}
	Metrics.IncPackageSaves()
	return nil
}
