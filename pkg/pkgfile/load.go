package pkgfile

import (
	"fmt"
	"path"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/lumina-rt/objectcore/pkg/guid"
	"github.com/lumina-rt/objectcore/pkg/name"
	"github.com/lumina-rt/objectcore/pkg/object"
	"github.com/lumina-rt/objectcore/pkg/objectcore"
	"github.com/lumina-rt/objectcore/pkg/rtti"
	"github.com/lumina-rt/objectcore/pkg/serialize"
)

// ErrBadTag is returned by LoadPackage when a file's header tag does not
// match the package format's magic number.
var ErrBadTag = fmt.Errorf("pkgfile: header tag mismatch (not a package file)")

// LoadPackage reads path from fs, allocates an uninitialized object for
// every export through the object table (stamped NeedsLoad|WasLoaded), and
// returns the opened Package. Export payloads are not read yet; call
// LoadObject for each export whose data is actually needed.
//
// graph resolves each export's recorded class name; classes not found are
// logged and skipped (the export entry is kept, but no object is allocated
// for it — a later LoadObject call for its GUID fails).
func LoadPackage(fs afero.Fs, graph *rtti.Graph, filePath string) (*Package, error) {
	ioMu.Lock()
	defer ioMu.Unlock()

	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		Metrics.IncPackageLoadFailures()
		return nil, err
	}

	ar := serialize.NewReader(data)
	header := readHeader(ar)
	if header.Tag != Tag {
		Metrics.IncPackageLoadFailures()
		return nil, ErrBadTag
	}

	ar.Seek(header.ImportOffset)
	imports := readImportTable(ar, header.ImportCount)

	ar.Seek(header.ExportOffset)
	exports := readExportTable(ar, header.ExportCount)

	if ar.HasError() {
		Metrics.IncPackageLoadFailures()
		return nil, ar.Err()
	}

	pkg := &Package{
		pkgName: name.InternString(stemOf(filePath)),
		path:    filePath,
		header:  header,
		imports: imports,
		exports: exports,
		raw:     data,
		loaded:  make(map[guid.GUID]objectcore.Instance, len(exports)),
	}

	for _, exp := range exports {
		class := graph.FindClass(name.InternString(exp.ClassName))
		if class == nil {
			pkg.logger().Warn("pkgfile: load failure, unknown export class",
				zap.String("path", filePath), zap.String("class", exp.ClassName), zap.String("export", exp.Name))
			continue
		}
		inst := objectcore.NewObject(class, pkg, name.InternString(exp.Name), exp.GUID, object.NeedsLoad|object.WasLoaded)
		pkg.loaded[exp.GUID] = inst
	}

	processPackagePath(pkg, filePath)

	Metrics.IncPackageLoads()
	return pkg, nil
}

// LoadObject synchronously reads g's export payload (if it hasn't been read
// already) into its allocated instance, clears NeedsLoad, and marks
// NeedsPostLoad for the owning system to run on its next tick.
func (p *Package) LoadObject(g guid.GUID) (objectcore.Instance, error) {
	ioMu.Lock()
	defer ioMu.Unlock()

	inst, ok := p.loaded[g]
	if !ok {
		return nil, fmt.Errorf("pkgfile: %s has no loaded export %s", p.path, g)
	}

	tbl := objectcore.Table()
	flags := tbl.Flags(inst.Handle())
	if !flags.Has(object.NeedsLoad) {
		return inst, nil
	}
	if flags.Has(object.Loading) {
		return nil, fmt.Errorf("pkgfile: reentrant load of %s", g)
	}

	idx := p.exportIndexForGUID(g)
	if idx < 0 {
		return nil, fmt.Errorf("pkgfile: %s has no export table entry for %s", p.path, g)
	}
	exp := p.exports[idx]

	tbl.SetFlags(inst.Handle(), object.Loading)

	archiver := packageRefArchiver{pkg: p}
	for _, prop := range refProperties(inst.ClassPtr()) {
		prop.WithRefArchiver(archiver)
	}

	ar := serialize.NewReader(p.raw)
	ar.Seek(exp.Offset)
	serialize.SerializeTaggedProperties(ar, &inst.ClassPtr().Struct, inst)

	tbl.ClearFlags(inst.Handle(), object.NeedsLoad|object.Loading)
	tbl.SetFlags(inst.Handle(), object.NeedsPostLoad)

	if ar.HasError() {
		return inst, ar.Err()
	}
	return inst, nil
}

// PeekExports reads filePath's header and export table only, without
// allocating any object or requiring a reflection graph. It is the entry
// point pkg/assetregistry's discovery walk uses: discovery only needs each
// export's (GUID, Name, ClassName), never a constructed instance.
//
// Results are cached (see SetHeaderCacheSize) keyed by path and validated
// against the file's current mtime/size, so repeated discovery rescans of an
// unchanged tree skip re-reading and re-parsing files they've already seen.
func PeekExports(fs afero.Fs, filePath string) (Header, []Export, error) {
	if header, exports, ok := lookupHeaderCache(fs, filePath); ok {
		return header, exports, nil
	}

	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return Header{}, nil, err
	}

	ar := serialize.NewReader(data)
	header := readHeader(ar)
	if header.Tag != Tag {
		return Header{}, nil, ErrBadTag
	}

	ar.Seek(header.ExportOffset)
	exports := readExportTable(ar, header.ExportCount)
	if ar.HasError() {
		return Header{}, nil, ar.Err()
	}

	storeHeaderCache(fs, filePath, header, exports)
	return header, exports, nil
}

// stemOf returns path's base filename without its extension, the name a
// package's primary export is expected to carry.
func stemOf(p string) string {
	base := path.Base(p)
	if ext := path.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}

// processPackagePath implements the primary-asset rename-recovery rule: if
// no export's Name matches the package's filename stem, the first
// asset-classed export is renamed to it. If no export is asset-classed, the
// package is reported unrecoverable (and left as-is).
func processPackagePath(pkg *Package, filePath string) {
	stem := stemOf(filePath)
	for _, exp := range pkg.exports {
		if exp.Name == stem {
			return
		}
	}
	for i, exp := range pkg.exports {
		inst, ok := pkg.loaded[exp.GUID]
		if !ok || !IsAssetClass(inst.ClassPtr()) {
			continue
		}
		pkg.logger().Warn("pkgfile: recovering renamed primary asset",
			zap.String("path", filePath), zap.String("oldName", exp.Name), zap.String("newName", stem))
		pkg.exports[i].Name = stem
		objectcore.RenameObject(inst, name.InternString(stem))
		return
	}
	pkg.logger().Error("pkgfile: package is unrecoverable, no asset-classed export found",
		zap.String("path", filePath))
}
