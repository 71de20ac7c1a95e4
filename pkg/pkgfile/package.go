package pkgfile

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lumina-rt/objectcore/pkg/guid"
	"github.com/lumina-rt/objectcore/pkg/metrics"
	"github.com/lumina-rt/objectcore/pkg/name"
	"github.com/lumina-rt/objectcore/pkg/objectcore"
	"github.com/lumina-rt/objectcore/pkg/rtti"
)

// ioMu serializes every SavePackage / LoadPackage / LoadObject call against
// every other one. The reflection graph's ObjectRef/ClassRef properties
// carry a single shared RefArchiver slot per Property (see
// rtti.Property.WithRefArchiver); a package operation points that slot at
// its own save/load context for the duration of the call, so two package
// operations must never run concurrently against the same process-wide
// reflection graph. This mirrors the rule that package loader archive state
// belongs exclusively to the operation using it.
var ioMu sync.Mutex

// Logger receives load-failure and recovery diagnostics. nil discards them.
var Logger *zap.Logger

// Metrics receives package IO counters. The zero value (metrics.Noop) costs
// nothing; assign metrics.NewPromSink(reg) once at startup for visibility.
var Metrics metrics.Sink = metrics.Noop

// Package is an opened package file: its header, import/export tables, and
// (after LoadPackage) the raw bytes needed to lazily read each export's
// payload on demand.
type Package struct {
	pkgName name.Name
	path    string

	header  Header
	imports []Import
	exports []Export

	raw    []byte
	loaded map[guid.GUID]objectcore.Instance
}

// PackageName implements objectcore.PackageRef.
func (p *Package) PackageName() name.Name { return p.pkgName }

// Path returns the filesystem path this package was saved to or loaded from.
func (p *Package) Path() string { return p.path }

// Imports returns the package's import table.
func (p *Package) Imports() []Import { return p.imports }

// Exports returns the package's export table.
func (p *Package) Exports() []Export { return p.exports }

// Header returns the package's parsed header.
func (p *Package) Header() Header { return p.header }

// Loaded returns the instance already allocated for export g (its payload
// may or may not have been read yet — check its object.NeedsLoad flag), or
// false if g does not name one of this package's exports.
func (p *Package) Loaded(g guid.GUID) (objectcore.Instance, bool) {
	inst, ok := p.loaded[g]
	return inst, ok
}

func (p *Package) logger() *zap.Logger {
	if Logger != nil {
		return Logger
	}
	return zap.NewNop()
}

func (p *Package) exportIndexForGUID(g guid.GUID) int {
	for i, exp := range p.exports {
		if exp.GUID == g {
			return i
		}
	}
	return -1
}

// refProperties returns every ObjectRef/ClassRef property reachable on
// class's own and inherited fields, the set a package save/load must wire a
// packageRefArchiver onto before touching any instance of that class.
func refProperties(class *rtti.Class) []*rtti.Property {
	var out []*rtti.Property
	for _, p := range class.PropertiesChildFirst() {
		if p.Tag() == rtti.ObjectRef || p.Tag() == rtti.ClassRef {
			out = append(out, p)
		}
	}
	return out
}

// AssetMetadataKey / assetMetadataTrue mark a class as a primary-asset type
// for the rename-recovery rule below. Callers flag a class after Flush:
//
//	graph.FindClass(className).SetMetadata(pkgfile.AssetMetadataKey, pkgfile.AssetMetadataTrue)
var AssetMetadataKey = name.InternString("pkgfile.asset")
var AssetMetadataTrue = name.InternString("true")

// IsAssetClass reports whether class was registered as a primary-asset type
// eligible for rename recovery.
func IsAssetClass(class *rtti.Class) bool {
	if class == nil {
		return false
	}
	v, ok := class.Metadata(AssetMetadataKey)
	return ok && v == AssetMetadataTrue
}
