// Package pkgfile implements the on-disk package container: a header,
// import/export tables, concatenated per-export object payloads, and an
// optional thumbnail. It is the layer that turns objectcore.Instance values
// into the bytes an Asset Registry discovers and a running process loads
// back.
package pkgfile

import "github.com/lumina-rt/objectcore/pkg/guid"

// Tag is the magic number every package file starts with.
const Tag uint32 = 0x9E2A83C1

// Version is the container format version written into every new package.
// LoadPackage does not reject a mismatched version today (there is only one),
// but carries the field so a future format change has somewhere to branch on.
const Version int32 = 1

// Header is the fixed-size record at the start of every package file. Offsets
// are placeholders until the corresponding section has actually been written;
// SavePackage seeks back and rewrites this record once every offset is known.
type Header struct {
	Tag           uint32
	Version       int32
	ImportOffset  int64
	ImportCount   int32
	ExportOffset  int64
	ExportCount   uint32
	ObjectDataOff int64
	ThumbnailOff  int64
}

const headerByteSize = 4 + 4 + 8 + 4 + 8 + 4 + 8 + 8

// Import is one entry of a package's import table: the GUID of an object
// this package references but does not own. The owning package is not
// recorded here; resolving an import means looking the GUID up through the
// Asset Registry or the process-wide object table.
type Import struct {
	GUID guid.GUID
}

// Export is one entry of a package's export table: an object this package
// owns, plus enough metadata to allocate it (before its payload is read) and
// to locate its payload within the file.
type Export struct {
	GUID      guid.GUID
	Name      string
	ClassName string
	Offset    int64
	Size      int64
}

// LocalRef is a package-local object reference: a signed index where 0 means
// null, a positive value i refers to export table index i-1, and a negative
// value -i refers to import table index i-1. It is the compact form used by
// the tagged-property archiver for references known to stay within one
// package's save context; references that cross package boundaries are
// always resolved by GUID instead.
type LocalRef int32

// NullRef is the LocalRef meaning "no object".
const NullRef LocalRef = 0

// IsNull reports whether r refers to no object.
func (r LocalRef) IsNull() bool { return r == NullRef }

// IsExport reports whether r refers to this package's own export table.
func (r LocalRef) IsExport() bool { return r > 0 }

// IsImport reports whether r refers to this package's import table.
func (r LocalRef) IsImport() bool { return r < 0 }

// ArrayIndex returns the zero-based index into whichever table IsExport or
// IsImport says r belongs to. Calling it on a null ref is a caller error.
func (r LocalRef) ArrayIndex() int {
	if r > 0 {
		return int(r) - 1
	}
	return int(-r) - 1
}

// exportRef builds the LocalRef for export table index i.
func exportRef(i int) LocalRef { return LocalRef(i + 1) }

// importRef builds the LocalRef for import table index i.
func importRef(i int) LocalRef { return LocalRef(-(i + 1)) }

// Thumbnail is a small self-describing preview image optionally stored at
// the end of a package file. The format is RGBA8, row-major, top-to-bottom;
// Width*Height*4 must equal len(Pixels).
type Thumbnail struct {
	Width  int32
	Height int32
	Pixels []byte
}
