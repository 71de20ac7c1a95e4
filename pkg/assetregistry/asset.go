// Package assetregistry is the concurrent, process-wide index of every
// on-disk package file: a (GUID, path, name, class) record per discovered
// asset, built by walking the mounted content roots once at startup and
// kept current afterward by explicit mutation calls (and, optionally, a
// filesystem watch). It never holds object payloads itself — pkg/pkgfile
// owns those — only enough metadata to answer "what assets exist" and
// "where is this GUID/path" without opening every package file.
package assetregistry

import (
	"path"
	"strings"

	"github.com/lumina-rt/objectcore/pkg/guid"
)

// AssetData is the compact record the registry keeps per discovered asset:
// its identity, where it lives on disk, and enough naming/class metadata to
// answer queries without reopening the package file.
type AssetData struct {
	GUID      guid.GUID
	Path      string
	Name      string
	ClassName string
}

// extension is the package file suffix discovery walks for. Anything else
// under a mounted root is ignored.
const extension = ".lasset"

// normalizeExt appends extension to p if it is missing one, so callers may
// query GetByPath with or without the suffix.
func normalizeExt(p string) string {
	if path.Ext(p) == "" {
		return p + extension
	}
	return p
}

func hasPackageExtension(p string) bool {
	return strings.EqualFold(path.Ext(p), extension)
}
