package assetregistry

import (
	"strings"

	"github.com/lumina-rt/objectcore/pkg/guid"
)

// Predicate is a composable asset filter for FindByPredicate.
type Predicate func(*AssetData) bool

// ByPath matches assets whose path equals p exactly (after extension
// normalization).
func ByPath(p string) Predicate {
	p = normalizeExt(p)
	return func(a *AssetData) bool { return a.Path == p }
}

// ByGUID matches the single asset with the given GUID.
func ByGUID(g guid.GUID) Predicate {
	return func(a *AssetData) bool { return a.GUID == g }
}

// ByClass matches assets whose recorded class name equals className.
func ByClass(className string) Predicate {
	return func(a *AssetData) bool { return a.ClassName == className }
}

// ByName matches assets whose asset name equals assetName.
func ByName(assetName string) Predicate {
	return func(a *AssetData) bool { return a.Name == assetName }
}

// UnderPath matches assets whose path lies under dir.
func UnderPath(dir string) Predicate {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	return func(a *AssetData) bool { return strings.HasPrefix(a.Path, prefix) }
}

// And matches assets that satisfy every predicate in preds.
func And(preds ...Predicate) Predicate {
	return func(a *AssetData) bool {
		for _, p := range preds {
			if !p(a) {
				return false
			}
		}
		return true
	}
}

// Or matches assets that satisfy at least one predicate in preds.
func Or(preds ...Predicate) Predicate {
	return func(a *AssetData) bool {
		for _, p := range preds {
			if p(a) {
				return true
			}
		}
		return false
	}
}

// Not inverts pred.
func Not(pred Predicate) Predicate {
	return func(a *AssetData) bool { return !pred(a) }
}
