package assetregistry

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/lumina-rt/objectcore/pkg/paths"
	"github.com/lumina-rt/objectcore/pkg/pkgfile"
)

// Watch starts an fsnotify watch over every real root in mt and translates
// filesystem events on ".lasset" files into AssetCreated/AssetDeleted
// mutations, keeping the registry current without a repeated full rescan.
// Renames are reported by most platforms as a Remove followed by a Create
// rather than an atomic rename event, so Watch does not attempt to call
// AssetRenamed itself — it re-discovers the new path as a fresh AssetCreated
// and ages the old one out via AssetDeleted, same as an external tool
// replacing a file wholesale would look to the registry.
//
// The returned watcher must be closed by the caller when no longer needed;
// Watch runs its event loop in a background goroutine until then.
func (r *Registry) Watch(fs afero.Fs, mt *paths.MountTable) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, prefix := range mt.Mounts() {
		root, _ := mt.Resolve(prefix)
		if err := w.Add(root); err != nil {
			r.log().Warn("assetregistry: failed to watch mount", zap.String("root", root), zap.Error(err))
		}
	}

	go r.watchLoop(w, fs, mt)
	return w, nil
}

func (r *Registry) watchLoop(w *fsnotify.Watcher, fs afero.Fs, mt *paths.MountTable) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !hasPackageExtension(ev.Name) {
				continue
			}
			r.handleEvent(ev, fs, mt)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.log().Warn("assetregistry: watch error", zap.Error(err))
		}
	}
}

func (r *Registry) handleEvent(ev fsnotify.Event, fs afero.Fs, mt *paths.MountTable) {
	virtual := toVirtualPath(ev.Name, mt)
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if rec, ok := r.GetByPath(virtual); ok {
			r.AssetDeleted(rec.GUID)
		}
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		r.rediscoverOne(fs, ev.Name, virtual)
	}
}

// rediscoverOne re-parses a single changed file and inserts (or refreshes)
// its AssetData record, discarding the file on any parse failure (a
// half-written save in progress, most commonly) rather than recording it as
// failed — a later write event will retry once the file settles.
func (r *Registry) rediscoverOne(fs afero.Fs, realPath, virtualPath string) {
	_, exports, err := pkgfile.PeekExports(fs, realPath)
	if err != nil || len(exports) == 0 {
		return
	}
	stem := stemOfPath(virtualPath)
	primary := exports[0]
	for _, exp := range exports {
		if exp.Name == stem {
			primary = exp
			break
		}
	}
	r.AssetCreated(AssetData{
		GUID:      primary.GUID,
		Path:      virtualPath,
		Name:      primary.Name,
		ClassName: primary.ClassName,
	})
}

// toVirtualPath rewrites a real filesystem path back to its virtual mount
// path by finding whichever mount's real root it falls under.
func toVirtualPath(realPath string, mt *paths.MountTable) string {
	normalized := paths.Normalize(realPath)
	for _, prefix := range mt.Mounts() {
		root, _ := mt.Resolve(prefix)
		if len(normalized) >= len(root) && normalized[:len(root)] == root {
			return paths.Combine(prefix, normalized[len(root):])
		}
	}
	return normalized
}
