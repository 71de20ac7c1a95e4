// Package paths implements the small set of path utilities the core
// consumes but does not own: joining and normalizing virtual package
// paths, and resolving a virtual mount prefix (e.g. "/Game/Content") to a
// real filesystem root through a separately-owned mount table.
package paths

import "strings"

// Combine joins parts with "/", collapsing duplicate separators the way a
// naive string concatenation of path fragments tends to introduce (a
// trailing slash on one fragment, a leading slash on the next).
func Combine(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	joined := strings.Join(parts, "/")
	return collapseSlashes(Normalize(joined))
}

// Normalize replaces every backslash with a forward slash. Package paths
// are always "/"-separated on disk and in the Asset Registry regardless of
// the host OS.
func Normalize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func collapseSlashes(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	prevSlash := false
	for _, r := range p {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MountTable resolves virtual path prefixes ("/Game/Content", "/Engine/
// Content", ...) to real filesystem roots. The core only consumes it —
// ownership (registering mounts at startup) belongs to the embedding
// application.
type MountTable struct {
	mounts map[string]string
}

// NewMountTable constructs an empty mount table.
func NewMountTable() *MountTable {
	return &MountTable{mounts: make(map[string]string)}
}

// Mount registers virtualPrefix (e.g. "/Game/Content") as resolving to
// realRoot (e.g. "./Content/Game") on the underlying filesystem.
func (m *MountTable) Mount(virtualPrefix, realRoot string) {
	m.mounts[Normalize(virtualPrefix)] = Normalize(realRoot)
}

// Resolve rewrites a virtual package path's longest-matching mount prefix
// to its real root, returning the rewritten path and whether any mount
// matched.
func (m *MountTable) Resolve(virtualPath string) (string, bool) {
	v := Normalize(virtualPath)
	best := ""
	for prefix := range m.mounts {
		if strings.HasPrefix(v, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return v, false
	}
	return Combine(m.mounts[best], strings.TrimPrefix(v, best)), true
}

// Mounts returns every registered virtual prefix, for diagnostics.
func (m *MountTable) Mounts() []string {
	out := make([]string, 0, len(m.mounts))
	for prefix := range m.mounts {
		out = append(out, prefix)
	}
	return out
}
