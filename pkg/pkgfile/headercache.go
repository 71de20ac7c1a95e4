package pkgfile

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"github.com/lumina-rt/objectcore/internal/assert"
)

// defaultHeaderCacheCap bounds how many (header, export table) pairs
// PeekExports keeps cached. Discovery walks and registry rescans call
// PeekExports once per package file; without a cache, every rescan of an
// unchanged tree re-parses every file's header from scratch.
const defaultHeaderCacheCap = 4096

type headerCacheEntry struct {
	modTime time.Time
	size    int64
	header  Header
	exports []Export
}

var (
	headerCacheMu sync.Mutex
	headerCache   *lru.Cache[string, headerCacheEntry]
)

func init() {
	c, err := lru.New[string, headerCacheEntry](defaultHeaderCacheCap)
	assert.That(err == nil, "pkgfile: failed to construct header cache: %v", err)
	headerCache = c
}

// SetHeaderCacheSize replaces the header cache with one sized for capacity
// entries, discarding anything already cached. capacity <= 0 disables
// caching: PeekExports always re-reads and re-parses.
func SetHeaderCacheSize(capacity int) {
	headerCacheMu.Lock()
	defer headerCacheMu.Unlock()
	if capacity <= 0 {
		headerCache = nil
		return
	}
	c, err := lru.New[string, headerCacheEntry](capacity)
	assert.That(err == nil, "pkgfile: failed to resize header cache to %d: %v", capacity, err)
	headerCache = c
}

// lookupHeaderCache returns a cached (header, exports) pair for filePath if
// one exists and fs's current file info (mtime, size) still matches the
// entry that was cached. A mismatch means the file changed on disk since it
// was last parsed, so the caller should re-read and re-parse it.
func lookupHeaderCache(fs afero.Fs, filePath string) (Header, []Export, bool) {
	headerCacheMu.Lock()
	cache := headerCache
	headerCacheMu.Unlock()
	if cache == nil {
		return Header{}, nil, false
	}

	entry, ok := cache.Get(filePath)
	if !ok {
		return Header{}, nil, false
	}

	info, err := fs.Stat(filePath)
	if err != nil || info.ModTime() != entry.modTime || info.Size() != entry.size {
		return Header{}, nil, false
	}
	return entry.header, entry.exports, true
}

// storeHeaderCache records filePath's parsed header and export table,
// stamped with the file info current as of the read that produced them.
func storeHeaderCache(fs afero.Fs, filePath string, header Header, exports []Export) {
	headerCacheMu.Lock()
	cache := headerCache
	headerCacheMu.Unlock()
	if cache == nil {
		return
	}

	info, err := fs.Stat(filePath)
	if err != nil {
		return
	}
	cache.Add(filePath, headerCacheEntry{
		modTime: info.ModTime(),
		size:    info.Size(),
		header:  header,
		exports: exports,
	})
}
