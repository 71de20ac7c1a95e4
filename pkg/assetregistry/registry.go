package assetregistry

import (
	"sync"

	"go.uber.org/zap"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lumina-rt/objectcore/internal/assert"
	"github.com/lumina-rt/objectcore/pkg/guid"
	"github.com/lumina-rt/objectcore/pkg/metrics"
)

// defaultFailedAssetsCap bounds the "failed assets" list so a content root
// full of corrupt files can't grow the registry's memory footprint without
// limit; the oldest failure is evicted once the cache is full.
const defaultFailedAssetsCap = 1024

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithLogger attaches a zap logger for discovery/failure diagnostics. The
// zero value (nil) discards them.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics attaches a metrics sink for discovery counters. Without this
// option the Registry uses metrics.Noop, which costs nothing; m must not be
// nil.
func WithMetrics(m metrics.Sink) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithFailedAssetsCap overrides the bounded failed-assets cache size.
func WithFailedAssetsCap(n int) Option {
	return func(r *Registry) { r.failedCap = n }
}

// WithDiscoveryWorkers bounds how many discovery partitions RunInitialDiscovery
// processes concurrently. n <= 0 leaves discovery unbounded (one goroutine
// per partition).
func WithDiscoveryWorkers(n int) Option {
	return func(r *Registry) { r.discoveryWorkers = n }
}

// Registry is a mutex-guarded, GUID-hashed set of AssetData records: the
// process-wide index of every package discovered under the mounted content
// roots, kept current by explicit mutation calls.
type Registry struct {
	mu      sync.RWMutex
	byGUID  map[guid.GUID]*AssetData
	byPath  map[string]*AssetData

	subsMu sync.Mutex
	subs   []func()

	failed    *lru.Cache[string, string]
	failedCap int

	discoveryWorkers int

	logger  *zap.Logger
	metrics metrics.Sink
}

// New constructs an empty Registry. Call RunInitialDiscovery to populate it.
func New(opts ...Option) *Registry {
	r := &Registry{
		byGUID:    make(map[guid.GUID]*AssetData),
		byPath:    make(map[string]*AssetData),
		failedCap: defaultFailedAssetsCap,
		metrics:   metrics.Noop,
	}
	for _, opt := range opts {
		opt(r)
	}
	failed, err := lru.New[string, string](r.failedCap)
	// Only returns an error for a non-positive size, which
	// defaultFailedAssetsCap and any sane WithFailedAssetsCap avoid.
	assert.That(err == nil, "assetregistry: invalid failed-assets cache size: %v", err)
	r.failed = failed
	return r
}

func (r *Registry) log() *zap.Logger {
	if r.logger != nil {
		return r.logger
	}
	return zap.NewNop()
}

// Subscribe registers fn to run every time the registry's contents change
// (once when RunInitialDiscovery finishes its last partition, or whenever one
// of the AssetCreated/AssetDeleted/AssetRenamed/AssetSaved mutators runs).
// It returns an unsubscribe func.
func (r *Registry) Subscribe(fn func()) (unsubscribe func()) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	r.subs = append(r.subs, fn)
	idx := len(r.subs) - 1
	return func() {
		r.subsMu.Lock()
		defer r.subsMu.Unlock()
		if idx < len(r.subs) {
			r.subs[idx] = nil
		}
	}
}

func (r *Registry) broadcast() {
	r.subsMu.Lock()
	subs := make([]func(), len(r.subs))
	copy(subs, r.subs)
	r.subsMu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn()
		}
	}
}

// insertLocked adds or replaces rec under an already-held write lock.
func (r *Registry) insertLocked(rec *AssetData) {
	if old, ok := r.byGUID[rec.GUID]; ok {
		delete(r.byPath, old.Path)
	}
	r.byGUID[rec.GUID] = rec
	r.byPath[rec.Path] = rec
}

// AssetCreated records a newly created asset (e.g. a freshly saved package
// whose primary export did not exist before).
func (r *Registry) AssetCreated(rec AssetData) {
	r.mu.Lock()
	r.insertLocked(&rec)
	r.mu.Unlock()
	r.broadcast()
}

// AssetDeleted removes g's record, if present.
func (r *Registry) AssetDeleted(g guid.GUID) {
	r.mu.Lock()
	if old, ok := r.byGUID[g]; ok {
		delete(r.byGUID, g)
		delete(r.byPath, old.Path)
	}
	r.mu.Unlock()
	r.broadcast()
}

// AssetRenamed updates the path of whichever record currently sits at
// oldPath to newPath. A no-op if oldPath has no record.
func (r *Registry) AssetRenamed(oldPath, newPath string) {
	r.mu.Lock()
	if rec, ok := r.byPath[oldPath]; ok {
		delete(r.byPath, oldPath)
		rec.Path = newPath
		r.byPath[newPath] = rec
	}
	r.mu.Unlock()
	r.broadcast()
}

// AssetSaved refreshes rec in place (e.g. after SavePackage, whose export's
// Name or ClassName may have changed).
func (r *Registry) AssetSaved(rec AssetData) {
	r.mu.Lock()
	r.insertLocked(&rec)
	r.mu.Unlock()
	r.broadcast()
}

// GetByGUID returns the record for g, if known.
func (r *Registry) GetByGUID(g guid.GUID) (AssetData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byGUID[g]
	if !ok {
		return AssetData{}, false
	}
	return *rec, true
}

// GetByPath returns the record at p, normalizing a missing extension before
// looking it up.
func (r *Registry) GetByPath(p string) (AssetData, bool) {
	p = normalizeExt(p)
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byPath[p]
	if !ok {
		return AssetData{}, false
	}
	return *rec, true
}

// FindByPredicate returns a copy of every record for which pred reports
// true. The result contains no duplicates and reflects only entries live at
// the moment of the call.
func (r *Registry) FindByPredicate(pred Predicate) []AssetData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []AssetData
	for _, rec := range r.byGUID {
		if pred(rec) {
			out = append(out, *rec)
		}
	}
	return out
}

// Len reports the number of assets currently indexed.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byGUID)
}

// recordFailure adds path to the bounded failed-assets cache with reason as
// its recorded cause, evicting the oldest entry if the cache is full.
func (r *Registry) recordFailure(path, reason string) {
	r.failed.Add(path, reason)
	r.log().Warn("assetregistry: failed asset", zap.String("path", path), zap.String("reason", reason))
}

// FailedAssets returns the paths currently recorded as having failed
// discovery, most-recently-failed last.
func (r *Registry) FailedAssets() []string {
	return r.failed.Keys()
}
