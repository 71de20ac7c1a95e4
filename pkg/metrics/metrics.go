// Package metrics is a thin, optional Prometheus layer over the runtime's
// object table, package loader, and asset registry. It follows the same
// "noop sink unless a registry is supplied" shape used everywhere else in
// this module: the hot path never pays for metric updates unless the
// embedder explicitly opts in.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sink is the abstraction the rest of the module depends on, so it never
// needs to know whether metrics are enabled.
type Sink interface {
	IncObjectsAllocated()
	IncObjectsDestroyed()
	SetLiveObjects(n int)
	IncPackageSaves()
	IncPackageLoads()
	IncPackageLoadFailures()
	IncAssetsDiscovered(n int)
	ObserveDiscoveryDuration(seconds float64)
}

type noopSink struct{}

func (noopSink) IncObjectsAllocated()           {}
func (noopSink) IncObjectsDestroyed()           {}
func (noopSink) SetLiveObjects(int)             {}
func (noopSink) IncPackageSaves()               {}
func (noopSink) IncPackageLoads()               {}
func (noopSink) IncPackageLoadFailures()        {}
func (noopSink) IncAssetsDiscovered(int)        {}
func (noopSink) ObserveDiscoveryDuration(float64) {}

// Noop is the zero-cost sink used when no registry is supplied.
var Noop Sink = noopSink{}

type promSink struct {
	objectsAllocated  prometheus.Counter
	objectsDestroyed  prometheus.Counter
	liveObjects       prometheus.Gauge
	packageSaves      prometheus.Counter
	packageLoads      prometheus.Counter
	packageLoadFails  prometheus.Counter
	assetsDiscovered  prometheus.Counter
	discoveryDuration prometheus.Histogram
}

// NewPromSink builds a Sink backed by reg. Passing a nil registry is a
// caller error; use Noop instead when metrics are disabled.
func NewPromSink(reg *prometheus.Registry) Sink {
	s := &promSink{
		objectsAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectcore", Name: "objects_allocated_total",
			Help: "Number of objects ever allocated through the object table.",
		}),
		objectsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectcore", Name: "objects_destroyed_total",
			Help: "Number of objects ever destroyed (strong-ref release or sweep).",
		}),
		liveObjects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "objectcore", Name: "live_objects",
			Help: "Current number of allocated, non-destroyed objects.",
		}),
		packageSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectcore", Name: "package_saves_total",
			Help: "Number of SavePackage calls.",
		}),
		packageLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectcore", Name: "package_loads_total",
			Help: "Number of LoadPackage calls.",
		}),
		packageLoadFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectcore", Name: "package_load_failures_total",
			Help: "Number of LoadPackage calls that failed (bad tag, read error).",
		}),
		assetsDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectcore", Name: "assets_discovered_total",
			Help: "Number of AssetData records produced by RunInitialDiscovery.",
		}),
		discoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "objectcore", Name: "discovery_duration_seconds",
			Help:    "Wall-clock duration of RunInitialDiscovery.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		s.objectsAllocated, s.objectsDestroyed, s.liveObjects,
		s.packageSaves, s.packageLoads, s.packageLoadFails,
		s.assetsDiscovered, s.discoveryDuration,
	)
	return s
}

func (s *promSink) IncObjectsAllocated()             { s.objectsAllocated.Inc() }
func (s *promSink) IncObjectsDestroyed()             { s.objectsDestroyed.Inc() }
func (s *promSink) SetLiveObjects(n int)             { s.liveObjects.Set(float64(n)) }
func (s *promSink) IncPackageSaves()                 { s.packageSaves.Inc() }
func (s *promSink) IncPackageLoads()                 { s.packageLoads.Inc() }
func (s *promSink) IncPackageLoadFailures()          { s.packageLoadFails.Inc() }
func (s *promSink) IncAssetsDiscovered(n int)        { s.assetsDiscovered.Add(float64(n)) }
func (s *promSink) ObserveDiscoveryDuration(sec float64) { s.discoveryDuration.Observe(sec) }
