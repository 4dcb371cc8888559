package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// prometheusMetrics is the Prometheus-backed HeapMetrics implementation,
// following the usual constructor-wraps-promauto-collectors pattern.
type prometheusMetrics struct {
	allocateDuration prometheus.Histogram
	syncBytes        prometheus.Histogram
	syncDuration     prometheus.Histogram
	evictBytes       prometheus.Histogram
	evictDuration    prometheus.Histogram
	residentCount    prometheus.Gauge
	dirtyBytes       prometheus.Gauge
	guardConflicts   prometheus.Counter
	outOfMemory      prometheus.Counter
	persistAllTotal  *prometheus.CounterVec
	persistAllTime   prometheus.Histogram
}

// NewPrometheus registers the heap's collectors against reg and returns a
// ready-to-use HeapMetrics. Pass a nil reg result through as nil to a
// Manager to disable metrics entirely.
func NewPrometheus(reg prometheus.Registerer) HeapMetrics {
	return &prometheusMetrics{
		allocateDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "vnvheap_allocate_duration_seconds",
			Help:    "Duration of Allocate calls.",
			Buckets: prometheus.DefBuckets,
		}),
		syncBytes: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "vnvheap_sync_bytes",
			Help:    "Bytes written to NV storage per sync.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
		syncDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "vnvheap_sync_duration_seconds",
			Help:    "Duration of per-object sync-to-NV calls.",
			Buckets: prometheus.DefBuckets,
		}),
		evictBytes: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "vnvheap_evict_bytes",
			Help:    "RAM bytes freed per eviction.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
		evictDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "vnvheap_evict_duration_seconds",
			Help:    "Duration of per-object eviction calls.",
			Buckets: prometheus.DefBuckets,
		}),
		residentCount: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vnvheap_resident_objects",
			Help: "Current number of resident objects.",
		}),
		dirtyBytes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vnvheap_dirty_bytes",
			Help: "Current dirty-byte budget usage.",
		}),
		guardConflicts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vnvheap_guard_conflicts_total",
			Help: "Total rejected acquisitions due to a conflicting open guard.",
		}),
		outOfMemory: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vnvheap_out_of_memory_total",
			Help: "Total allocate/acquire calls that failed even after policy-driven reclamation.",
		}),
		persistAllTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "vnvheap_persist_all_total",
			Help: "Total PersistAll invocations, labeled by whether the lock was acquired.",
		}, []string{"acquired"}),
		persistAllTime: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "vnvheap_persist_all_duration_seconds",
			Help:    "Duration of acquired PersistAll sweeps.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (p *prometheusMetrics) ObserveAllocate(d time.Duration) { p.allocateDuration.Observe(d.Seconds()) }

func (p *prometheusMetrics) ObserveSync(bytes int64, d time.Duration) {
	p.syncBytes.Observe(float64(bytes))
	p.syncDuration.Observe(d.Seconds())
}

func (p *prometheusMetrics) ObserveEvict(bytes int64, d time.Duration) {
	p.evictBytes.Observe(float64(bytes))
	p.evictDuration.Observe(d.Seconds())
}

func (p *prometheusMetrics) RecordResidentCount(n int)     { p.residentCount.Set(float64(n)) }
func (p *prometheusMetrics) RecordDirtyBytes(n int64)      { p.dirtyBytes.Set(float64(n)) }
func (p *prometheusMetrics) RecordGuardConflict()          { p.guardConflicts.Inc() }
func (p *prometheusMetrics) RecordOutOfMemory()            { p.outOfMemory.Inc() }

func (p *prometheusMetrics) RecordPersistAll(acquired bool, d time.Duration) {
	label := "false"
	if acquired {
		label = "true"
		p.persistAllTime.Observe(d.Seconds())
	}
	p.persistAllTotal.WithLabelValues(label).Inc()
}
