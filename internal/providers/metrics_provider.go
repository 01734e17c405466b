package providers

import (
	"auditstat/internal/structures"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

type MetricsProviderInterface interface {
	IncComputations(result string)
	ObserveComputeDuration(duration time.Duration)
	SetRecordsTotal(kind string, count int)
	SetProfilesTotal(count int, real int)
	IncCacheHits()
	IncCacheMisses()
	ObserveExportDuration(duration time.Duration)
	WriteTextfile(path string) error
}

type MetricsProvider struct {
	computations   *prometheus.CounterVec
	computeLatency prometheus.Histogram
	recordsTotal   *prometheus.GaugeVec
	profilesTotal  *prometheus.GaugeVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	exportDuration prometheus.Histogram
	gatherer       prometheus.Gatherer
}

func (m *MetricsProvider) IncComputations(result string) {
	m.computations.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) ObserveComputeDuration(duration time.Duration) {
	m.computeLatency.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetRecordsTotal(kind string, count int) {
	m.recordsTotal.WithLabelValues(kind).Set(float64(count))
}

func (m *MetricsProvider) SetProfilesTotal(count int, real int) {
	m.profilesTotal.WithLabelValues("all").Set(float64(count))
	m.profilesTotal.WithLabelValues("real").Set(float64(real))
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObserveExportDuration(duration time.Duration) {
	m.exportDuration.Observe(duration.Seconds())
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *MetricsProvider) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.gatherer)
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		computations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auditstat_computations_total",
			Help: "Total number of full metric computations by result",
		}, []string{"result"}),

		computeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "auditstat_compute_duration_seconds",
			Help:    "Duration of one full computation in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		recordsTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "auditstat_records_total",
			Help: "Number of normalized records per source kind in the last snapshot",
		}, []string{"kind"}),

		profilesTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "auditstat_profiles_total",
			Help: "Number of user profiles in the last snapshot",
		}, []string{"scope"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auditstat_cache_hits_total",
			Help: "Total number of drill-down cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auditstat_cache_misses_total",
			Help: "Total number of drill-down cache misses",
		}),

		exportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "auditstat_export_duration_seconds",
			Help:    "Duration of snapshot export operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		gatherer: prometheus.DefaultGatherer,
	}

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncComputations(_ string)                {}
func (n *noopMetrics) ObserveComputeDuration(_ time.Duration) {}
func (n *noopMetrics) SetRecordsTotal(_ string, _ int)        {}
func (n *noopMetrics) SetProfilesTotal(_ int, _ int)          {}
func (n *noopMetrics) IncCacheHits()                          {}
func (n *noopMetrics) IncCacheMisses()                        {}
func (n *noopMetrics) ObserveExportDuration(_ time.Duration)  {}
func (n *noopMetrics) WriteTextfile(_ string) error           { return nil }
