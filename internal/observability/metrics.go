package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crossroads"

// Metrics holds the Prometheus counters, histograms, and gauges for ingestion.
type Metrics struct {
	// Ingestion metrics.
	IngestRuns        *prometheus.CounterVec // labels: source={s3,sample}
	IngestDuration    prometheus.Histogram
	RowsProcessed     prometheus.Counter
	RowsSkipped       *prometheus.CounterVec // labels: reason={short_row,unplaceable}
	CoordinateMethods *prometheus.CounterVec // labels: method={decimal,pair,dms,none}
	ViewportCache     *prometheus.CounterVec // labels: result={hit,miss,stale}
	PublishErrors     prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests     *prometheus.CounterVec // labels: outcome={success,no_results,out_of_bounds,invalid,error,disabled}
	GeocodeCache        *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration  prometheus.Histogram
	GeocodeCacheEntries prometheus.Gauge
	GeocodeEnabled      prometheus.Gauge

	// HTTP metrics.
	RequestDuration *prometheus.HistogramVec // labels: route, status
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		IngestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Completed ingestion runs by data source.",
		}, []string{"source"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a full fetch-parse-geocode-rank run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RowsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "Spreadsheet data rows read.",
		}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Spreadsheet rows dropped, by reason.",
		}, []string{"reason"}),
		CoordinateMethods: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coordinate_methods_total",
			Help:      "Rows by the notation their coordinates were parsed from.",
		}, []string{"method"}),
		ViewportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viewport_cache_total",
			Help:      "Viewport cache lookups by result.",
		}, []string{"result"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed publishes of ingested record sets.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Address resolutions by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Google Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeCacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_cache_entries",
			Help:      "Addresses held in the geocode cache.",
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when address geocoding is enabled, 0 otherwise.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.IngestRuns,
		m.IngestDuration,
		m.RowsProcessed,
		m.RowsSkipped,
		m.CoordinateMethods,
		m.ViewportCache,
		m.PublishErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeCacheEntries,
		m.GeocodeEnabled,
		m.RequestDuration,
	}
}
