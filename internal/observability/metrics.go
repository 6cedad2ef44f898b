package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "synop_ingest"

// Metrics holds the Prometheus counters, histograms, and gauges for the ingestion service.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	CyclesTotal     *prometheus.CounterVec // labels: outcome={completed,skipped,aborted}
	CycleDuration   prometheus.Histogram
	LastTimestep    prometheus.Gauge

	// Decode and reconcile metrics.
	RecordsDecoded     prometheus.Histogram
	ReconcileTotal     *prometheus.CounterVec // labels: result={inserted,updated,failed}
	UnresolvedStations prometheus.Counter
	ResolverCache      *prometheus.CounterVec // labels: result={hit,miss}

	// Kafka publishing metrics.
	MessagesProduced prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all ingestion metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the ingestion loop is active, 0 when shut down.",
		}),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Ingestion cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete ingestion cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		LastTimestep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_timestep_seconds",
			Help:      "Unix time of the last ingested timestep.",
		}),
		RecordsDecoded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "records_decoded",
			Help:      "Normalized station records per decoded report.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		ReconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Observation reconciliations by result.",
		}, []string{"result"}),
		UnresolvedStations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_stations_total",
			Help:      "Decoded records dropped because their station is unknown.",
		}),
		ResolverCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_cache_total",
			Help:      "Station resolver cache lookups by result.",
		}, []string{"result"}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total observations written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed observation publish batches.",
		}),
	}

	prometheus.MustRegister(
		m.PipelineRunning,
		m.CyclesTotal,
		m.CycleDuration,
		m.LastTimestep,
		m.RecordsDecoded,
		m.ReconcileTotal,
		m.UnresolvedStations,
		m.ResolverCache,
		m.MessagesProduced,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		CyclesTotal:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "cycles_total"}, []string{"outcome"}),
		CycleDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "cycle_duration_seconds"}),
		LastTimestep:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "last_timestep_seconds"}),
		RecordsDecoded:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "records_decoded"}),
		ReconcileTotal:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "reconcile_total"}, []string{"result"}),
		UnresolvedStations: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "unresolved_stations_total"}),
		ResolverCache:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "resolver_cache_total"}, []string{"result"}),
		MessagesProduced:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_produced_total"}),
		PublishErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "publish_errors_total"}),
	}
}

// APIMetrics holds the query API's request metrics.
type APIMetrics struct {
	Requests        *prometheus.CounterVec   // labels: route, status
	RequestDuration *prometheus.HistogramVec // labels: route
}

// NewAPIMetrics creates and registers the query API metrics with the default Prometheus registry.
func NewAPIMetrics() *APIMetrics {
	m := newAPIMetrics()
	prometheus.MustRegister(m.Requests, m.RequestDuration)
	return m
}

// NewAPIMetricsForTesting creates unregistered APIMetrics.
func NewAPIMetricsForTesting() *APIMetrics {
	return newAPIMetrics()
}

func newAPIMetrics() *APIMetrics {
	return &APIMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Query API requests by route and status code.",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Query API request duration by route.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
	}
}
