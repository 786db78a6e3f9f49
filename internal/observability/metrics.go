package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "beach_status"

// Metrics holds the Prometheus counters, histograms, and gauges for the status pipeline.
type Metrics struct {
	RunsTotal            *prometheus.CounterVec // labels: outcome={success,fetch_error,extraction_error,store_error}
	RunDuration          prometheus.Histogram
	FetchDuration        prometheus.Histogram
	BeachesExtracted     prometheus.Gauge
	RowsSkipped          prometheus.Counter
	StatusChanges        prometheus.Counter
	DailySnapshots       prometheus.Counter
	LastSuccessTimestamp prometheus.Gauge
	SchedulerRunning     prometheus.Gauge

	// Delivery metrics.
	Notifications            *prometheus.CounterVec // labels: channel={ntfy}, outcome={success,error}
	SubscriberLookupFailures prometheus.Counter

	// Secondary sink metrics.
	SinkWrites *prometheus.CounterVec // labels: sink={kafka,dynamodb}, outcome={success,error}

	// Geocoding fallback metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
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
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-to-notify run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of the report download.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		BeachesExtracted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "beaches_extracted",
			Help:      "Number of beaches normalized in the most recent run.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Malformed table rows dropped during normalization.",
		}),
		StatusChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Beaches whose status or note changed.",
		}),
		DailySnapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_snapshots_total",
			Help:      "History rows written for timeline continuity without a change.",
		}),
		LastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 when the scheduler is active, 0 when shut down.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Tracked-beach notification deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
		SubscriberLookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_lookup_failures_total",
			Help:      "Subscriber directory lookups that fell back to an empty list.",
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      "Writes to the change topic and history mirror by sink and outcome.",
		}, []string{"sink", "outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RunsTotal,
		m.RunDuration,
		m.FetchDuration,
		m.BeachesExtracted,
		m.RowsSkipped,
		m.StatusChanges,
		m.DailySnapshots,
		m.LastSuccessTimestamp,
		m.SchedulerRunning,
		m.Notifications,
		m.SubscriberLookupFailures,
		m.SinkWrites,
		m.GeocodeRequests,
		m.GeocodeCache,
	}
}
