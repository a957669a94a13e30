package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the playback service.
type Metrics struct {
	StepsTotal      prometheus.Counter
	StormsStarted   prometheus.Counter
	StormsCompleted prometheus.Counter
	EmptyTracks     prometheus.Counter
	PlaybackState   prometheus.Gauge // 0 idle, 1 playing, 2 paused, 3 selected

	// Dataset metrics.
	DatasetLoads        *prometheus.CounterVec // labels: outcome={success,no_data,unavailable,invalid}
	DatasetLoadDuration prometheus.Histogram
	ParseRows           *prometheus.CounterVec // labels: kind={header,data,malformed,skipped}
	ParseCache          *prometheus.CounterVec // labels: result={hit,miss}

	// Event sink metrics.
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all playback metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.StepsTotal,
		m.StormsStarted,
		m.StormsCompleted,
		m.EmptyTracks,
		m.PlaybackState,
		m.DatasetLoads,
		m.DatasetLoadDuration,
		m.ParseRows,
		m.ParseCache,
		m.EventsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		StepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_playback",
			Name:      "steps_total",
			Help:      "Total animation steps executed.",
		}),
		StormsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_playback",
			Name:      "storms_started_total",
			Help:      "Storms whose playback began.",
		}),
		StormsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_playback",
			Name:      "storms_completed_total",
			Help:      "Storms played through to their last point.",
		}),
		EmptyTracks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_playback",
			Name:      "empty_tracks_total",
			Help:      "Storms skipped because they had no points.",
		}),
		PlaybackState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_playback",
			Name:      "state",
			Help:      "Current playback state: 0 idle, 1 playing, 2 paused, 3 selected.",
		}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_playback",
			Name:      "dataset_loads_total",
			Help:      "Year load requests by outcome.",
		}, []string{"outcome"}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_playback",
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a dataset fetch and parse.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		ParseRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_playback",
			Name:      "parse_rows_total",
			Help:      "Dataset rows seen by classification.",
		}, []string{"kind"}),
		ParseCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_playback",
			Name:      "parse_cache_total",
			Help:      "Parsed-year cache lookups by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_playback",
			Name:      "events_published_total",
			Help:      "Playback events written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
