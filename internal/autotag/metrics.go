package autotag

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "comictag"

// Metrics records batch counters. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	archives    *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	duration    prometheus.Histogram
	inFlight    prometheus.Gauge
	lastRunUnix prometheus.Gauge
}

// NewMetrics registers the batch metrics on registry, or on a fresh
// registry when registry is nil.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		archives: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "autotag",
			Name:      "archives_total",
			Help:      "Archives processed, by summary bucket.",
		}, []string{"bucket"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "autotag",
			Name:      "outcomes_total",
			Help:      "Identification outcomes.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "autotag",
			Name:      "archive_duration_seconds",
			Help:      "Time spent on one archive.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "autotag",
			Name:      "archives_in_flight",
			Help:      "Archives currently being processed.",
		}),
		lastRunUnix: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "autotag",
			Name:      "last_run_timestamp_seconds",
			Help:      "Completion time of the last batch.",
		}),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes the current values in the node_exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) finished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

func (m *Metrics) observe(e Entry) {
	if m == nil {
		return
	}
	m.archives.WithLabelValues(e.Bucket.String()).Inc()
	if e.Identified {
		m.outcomes.WithLabelValues(e.Outcome.String()).Inc()
	}
	if e.Bucket != BucketSkipped {
		m.duration.Observe(e.Duration.Seconds())
	}
}

func (m *Metrics) runComplete(at time.Time) {
	if m == nil {
		return
	}
	m.lastRunUnix.Set(float64(at.Unix()))
}
