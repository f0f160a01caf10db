package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsProcessed *prometheus.CounterVec
	opportunities   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	scores          *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelpulse_events_processed_total",
				Help: "Total number of narrative events processed",
			},
			[]string{"type"},
		),
		opportunities: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelpulse_opportunities_total",
				Help: "Total number of detected opportunities",
			},
			[]string{"kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		scores: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "panelpulse_entity_score",
				Help: "Latest score value per entity",
			},
			[]string{"entity", "score"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "panelpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEventProcessed records one processed narrative event.
func (r *Recorder) RecordEventProcessed(eventType string) {
	r.eventsProcessed.WithLabelValues(eventType).Inc()
}

// RecordOpportunity records one detected opportunity.
func (r *Recorder) RecordOpportunity(kind string) {
	r.opportunities.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordScore records the latest score value for an entity.
func (r *Recorder) RecordScore(entityID, score string, value float64) {
	r.scores.WithLabelValues(entityID, score).Set(value)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Noop is a Metrics recorder that discards everything. Used when metrics are
// disabled and in tests.
type Noop struct{}

func (Noop) RecordEventProcessed(string)         {}
func (Noop) RecordOpportunity(string)            {}
func (Noop) RecordError(string)                  {}
func (Noop) RecordScore(string, string, float64) {}
func (Noop) RecordLatency(string, float64)       {}
