package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EventsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "panelpulse",
			Subsystem: "events",
			Name:      "latency_seconds",
			Help:      "Latency of event submission endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EventsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panelpulse",
			Subsystem: "events",
			Name:      "errors_total",
			Help:      "Errors by event submission endpoint",
		},
		[]string{"endpoint"},
	)

	EventsRateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panelpulse",
			Subsystem: "events",
			Name:      "rate_limited_total",
			Help:      "Rate-limited submissions by endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EventsLatency, EventsErrors, EventsRateLimited)
	})
}
