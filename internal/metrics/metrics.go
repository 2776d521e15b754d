// Package metrics exposes submission counters and delivery latency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

const namespace = "address_relay"

// Submission outcomes
const (
	OutcomeDelivered = "delivered"
	OutcomeMalformed = "malformed"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
)

// Recorder records per-request submission metrics.
type Recorder struct {
	registry    *prometheus.Registry
	submissions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func NewRecorder(registry *prometheus.Registry) *Recorder {
	return &Recorder{
		registry: registry,
		submissions: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Address submissions by delivery mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		duration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "delivery_duration_seconds",
				Help:      "Time spent delivering a submission to its sink",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode", "outcome"},
		),
	}
}

// Submission counts one request that ended with outcome.
func (r *Recorder) Submission(mode, outcome string) {
	r.submissions.WithLabelValues(mode, outcome).Inc()
}

// Delivery records one delivery attempt and its duration.
func (r *Recorder) Delivery(mode, outcome string, elapsed time.Duration) {
	r.duration.WithLabelValues(mode, outcome).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Module provides the registry and Recorder
var Module = fx.Module("metrics",
	fx.Provide(
		NewRegistry,
		NewRecorder,
	),
)
