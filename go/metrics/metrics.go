// Package metrics exposes the orchestrator's own operational counters via
// prometheus/client_golang, the producer half of the same dependency the
// wider example pack uses (elsewhere) only as a PromQL query client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every instrument the server reports. Construct one with
// NewMetrics and share it across the API and training layers.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsFailed    prometheus.Counter
	SessionsStopped   prometheus.Counter
	ActiveWorkers     prometheus.Gauge
	PredictLatency    prometheus.Histogram
	EpochsRun         prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "training_sessions_started_total",
			Help: "Total number of training sessions started.",
		}),
		SessionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "training_sessions_completed_total",
			Help: "Total number of training sessions that reached completed.",
		}),
		SessionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "training_sessions_failed_total",
			Help: "Total number of training sessions that reached failed.",
		}),
		SessionsStopped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "training_sessions_stopped_total",
			Help: "Total number of training sessions that were stopped.",
		}),
		ActiveWorkers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "training_worker_pool_active",
			Help: "Number of worker pool slots currently occupied by a running session.",
		}),
		PredictLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "training_predict_latency_seconds",
			Help:    "Latency of prediction requests against completed sessions.",
			Buckets: prometheus.DefBuckets,
		}),
		EpochsRun: promauto.NewCounter(prometheus.CounterOpts{
			Name: "training_epochs_run_total",
			Help: "Total number of training epochs executed across all sessions.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
