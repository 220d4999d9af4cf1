package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	manifestRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storecast_manifest_requests_total",
		Help: "Manifest resolutions by outcome.",
	}, []string{"status"})

	manifestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storecast_manifest_duration_seconds",
		Help:    "Wall time of one manifest resolution.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
	})

	gateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storecast_gate_rejections_total",
		Help: "Access gate denials by machine code.",
	}, []string{"code"})

	telemetryEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storecast_telemetry_events_total",
		Help: "Playback events persisted.",
	})

	telemetryRejectedBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storecast_telemetry_rejected_batches_total",
		Help: "Telemetry batches rejected whole.",
	})
)

// ObserveManifest records one manifest resolution.
func ObserveManifest(d time.Duration, status string) {
	manifestRequests.WithLabelValues(status).Inc()
	manifestDuration.Observe(d.Seconds())
}

// GateRejected records one access gate denial.
func GateRejected(code string) {
	gateRejections.WithLabelValues(code).Inc()
}

// TelemetryAccepted records a persisted batch of n events.
func TelemetryAccepted(n int) {
	telemetryEvents.Add(float64(n))
}

// TelemetryRejected records a batch thrown away whole.
func TelemetryRejected() {
	telemetryRejectedBatches.Inc()
}
