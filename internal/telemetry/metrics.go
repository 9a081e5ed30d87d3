package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SnapshotFeatures tracks how many features the current snapshot holds.
	SnapshotFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flagsdk_snapshot_features",
		Help: "Number of features in the current compiled snapshot",
	})

	// SnapshotRotations counts successful snapshot swaps since startup.
	SnapshotRotations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flagsdk_snapshot_rotations_total",
		Help: "Total snapshot rotations performed by the poll loop",
	})

	// PollFailures counts fetch cycles that kept the old snapshot.
	PollFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flagsdk_poll_failures_total",
		Help: "Total poll cycles that failed to fetch or parse the catalogue",
	})

	// MetricsPosts counts metrics submissions by outcome.
	MetricsPosts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flagsdk_metrics_posts_total",
		Help: "Total metrics bucket submissions",
	}, []string{"outcome"})
)

// Init registers the SDK's Prometheus series on the default registry.
// Call it once at startup; a second call panics, same as any duplicate
// prometheus registration.
func Init() {
	prometheus.MustRegister(SnapshotFeatures, SnapshotRotations, PollFailures, MetricsPosts)
}
