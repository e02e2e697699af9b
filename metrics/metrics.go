// Package metrics exposes Prometheus instruments for the engagement engines
// and feed pager.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// engagementOps counts like/unlike/comment/post operations by result
	engagementOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_engagement_operations_total",
		Help: "Engagement operations by operation and result",
	}, []string{"operation", "result"})

	// feedPageDuration tracks feed read latency per paging mode
	feedPageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_page_duration_seconds",
		Help:    "Feed page read duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"mode"})

	// counterDriftHealed counts counters corrected by reconciliation
	counterDriftHealed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_counter_drift_healed_total",
		Help: "Denormalized counters corrected by reconciliation",
	}, []string{"counter"})
)

// RecordOperation increments the engagement counter for op with result.
func RecordOperation(op, result string) {
	engagementOps.WithLabelValues(op, result).Inc()
}

// ObserveFeedPage records how long a feed page read in the given mode took.
func ObserveFeedPage(mode string, started time.Time) {
	feedPageDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
}

// RecordDriftHealed counts one corrected counter ("likes" or "comments").
func RecordDriftHealed(counter string) {
	counterDriftHealed.WithLabelValues(counter).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
