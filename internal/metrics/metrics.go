// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - fetch run counts by overall status and run duration
//   - per-ticker outcome counts by error kind
//   - new records persisted per cycle
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunsTotal counts completed fetch cycles by overall status ("ok" or "failed").
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetcher_runs_total",
		Help: "Completed fetch cycles by overall status.",
	}, []string{"status"})

	// RunDuration observes wall-clock duration of fetch cycles.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetcher_run_duration_seconds",
		Help:    "Wall-clock duration of fetch cycles.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// TickerOutcomes counts per-ticker outcomes by kind ("success" or an error kind).
	TickerOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetcher_ticker_outcomes_total",
		Help: "Per-ticker fetch outcomes by kind.",
	}, []string{"kind"})

	// NewRecords counts records appended to storage.
	NewRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetcher_new_records_total",
		Help: "Market records appended to storage.",
	})

	// MergeConflicts counts key collisions with differing payloads.
	MergeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetcher_merge_conflicts_total",
		Help: "Merge key collisions where the incoming payload differed.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
