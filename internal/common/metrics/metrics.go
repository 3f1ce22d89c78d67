// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EngineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_runs_total",
			Help: "Total number of matching runs by terminal state",
		},
		[]string{"state"},
	)

	EngineRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "engine_run_duration_seconds",
			Help: "Duration of matching runs in seconds",
		},
		[]string{"state"},
	)

	CandidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_candidates_scored_total",
			Help: "Total number of candidates scored across all runs",
		},
	)

	CandidatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_candidates_skipped_total",
			Help: "Total number of candidates excluded from batches",
		},
	)

	PredictionFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_prediction_fallbacks_total",
			Help: "Times the pluggable estimator failed and the heuristic took over",
		},
	)

	SnapshotCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_snapshot_cache_hits_total",
			Help: "Snapshot and result cache hits",
		},
	)

	SnapshotCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_snapshot_cache_misses_total",
			Help: "Snapshot and result cache misses",
		},
	)
)
