// Package metrics exposes Prometheus instrumentation for the
// optimization engine. Collectors register themselves via promauto on
// the default registry; updating them is cheap and unconditional, and
// whether (and where) they are scraped is entirely the embedding
// application's decision; the library never opens an HTTP endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FactorsAdded counts measurements folded into the system, by factor
	// type name.
	FactorsAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slamkit_factors_added_total",
			Help: "Total number of factors added to the engine",
		},
		[]string{"factor"},
	)

	// Relinearizations counts full relinearization sweeps (batch
	// refactorizations triggered periodically or by BatchOptimize).
	Relinearizations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slamkit_relinearizations_total",
			Help: "Total number of full relinearization sweeps",
		},
	)

	// GivensRotations counts rotations applied during factorization; a
	// proxy for incremental fill-in growth between batch rebuilds.
	GivensRotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slamkit_givens_rotations_total",
			Help: "Total number of Givens rotations applied",
		},
	)

	// RankDeficiencies counts solves that hit a (near-)zero pivot.
	RankDeficiencies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slamkit_rank_deficiencies_total",
			Help: "Total number of rank-deficient columns reported by solves",
		},
	)

	// SolveDuration observes wall time of solve steps, batch and
	// incremental, labeled by mode.
	SolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slamkit_solve_duration_seconds",
			Help:    "Duration of linear solves in seconds",
			Buckets: []float64{1e-5, 1e-4, 1e-3, 0.01, 0.1, 0.5, 1, 5},
		},
		[]string{"mode"},
	)

	// SystemNonzeros tracks the nonzero count of the square-root
	// information matrix after the latest factorization.
	SystemNonzeros = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slamkit_system_nonzeros",
			Help: "Nonzeros stored in the square-root information matrix",
		},
	)
)
