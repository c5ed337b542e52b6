// internal/status/metrics.go
// Package status exposes a local HTTP endpoint with the miner's state and
// Prometheus metrics. Disabled unless status_listen is configured.
package status

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NoncesProcessed counts every hashed nonce across rounds.
	NoncesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bencher",
		Name:      "nonces_processed_total",
		Help:      "Nonces hashed and scanned since start.",
	})

	// RoundHeight is the chain height of the current round.
	RoundHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bencher",
		Name:      "round_height",
		Help:      "Height of the round currently being worked.",
	})

	// BestDeadline is the best adjusted deadline submitted this round.
	BestDeadline = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bencher",
		Name:      "round_best_deadline_seconds",
		Help:      "Best adjusted deadline forwarded to the pool this round.",
	})

	// EmulatedCapacity is the latest emulated plot capacity estimate.
	EmulatedCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bencher",
		Name:      "emulated_capacity_gib",
		Help:      "Capacity a plot-backed miner of equal speed would have.",
	})

	// SubmissionErrors counts failed or rejected submissions.
	SubmissionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bencher",
		Name:      "submission_errors_total",
		Help:      "Submissions that failed or were rejected by the pool.",
	})
)
