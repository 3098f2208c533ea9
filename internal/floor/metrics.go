package floor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricGrants = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floor_grants_total",
		Help: "Total floor leases granted",
	})

	metricDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floor_denials_total",
		Help: "Total floor requests denied or queued",
	}, []string{"reason"})

	metricReleases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floor_releases_total",
		Help: "Total floor leases released",
	}, []string{"reason"})

	metricTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floor_state_transitions_total",
		Help: "Floor state machine transitions",
	}, []string{"from", "to"})

	// No room label to avoid cardinality.
	metricQueueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "floor_queue_wait_ms",
		Help:    "Time spent waiting in the floor queue before grant",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 12),
	})
)
