// Package metrics exposes Prometheus metrics for the detection service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detections_validations_total",
			Help: "Validation runs by target platform",
		},
		[]string{"platform"},
	)

	ValidationIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detections_validation_issues_total",
			Help: "Validation issues emitted, by severity",
		},
		[]string{"severity"},
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detections_validation_cache_hits_total",
			Help: "Validation cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detections_validation_cache_misses_total",
			Help: "Validation cache misses",
		},
	)

	SubmissionsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detections_submissions_rejected_total",
			Help: "Detection submissions rejected by the quality gate",
		},
	)

	CreateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detections_create_duration_seconds",
			Help:    "End-to-end latency of detection creation",
			Buckets: prometheus.DefBuckets,
		},
	)
)
