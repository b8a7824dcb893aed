package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entitiesCreatedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upn",
			Name:      "entities_created_total",
			Help:      "Total number of entities created.",
		},
		[]string{"kind"},
	)

	searchQueriesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "upn",
			Name:      "search_queries_total",
			Help:      "Total number of search queries resolved.",
		},
	)

	mergeRecordsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upn",
			Name:      "merge_records_total",
			Help:      "Total number of snapshot records processed by bulk merge.",
		},
		[]string{"kind", "outcome"}, // outcome: created, skipped_duplicate, failed_validation
	)

	mergeDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "upn",
			Name:      "merge_duration_seconds",
			Help:      "Duration of snapshot merges.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
