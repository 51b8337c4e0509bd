package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts executed queries by outcome (ok, invalid, error).
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "q5_queries_total",
			Help: "Total number of revenue queries",
		},
		[]string{"status"},
	)
	// QueryDuration is the end to end latency of a query, excluding table load.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "q5_query_duration_seconds",
			Help:    "Revenue query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	// LineItemsScanned counts fact rows visited by aggregation workers.
	LineItemsScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "q5_lineitems_scanned_total",
			Help: "Total number of lineitem rows scanned",
		},
	)
	// LineItemsMatched counts fact rows that contributed revenue.
	LineItemsMatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "q5_lineitems_matched_total",
			Help: "Total number of lineitem rows that passed every join and filter",
		},
	)
	TableLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "q5_table_load_duration_seconds",
			Help:    "Time to load all tables in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)
)
