// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricewise",
		Name:      "decisions_total",
		Help:      "Pricing decisions recorded, by recommendation and applied constraint.",
	}, []string{"recommendation", "constraint"})

	DecisionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricewise",
		Name:      "decision_errors_total",
		Help:      "Failed pricing decisions, by error kind.",
	}, []string{"kind"})

	DecisionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pricewise",
		Name:      "decision_duration_seconds",
		Help:      "End-to-end latency of a pricing decision including ledger append.",
		Buckets:   prometheus.DefBuckets,
	})

	ConfidenceFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pricewise",
		Name:      "confidence_fallbacks_total",
		Help:      "Decisions that used rule confidence because the oracle failed.",
	})

	LedgerRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pricewise",
		Name:      "ledger_duplicate_retries_total",
		Help:      "Ledger appends retried after a duplicate (productId, timestamp) key.",
	})

	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pricewise",
		Name:      "publish_failures_total",
		Help:      "Price-change events that could not be published.",
	})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricewise",
		Name:      "catalog_cache_lookups_total",
		Help:      "Catalog cache lookups, by result.",
	}, []string{"result"})
)
