package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// DatasetRows is the number of campaign rows in the current snapshot.
	DatasetRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "markops",
		Subsystem: "dashboard",
		Name:      "dataset_rows",
		Help:      "Campaign rows held in the in-memory snapshot.",
	})

	// DatasetReloadsTotal counts snapshot rebuilds.
	DatasetReloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "markops",
		Subsystem: "dashboard",
		Name:      "dataset_reloads_total",
		Help:      "Total dataset reloads (index rebuilds).",
	})

	// FilterQueriesTotal counts campaign filter queries served.
	FilterQueriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "markops",
		Subsystem: "dashboard",
		Name:      "filter_queries_total",
		Help:      "Total campaign filter queries served from the index.",
	})

	// CopyCacheHits / CopyCacheMisses track the email-copy memoization cache.
	CopyCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "markops",
		Subsystem: "copygen",
		Name:      "cache_hits_total",
		Help:      "Email-copy generations served from the cache.",
	})
	CopyCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "markops",
		Subsystem: "copygen",
		Name:      "cache_misses_total",
		Help:      "Email-copy generations that had to call the model.",
	})

	// CopyFallbacksTotal counts generations that ended in the deterministic
	// template fallback after model output could not be repaired.
	CopyFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "markops",
		Subsystem: "copygen",
		Name:      "fallbacks_total",
		Help:      "Email-copy generations that fell back to template copy.",
	})

	// BatTransitionsTotal counts delivery workflow transitions by target status.
	BatTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "markops",
		Subsystem: "delivery",
		Name:      "bat_transitions_total",
		Help:      "Campaign delivery workflow transitions.",
	}, []string{"to_status"})
)

// Register registers all dashboard metrics with the default registry.
// Safe to call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			DatasetRows,
			DatasetReloadsTotal,
			FilterQueriesTotal,
			CopyCacheHits,
			CopyCacheMisses,
			CopyFallbacksTotal,
			BatTransitionsTotal,
		)
	})
}
