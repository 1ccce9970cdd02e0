package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	indexCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolve_index_cache_lookups_total",
		Help: "Total clause index cache lookups by result",
	}, []string{"result"})

	indexCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolve_index_cache_evictions_total",
		Help: "Total clause indexes evicted from index caches",
	})

	indexBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resolve_index_build_duration_seconds",
		Help:    "Duration of building a clause index for one bitmask",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	})

	compiledPredicates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolve_compiled_predicates_total",
		Help: "Total static predicates compiled by dispatch strategy",
	}, []string{"strategy"})

	tailRecursiveGenerations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolve_tail_recursive_generations_total",
		Help: "Total generations run by tail recursive predicates",
	})
)
