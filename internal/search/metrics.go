// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_search_calls_total",
			Help: "Search provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	providerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_search_call_seconds",
			Help:    "Search provider call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	providerHits = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_search_hits",
			Help:    "Hits returned per successful provider call",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 50},
		},
		[]string{"provider"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_search_cache_lookups_total",
			Help: "Search cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)
)
