// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_requests_total",
			Help: "Research requests by profile and terminal state",
		},
		[]string{"profile", "state"},
	)

	queriesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_queries_issued_total",
			Help: "Queries sent to the search provider by round",
		},
		[]string{"round"},
	)

	queryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_query_errors_total",
			Help: "Failed queries by provider error kind",
		},
		[]string{"kind"},
	)

	degradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_degraded_reports_total",
			Help: "Degraded reports by reason",
		},
		[]string{"reason"},
	)

	phaseSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_phase_seconds",
			Help:    "Time spent in each orchestrator state",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"state"},
	)
)
