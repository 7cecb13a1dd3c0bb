// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var synthesisTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "research_synthesis_total",
		Help: "Synthesis passes by generator and outcome",
	},
	[]string{"generator", "outcome"},
)
