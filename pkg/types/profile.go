// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profile names.
const (
	ProfileQuick    = "quick"
	ProfileStandard = "standard"
	ProfileDeep     = "deep"
)

// DepthProfile is a named budget selecting how thorough a research pass is.
// Profiles are configuration and never mutated during a request.
type DepthProfile struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// MaxQueries bounds the queries issued across all rounds.
	MaxQueries int `json:"max_queries" yaml:"max_queries" mapstructure:"max_queries"`

	// MaxRounds bounds the search rounds (1 disables gap filling).
	MaxRounds int `json:"max_rounds" yaml:"max_rounds" mapstructure:"max_rounds"`

	// TimeBudget is the soft wall-clock budget for the whole request.
	TimeBudget time.Duration `json:"time_budget" yaml:"time_budget" mapstructure:"time_budget"`

	// InitialQueries bounds the round-0 decomposition.
	InitialQueries int `json:"initial_queries" yaml:"initial_queries" mapstructure:"initial_queries"`

	// MaxFindings bounds the findings in the report.
	MaxFindings int `json:"max_findings" yaml:"max_findings" mapstructure:"max_findings"`

	// Concurrency caps simultaneous provider calls within a round.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// SynthesisReserve is the fraction of TimeBudget kept for synthesis.
	SynthesisReserve float64 `json:"synthesis_reserve" yaml:"synthesis_reserve" mapstructure:"synthesis_reserve"`
}

// TimeBudgetMS returns the budget in milliseconds.
func (p DepthProfile) TimeBudgetMS() int64 {
	return p.TimeBudget.Milliseconds()
}

// DefaultProfiles returns the built-in quick, standard and deep profiles.
func DefaultProfiles() map[string]DepthProfile {
	return map[string]DepthProfile{
		ProfileQuick: {
			Name: ProfileQuick, MaxQueries: 2, MaxRounds: 1, TimeBudget: 20 * time.Second,
			InitialQueries: 2, MaxFindings: 3, Concurrency: 4, SynthesisReserve: 0.25,
		},
		ProfileStandard: {
			Name: ProfileStandard, MaxQueries: 8, MaxRounds: 2, TimeBudget: 60 * time.Second,
			InitialQueries: 5, MaxFindings: 6, Concurrency: 4, SynthesisReserve: 0.25,
		},
		ProfileDeep: {
			Name: ProfileDeep, MaxQueries: 12, MaxRounds: 2, TimeBudget: 180 * time.Second,
			InitialQueries: 8, MaxFindings: 10, Concurrency: 4, SynthesisReserve: 0.3,
		},
	}
}

// Normalize fills zero fields from the built-in profile of the same name
// (standard when the name is unknown) and clamps inconsistent values.
func (p DepthProfile) Normalize() DepthProfile {
	base, ok := DefaultProfiles()[p.Name]
	if !ok {
		base = DefaultProfiles()[ProfileStandard]
	}
	if p.Name == "" {
		p.Name = base.Name
	}
	if p.MaxQueries <= 0 {
		p.MaxQueries = base.MaxQueries
	}
	if p.MaxRounds <= 0 {
		p.MaxRounds = base.MaxRounds
	}
	if p.TimeBudget <= 0 {
		p.TimeBudget = base.TimeBudget
	}
	if p.InitialQueries <= 0 {
		p.InitialQueries = base.InitialQueries
	}
	if p.InitialQueries > p.MaxQueries {
		p.InitialQueries = p.MaxQueries
	}
	if p.MaxFindings <= 0 {
		p.MaxFindings = base.MaxFindings
	}
	if p.Concurrency <= 0 {
		p.Concurrency = base.Concurrency
	}
	if p.SynthesisReserve <= 0 || p.SynthesisReserve >= 1 {
		p.SynthesisReserve = base.SynthesisReserve
	}
	return p
}

// LookupProfile returns the named profile from profiles.
func LookupProfile(profiles map[string]DepthProfile, name string) (DepthProfile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	p, ok := profiles[key]
	if !ok {
		names := make([]string, 0, len(profiles))
		for n := range profiles {
			names = append(names, n)
		}
		sort.Strings(names)
		return DepthProfile{}, fmt.Errorf("unknown depth profile %q (available: %s)", name, strings.Join(names, ", "))
	}
	if p.Name == "" {
		p.Name = key
	}
	return p.Normalize(), nil
}
