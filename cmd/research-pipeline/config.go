// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-pipeline/internal/enrich"
	"github.com/pdiddy/research-pipeline/internal/search"
	"github.com/pdiddy/research-pipeline/internal/synth"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

// setDefaults registers every configuration key so that environment
// variables can override keys absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.provider", string(types.ProviderOpenAlex))
	v.SetDefault("search.base_url", "")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.email", "")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.call_timeout", search.DefaultCallTimeout)
	v.SetDefault("search.user_agent", "research-pipeline/"+version)
	v.SetDefault("search.requests_per_second", 2.0)
	v.SetDefault("search.burst", 2)

	v.SetDefault("cache.backend", string(types.CacheMemory))
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("cache.max_entries", 512)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", search.DefaultRedisKeyPrefix)

	v.SetDefault("synthesis.generator", string(types.GeneratorNone))
	v.SetDefault("synthesis.model", "")
	v.SetDefault("synthesis.api_key", "")
	v.SetDefault("synthesis.max_retries", 2)
	v.SetDefault("synthesis.timeout", synth.DefaultTimeout)
	v.SetDefault("synthesis.max_sources_in_prompt", synth.DefaultMaxSourcesInPrompt)

	v.SetDefault("knowledge_base.knowledge_dir", "knowledge")
	v.SetDefault("knowledge_base.enabled", false)
	v.SetDefault("knowledge_base.max_results", 20)
	v.SetDefault("knowledge_base.timeout", enrich.DefaultTimeout)

	v.SetDefault("authority.table_file", "")
}

// loadConfig decodes v into a PipelineConfig.
func loadConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return types.PipelineConfig{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// effectiveProfiles overlays configured profiles on the built-in ones.
// Fields a configured profile leaves zero come from the built-in profile of
// the same name.
func effectiveProfiles(cfg types.PipelineConfig) map[string]types.DepthProfile {
	out := types.DefaultProfiles()
	for name, p := range cfg.Profiles {
		if p.Name == "" {
			p.Name = name
		}
		out[name] = p.Normalize()
	}
	return out
}

func profileNames(profiles map[string]types.DepthProfile) []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := profiles[names[i]], profiles[names[j]]
		if pi.MaxQueries != pj.MaxQueries {
			return pi.MaxQueries < pj.MaxQueries
		}
		return names[i] < names[j]
	})
	return names
}
