// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

func newViper(t *testing.T, yamlConfig string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix("RESEARCH_PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if yamlConfig != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yamlConfig)))
	}
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, types.ProviderOpenAlex, cfg.Search.Provider)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 10*time.Second, cfg.Search.CallTimeout)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, types.CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, types.GeneratorNone, cfg.Synthesis.Generator)
	assert.Equal(t, 45*time.Second, cfg.Synthesis.Timeout)
	assert.Equal(t, 2, cfg.Synthesis.MaxRetries)
	assert.Equal(t, "knowledge", cfg.KnowledgeBase.KnowledgeDir)
	assert.False(t, cfg.KnowledgeBase.Enabled)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	t.Setenv("RESEARCH_PIPELINE_SYNTHESIS_GENERATOR", "gemini")

	cfg, err := loadConfig(newViper(t, `
search:
  provider: searxng
  base_url: http://localhost:8888
  call_timeout: 5s
cache:
  backend: redis
  redis_url: redis://localhost:6379/0
synthesis:
  generator: claude
  model: claude-test
knowledge_base:
  enabled: true
profiles:
  deep:
    max_queries: 20
  tiny:
    max_queries: 1
    max_rounds: 1
    time_budget: 5s
`))
	require.NoError(t, err)

	assert.Equal(t, types.ProviderSearXNG, cfg.Search.Provider)
	assert.Equal(t, "http://localhost:8888", cfg.Search.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Search.CallTimeout)
	assert.Equal(t, types.CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, types.GeneratorGemini, cfg.Synthesis.Generator, "environment wins over the file")
	assert.Equal(t, "claude-test", cfg.Synthesis.Model)
	assert.True(t, cfg.KnowledgeBase.Enabled)

	profiles := effectiveProfiles(cfg)
	deep := profiles[types.ProfileDeep]
	assert.Equal(t, 20, deep.MaxQueries)
	assert.Equal(t, types.DefaultProfiles()[types.ProfileDeep].MaxRounds, deep.MaxRounds)

	tiny, err := types.LookupProfile(profiles, "tiny")
	require.NoError(t, err)
	assert.Equal(t, 1, tiny.MaxQueries)
	assert.Equal(t, 1, tiny.InitialQueries)
	assert.Equal(t, 5*time.Second, tiny.TimeBudget)

	assert.Equal(t, []string{"tiny", types.ProfileQuick, types.ProfileStandard, types.ProfileDeep}, profileNames(profiles))
}

func TestNewScorer(t *testing.T) {
	s, err := newScorer(types.AuthorityConfig{})
	require.NoError(t, err)
	assert.Equal(t, types.TierPrimary, s.Score("https://www.cdc.gov/x").Tier)

	_, err = newScorer(types.AuthorityConfig{TableFile: "does-not-exist.yaml"})
	assert.Error(t, err)
}
