// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout. Per-call deadlines are tighter.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-pipeline/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ProviderKind selects the web search backend.
type ProviderKind string

const (
	ProviderSearXNG  ProviderKind = "searxng"
	ProviderBrave    ProviderKind = "brave"
	ProviderOpenAlex ProviderKind = "openalex"
)

// SearchConfig holds settings for the search provider client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the backend: searxng, brave or openalex.
	Provider ProviderKind `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL overrides the provider endpoint (required for searxng).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey authenticates against providers that need one (brave).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Email is sent to OpenAlex for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// MaxResults is the number of hits requested per query (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// CallTimeout is the per-call timeout (default 10s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout" mapstructure:"call_timeout"`

	// RequestsPerSecond limits provider calls; zero disables limiting.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Burst is the limiter burst size (default 1).
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// CacheBackend selects the search result cache.
type CacheBackend string

const (
	CacheNone   CacheBackend = "none"
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

// CacheConfig holds settings for the optional cache in front of the provider.
type CacheConfig struct {
	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// TTL bounds how long cached hits are served (default 15m).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// MaxEntries bounds the in-memory cache (default 512).
	MaxEntries int `json:"max_entries" yaml:"max_entries" mapstructure:"max_entries"`

	// RedisURL is a redis:// URL for the redis backend.
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty" mapstructure:"redis_url"`

	// KeyPrefix namespaces redis keys (default "research:search:").
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty" mapstructure:"key_prefix"`
}

// GeneratorKind selects the generative synthesis backend.
type GeneratorKind string

const (
	GeneratorNone   GeneratorKind = "none"
	GeneratorClaude GeneratorKind = "claude"
	GeneratorGemini GeneratorKind = "gemini"
)

// AIConfig holds shared settings for components that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts on HTTP 429 (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SynthesisConfig holds settings for the synthesis stage.
type SynthesisConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// Generator selects the backend: none, claude or gemini.
	Generator GeneratorKind `json:"generator" yaml:"generator" mapstructure:"generator"`

	// Timeout is the hard timeout on the generative call (default 45s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxSourcesInPrompt bounds the evidence sent to the generator (default 40).
	MaxSourcesInPrompt int `json:"max_sources_in_prompt" yaml:"max_sources_in_prompt" mapstructure:"max_sources_in_prompt"`
}

// KnowledgeBaseConfig holds settings for the context enrichment store.
type KnowledgeBaseConfig struct {
	// KnowledgeDir is the base directory (contains notes/ and index/).
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir" mapstructure:"knowledge_dir"`

	// Enabled turns context enrichment on for research runs.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Timeout bounds one enrichment call (default 2s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// AuthorityConfig points the scorer at a tuned table.
type AuthorityConfig struct {
	// TableFile is a YAML authority table; empty uses the built-in table.
	TableFile string `json:"table_file,omitempty" yaml:"table_file,omitempty" mapstructure:"table_file"`
}

// PipelineConfig groups all configuration for the pipeline.
type PipelineConfig struct {
	Search        SearchConfig            `json:"search" yaml:"search" mapstructure:"search"`
	Cache         CacheConfig             `json:"cache" yaml:"cache" mapstructure:"cache"`
	Synthesis     SynthesisConfig         `json:"synthesis" yaml:"synthesis" mapstructure:"synthesis"`
	KnowledgeBase KnowledgeBaseConfig     `json:"knowledge_base" yaml:"knowledge_base" mapstructure:"knowledge_base"`
	Authority     AuthorityConfig         `json:"authority" yaml:"authority" mapstructure:"authority"`
	Profiles      map[string]DepthProfile `json:"profiles" yaml:"profiles" mapstructure:"profiles"`
}
