package types

import (
	"fmt"
	"math"
	"time"
)

// Policy defaults for the pipeline.
const (
	DefaultCallInterval  = 1100 * time.Millisecond
	DefaultPerKeyword    = 3
	DefaultTopN          = 3
	DefaultMaxTokens     = 200
	DefaultNeutralScore  = 0.5
	DefaultConcurrency   = 1
	DefaultHTTPTimeout   = 60 * time.Second
	DefaultUserAgent     = "research-digest/0.1"
	DefaultOllamaURL     = "http://localhost:11434"
	DefaultTogetherModel = "deepseek-ai/DeepSeek-V3"

	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// CompletionProvider identifies the remote completion service.
type CompletionProvider string

const (
	ProviderTogether  CompletionProvider = "together"
	ProviderAnthropic CompletionProvider = "anthropic"
)

// CompletionConfig holds settings for the remote completion service used by
// keyword expansion, ranking, and comparison.
type CompletionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the API dialect: together or anthropic.
	Provider CompletionProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "deepseek-ai/DeepSeek-V3").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the completion API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxTokens bounds each completion reply (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// CallInterval is the minimum spacing between completion calls (default 1.1s).
	CallInterval time.Duration `json:"call_interval" yaml:"call_interval" mapstructure:"call_interval"`
}

// SearchConfig holds settings for paper retrieval.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the search backend: arxiv, openalex, semantic_scholar, or synthetic.
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// PerKeyword is the number of records requested per keyword (default 3).
	PerKeyword int `json:"per_keyword" yaml:"per_keyword" mapstructure:"per_keyword"`

	// Concurrency bounds simultaneous keyword queries (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// OpenAlexEmail is sent as the mailto parameter for the polite pool.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`
}

// RankConfig holds settings for relevance ranking.
type RankConfig struct {
	// TopN is the number of papers carried into summarization (default 3).
	TopN int `json:"top_n" yaml:"top_n" mapstructure:"top_n"`

	// NeutralScore replaces unusable relevance replies (default 0.5).
	NeutralScore float64 `json:"neutral_score" yaml:"neutral_score" mapstructure:"neutral_score"`

	// Concurrency bounds simultaneous scoring calls (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// SummarizeConfig holds settings for the local inference engine.
type SummarizeConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// EngineURL is the base URL of the local Ollama server.
	EngineURL string `json:"engine_url" yaml:"engine_url" mapstructure:"engine_url"`

	// Model is the local model name (e.g. "llama3.2:3b").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// MaxTokens bounds the generated summary length (default 200).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Concurrency bounds simultaneous summarization calls (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// OutputConfig holds settings for the rendering stages and the archive.
type OutputConfig struct {
	// Dir is the directory rendered artifacts are written to.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Formats lists renderers to run: markdown, yaml, json, charts, bibtex.
	Formats []string `json:"formats" yaml:"formats" mapstructure:"formats"`

	// ArchivePath is the SQLite report archive. Empty disables archiving.
	ArchivePath string `json:"archive_path" yaml:"archive_path" mapstructure:"archive_path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Completion CompletionConfig `json:"completion" yaml:"completion" mapstructure:"completion"`
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Rank       RankConfig       `json:"rank" yaml:"rank" mapstructure:"rank"`
	Summarize  SummarizeConfig  `json:"summarize" yaml:"summarize" mapstructure:"summarize"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultPipelineConfig returns a configuration carrying every policy default.
func DefaultPipelineConfig() PipelineConfig {
	httpCfg := HTTPConfig{Timeout: DefaultHTTPTimeout, UserAgent: DefaultUserAgent}
	return PipelineConfig{
		Completion: CompletionConfig{
			HTTPConfig:   httpCfg,
			Provider:     ProviderTogether,
			Model:        DefaultTogetherModel,
			MaxTokens:    1024,
			CallInterval: DefaultCallInterval,
		},
		Search: SearchConfig{
			HTTPConfig:  httpCfg,
			Backend:     "arxiv",
			PerKeyword:  DefaultPerKeyword,
			Concurrency: DefaultConcurrency,
		},
		Rank: RankConfig{
			TopN:         DefaultTopN,
			NeutralScore: DefaultNeutralScore,
			Concurrency:  DefaultConcurrency,
		},
		Summarize: SummarizeConfig{
			HTTPConfig:  HTTPConfig{Timeout: 5 * time.Minute, UserAgent: DefaultUserAgent},
			EngineURL:   DefaultOllamaURL,
			Model:       "llama3.2:3b",
			MaxTokens:   DefaultMaxTokens,
			Concurrency: DefaultConcurrency,
		},
		Output: OutputConfig{
			Dir:     "output",
			Formats: []string{"markdown"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

var knownBackends = map[string]bool{
	"arxiv":            true,
	"openalex":         true,
	"semantic_scholar": true,
	"synthetic":        true,
}

var knownFormats = map[string]bool{
	"markdown": true,
	"yaml":     true,
	"json":     true,
	"charts":   true,
	"bibtex":   true,
}

// Validate reports the first configuration value that cannot be used.
func (c PipelineConfig) Validate() error {
	switch c.Completion.Provider {
	case ProviderTogether, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown completion provider %q: use together or anthropic", c.Completion.Provider)
	}
	if c.Completion.CallInterval < 0 {
		return fmt.Errorf("completion.call_interval must not be negative, got %v", c.Completion.CallInterval)
	}
	if !knownBackends[c.Search.Backend] {
		return fmt.Errorf("unknown search backend %q", c.Search.Backend)
	}
	if c.Search.PerKeyword <= 0 {
		return fmt.Errorf("search.per_keyword must be positive, got %d", c.Search.PerKeyword)
	}
	if c.Rank.TopN <= 0 {
		return fmt.Errorf("rank.top_n must be positive, got %d", c.Rank.TopN)
	}
	if n := c.Rank.NeutralScore; math.IsNaN(n) || n < 0 || n > 1 {
		return fmt.Errorf("rank.neutral_score must be within [0,1], got %v", n)
	}
	if c.Summarize.MaxTokens <= 0 {
		return fmt.Errorf("summarize.max_tokens must be positive, got %d", c.Summarize.MaxTokens)
	}
	for _, lim := range []struct {
		name string
		n    int
	}{
		{"search.concurrency", c.Search.Concurrency},
		{"rank.concurrency", c.Rank.Concurrency},
		{"summarize.concurrency", c.Summarize.Concurrency},
	} {
		if lim.n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", lim.name, lim.n)
		}
	}
	for _, f := range c.Output.Formats {
		if !knownFormats[f] {
			return fmt.Errorf("unknown output format %q: use markdown, yaml, json, charts, or bibtex", f)
		}
	}
	return nil
}
