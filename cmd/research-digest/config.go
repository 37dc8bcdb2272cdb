// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-digest/internal/secrets"
	"github.com/pdiddy/research-digest/pkg/types"
)

// setDefaults registers every config key with its default so that
// environment variables and Unmarshal see the full key set.
func setDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()

	v.SetDefault("completion.provider", string(d.Completion.Provider))
	v.SetDefault("completion.model", d.Completion.Model)
	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.base_url", "")
	v.SetDefault("completion.max_tokens", d.Completion.MaxTokens)
	v.SetDefault("completion.call_interval", d.Completion.CallInterval)
	v.SetDefault("completion.timeout", d.Completion.Timeout)
	v.SetDefault("completion.user_agent", d.Completion.UserAgent)

	v.SetDefault("search.backend", d.Search.Backend)
	v.SetDefault("search.per_keyword", d.Search.PerKeyword)
	v.SetDefault("search.concurrency", d.Search.Concurrency)
	v.SetDefault("search.semantic_scholar_api_key", "")
	v.SetDefault("search.openalex_email", "")
	v.SetDefault("search.timeout", d.Search.Timeout)
	v.SetDefault("search.user_agent", d.Search.UserAgent)

	v.SetDefault("rank.top_n", d.Rank.TopN)
	v.SetDefault("rank.neutral_score", d.Rank.NeutralScore)
	v.SetDefault("rank.concurrency", d.Rank.Concurrency)

	v.SetDefault("summarize.engine_url", d.Summarize.EngineURL)
	v.SetDefault("summarize.model", d.Summarize.Model)
	v.SetDefault("summarize.max_tokens", d.Summarize.MaxTokens)
	v.SetDefault("summarize.concurrency", d.Summarize.Concurrency)
	v.SetDefault("summarize.timeout", d.Summarize.Timeout)
	v.SetDefault("summarize.user_agent", d.Summarize.UserAgent)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.formats", d.Output.Formats)
	v.SetDefault("output.archive_path", d.Output.ArchivePath)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadConfig decodes the merged flag, env, and file settings, fills API
// keys from the secrets directory, and validates the result.
func loadConfig(v *viper.Viper, s secrets.Secrets) (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Completion.Provider == types.ProviderAnthropic && cfg.Completion.Model == types.DefaultTogetherModel {
		cfg.Completion.Model = types.DefaultAnthropicModel
	}
	applySecrets(&cfg, s)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applySecrets(cfg *types.PipelineConfig, s secrets.Secrets) {
	switch cfg.Completion.Provider {
	case types.ProviderAnthropic:
		cfg.Completion.APIKey = s.Get(secrets.AnthropicAPIKey, cfg.Completion.APIKey)
	default:
		cfg.Completion.APIKey = s.Get(secrets.TogetherAPIKey, cfg.Completion.APIKey)
	}
	cfg.Search.SemanticScholarAPIKey = s.Get(secrets.SemanticScholarAPIKey, cfg.Search.SemanticScholarAPIKey)
	cfg.Search.OpenAlexEmail = s.Get(secrets.OpenAlexEmail, cfg.Search.OpenAlexEmail)
}
