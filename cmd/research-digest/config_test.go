// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-digest/internal/secrets"
	"github.com/pdiddy/research-digest/pkg/types"
)

func newTestViper(t *testing.T, yamlConfig string) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	if yamlConfig != "" {
		path := filepath.Join(t.TempDir(), "research-digest.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o644))
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
	}
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t, ""), secrets.Secrets{secrets.TogetherAPIKey: "tk"})
	require.NoError(t, err)

	want := types.DefaultPipelineConfig()
	want.Completion.APIKey = "tk"
	assert.Equal(t, want, cfg)
	assert.Equal(t, 1100*time.Millisecond, cfg.Completion.CallInterval)
	assert.Equal(t, 3, cfg.Search.PerKeyword)
	assert.Equal(t, 3, cfg.Rank.TopN)
	assert.Equal(t, 200, cfg.Summarize.MaxTokens)
	assert.Equal(t, 0.5, cfg.Rank.NeutralScore)
}

func TestLoadConfigFromFile(t *testing.T) {
	v := newTestViper(t, `
completion:
  provider: anthropic
  call_interval: 2s
search:
  backend: openalex
  per_keyword: 5
rank:
  top_n: 4
output:
  formats: [markdown, charts]
  archive_path: digests.db
`)
	cfg, err := loadConfig(v, secrets.Secrets{
		secrets.AnthropicAPIKey: "ak",
		secrets.OpenAlexEmail:   "me@example.org",
	})
	require.NoError(t, err)

	assert.Equal(t, types.ProviderAnthropic, cfg.Completion.Provider)
	assert.Equal(t, types.DefaultAnthropicModel, cfg.Completion.Model)
	assert.Equal(t, "ak", cfg.Completion.APIKey)
	assert.Equal(t, 2*time.Second, cfg.Completion.CallInterval)
	assert.Equal(t, "openalex", cfg.Search.Backend)
	assert.Equal(t, "me@example.org", cfg.Search.OpenAlexEmail)
	assert.Equal(t, 5, cfg.Search.PerKeyword)
	assert.Equal(t, 4, cfg.Rank.TopN)
	assert.Equal(t, []string{"markdown", "charts"}, cfg.Output.Formats)
	assert.Equal(t, "digests.db", cfg.Output.ArchivePath)
	assert.Equal(t, types.DefaultHTTPTimeout, cfg.Search.Timeout)
}

func TestLoadConfigExplicitKeyWinsOverSecretFile(t *testing.T) {
	v := newTestViper(t, "completion:\n  api_key: from-config\n")
	cfg, err := loadConfig(v, secrets.Secrets{secrets.TogetherAPIKey: "from-file"})
	require.NoError(t, err)
	assert.Equal(t, "from-config", cfg.Completion.APIKey)
}

func TestLoadConfigKeepsZeroNeutralScore(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t, "rank:\n  neutral_score: 0\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Rank.NeutralScore)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, yaml, errMsg string
	}{
		{"unknown backend", "search:\n  backend: scopus\n", "unknown search backend"},
		{"zero top n", "rank:\n  top_n: 0\n", "rank.top_n must be positive"},
		{"unknown provider", "completion:\n  provider: openai\n", "unknown completion provider"},
		{"unknown format", "output:\n  formats: [pdf]\n", "unknown output format"},
		{"neutral above one", "rank:\n  neutral_score: 1.5\n", "rank.neutral_score must be within [0,1]"},
		{"negative neutral", "rank:\n  neutral_score: -0.1\n", "rank.neutral_score must be within [0,1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(newTestViper(t, tt.yaml), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
