// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package completion talks to the remote completion service that answers
// natural-language prompts for keyword expansion, ranking, and comparison.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/research-digest/pkg/types"
)

// ErrEmptyResponse is returned when the service replies without any text.
var ErrEmptyResponse = errors.New("completion service returned no text")

// Client sends one prompt and returns the reply text. Implementations make
// a single request per call and never retry.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to the Client interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New builds the client for cfg.Provider.
func New(cfg types.CompletionConfig, httpClient *http.Client) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for completion provider %q", cfg.Provider)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	switch cfg.Provider {
	case types.ProviderTogether, "":
		return &TogetherClient{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			BaseURL:   cfg.BaseURL,
			Client:    httpClient,
		}, nil
	case types.ProviderAnthropic:
		return &AnthropicClient{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			BaseURL:   cfg.BaseURL,
			Client:    httpClient,
		}, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
