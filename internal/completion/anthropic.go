// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/research-digest/internal/httputil"
)

// claudeAPIURL is the Claude Messages API endpoint.
const claudeAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicClient calls the Claude Messages API.
type AnthropicClient struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
	Client    *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends prompt as one user turn and joins the text blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	url := c.BaseURL
	if url == "" {
		url = claudeAPIURL
	}
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": "2023-06-01",
	}

	var resp claudeResponse
	if err := httputil.PostJSON(ctx, c.Client, url, "Claude API", headers, reqBody, &resp); err != nil {
		return "", err
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("Claude API: %w", ErrEmptyResponse)
	}
	return strings.Join(parts, ""), nil
}
