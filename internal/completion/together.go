// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/research-digest/internal/httputil"
)

// togetherAPIURL is the Together chat completions endpoint.
const togetherAPIURL = "https://api.together.xyz/v1/chat/completions"

// TogetherClient calls an OpenAI-compatible chat completions endpoint
// (Together by default).
type TogetherClient struct {
	APIKey    string
	Model     string
	MaxTokens int
	// BaseURL overrides the endpoint; tests point it at httptest servers.
	BaseURL string
	Client  *http.Client
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *TogetherClient) Complete(ctx context.Context, prompt string) (string, error) {
	url := c.BaseURL
	if url == "" {
		url = togetherAPIURL
	}

	reqBody := chatRequest{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.APIKey}

	var resp chatResponse
	if err := httputil.PostJSON(ctx, c.Client, url, "Together API", headers, reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("Together API: %w", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
