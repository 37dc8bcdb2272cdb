// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-digest/internal/httputil"
	"github.com/pdiddy/research-digest/pkg/types"
)

func TestTogetherClientComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tk", r.Header.Get("Authorization"))
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deepseek-ai/DeepSeek-V3", req.Model)
		if !assert.Len(t, req.Messages, 1) {
			return
		}
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[0].Content)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"GNN, message passing"}}]}`))
	}))
	defer ts.Close()

	c := &TogetherClient{APIKey: "tk", Model: "deepseek-ai/DeepSeek-V3", BaseURL: ts.URL, Client: ts.Client()}
	got, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "GNN, message passing", got)
}

func TestTogetherClientNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	c := &TogetherClient{APIKey: "tk", BaseURL: ts.URL, Client: ts.Client()}
	_, err := c.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestTogetherClientHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := &TogetherClient{APIKey: "tk", BaseURL: ts.URL, Client: ts.Client()}
	_, err := c.Complete(context.Background(), "hello")
	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

func TestAnthropicClientComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ak", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		var req claudeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1024, req.MaxTokens)
		w.Write([]byte(`{"content":[{"type":"text","text":"0."},{"type":"tool_use"},{"type":"text","text":"8"}]}`))
	}))
	defer ts.Close()

	c := &AnthropicClient{APIKey: "ak", Model: "claude", BaseURL: ts.URL, Client: ts.Client()}
	got, err := c.Complete(context.Background(), "rate this")
	require.NoError(t, err)
	assert.Equal(t, "0.8", got)
}

func TestAnthropicClientNoText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer ts.Close()

	c := &AnthropicClient{APIKey: "ak", BaseURL: ts.URL, Client: ts.Client()}
	_, err := c.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.CompletionConfig
		wantType any
		wantErr  bool
	}{
		{"together", types.CompletionConfig{Provider: types.ProviderTogether, APIKey: "k"}, &TogetherClient{}, false},
		{"anthropic", types.CompletionConfig{Provider: types.ProviderAnthropic, APIKey: "k"}, &AnthropicClient{}, false},
		{"missing key", types.CompletionConfig{Provider: types.ProviderTogether}, nil, true},
		{"unknown provider", types.CompletionConfig{Provider: "openai", APIKey: "k"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, c)
		})
	}
}

func TestFunc(t *testing.T) {
	var f Client = Func(func(_ context.Context, p string) (string, error) { return "echo " + p, nil })
	got, err := f.Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "echo x", got)
}
