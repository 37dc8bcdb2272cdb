// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/pdiddy/research-digest/internal/httputil"
	"github.com/pdiddy/research-digest/pkg/types"
)

// ErrModelNotFound is returned when the local engine does not have the
// configured model weights.
var ErrModelNotFound = errors.New("summarization model not found")

// OllamaEngine generates text with a local Ollama server.
type OllamaEngine struct {
	// Endpoint is the server base URL (e.g. "http://localhost:11434").
	// A bare host:port is accepted.
	Endpoint string
	Model    string
	Client   *http.Client

	mu     sync.Mutex
	loaded bool
}

// NewOllamaEngine builds an engine from cfg.
func NewOllamaEngine(cfg types.SummarizeConfig) *OllamaEngine {
	return &OllamaEngine{
		Endpoint: cfg.EngineURL,
		Model:    cfg.Model,
		Client:   &http.Client{Timeout: cfg.Timeout},
	}
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaShowRequest struct {
	Model string `json:"model"`
}

// Load checks that the model is present. After the first success the
// engine stays loaded and Load returns nil without contacting the server.
func (o *OllamaEngine) Load(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loaded {
		return nil
	}
	var show map[string]any
	err := httputil.PostJSON(ctx, o.Client, o.endpoint()+"/api/show", "ollama", nil,
		ollamaShowRequest{Model: o.Model}, &show)
	if err != nil {
		return o.classify(err)
	}
	o.loaded = true
	return nil
}

// Generate runs one non-streaming completion capped at maxTokens.
func (o *OllamaEngine) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := o.Load(ctx); err != nil {
		return "", err
	}
	req := ollamaGenerateRequest{
		Model:   o.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: ollamaOptions{NumPredict: maxTokens},
	}
	var resp ollamaGenerateResponse
	if err := httputil.PostJSON(ctx, o.Client, o.endpoint()+"/api/generate", "ollama", nil, req, &resp); err != nil {
		return "", o.classify(err)
	}
	return resp.Response, nil
}

func (o *OllamaEngine) classify(err error) error {
	var se *httputil.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrModelNotFound, o.Model)
	}
	return err
}

func (o *OllamaEngine) endpoint() string {
	ep := strings.TrimRight(o.Endpoint, "/")
	if ep == "" {
		ep = types.DefaultOllamaURL
	}
	if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
		ep = "http://" + ep
	}
	return ep
}
