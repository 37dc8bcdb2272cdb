// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-digest/internal/metrics"
	"github.com/pdiddy/research-digest/pkg/types"
)

type engineFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)

func (f engineFunc) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f(ctx, prompt, maxTokens)
}

func TestSummarizePromptAndVerbatimText(t *testing.T) {
	var gotPrompt string
	var gotTokens int
	s := &Summarizer{Engine: engineFunc(func(_ context.Context, prompt string, n int) (string, error) {
		gotPrompt, gotTokens = prompt, n
		return "  A summary with trailing space. ", nil
	})}

	sum, err := s.Summarize(context.Background(), types.PaperRecord{Title: "T", Abstract: "A"})
	require.NoError(t, err)
	assert.Equal(t, "Title: T\nAbstract: A", gotPrompt)
	assert.Equal(t, 200, gotTokens)
	assert.Equal(t, "  A summary with trailing space. ", sum.Text)
	assert.Nil(t, sum.Methodology)
	assert.Nil(t, sum.Contributions)
	assert.Nil(t, sum.Limitations)
}

func TestSummarizeCustomMaxTokens(t *testing.T) {
	var gotTokens int
	s := &Summarizer{MaxTokens: 64, Engine: engineFunc(func(_ context.Context, _ string, n int) (string, error) {
		gotTokens = n
		return "x", nil
	})}
	_, err := s.Summarize(context.Background(), types.PaperRecord{})
	require.NoError(t, err)
	assert.Equal(t, 64, gotTokens)
}

func TestSummarizeAllEmpty(t *testing.T) {
	called := false
	s := &Summarizer{Engine: engineFunc(func(context.Context, string, int) (string, error) {
		called = true
		return "", nil
	})}
	got, err := s.SummarizeAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, called)
}

func TestSummarizeAllKeepsOrder(t *testing.T) {
	var papers []types.ScoredPaper
	for i := 0; i < 6; i++ {
		papers = append(papers, types.ScoredPaper{
			PaperRecord:    types.PaperRecord{Title: fmt.Sprintf("p%d", i), Year: 2020 + i, CitationCount: i},
			RelevanceScore: 1 - float64(i)/10,
		})
	}
	m := metrics.NewCollector()
	s := &Summarizer{Concurrency: 3, Metrics: m, Engine: engineFunc(func(_ context.Context, prompt string, _ int) (string, error) {
		title := strings.TrimPrefix(strings.SplitN(prompt, "\n", 2)[0], "Title: ")
		return "summary of " + title, nil
	})}

	got, err := s.SummarizeAll(context.Background(), papers)
	require.NoError(t, err)
	require.Len(t, got, len(papers))
	for i, sp := range got {
		assert.Equal(t, papers[i].Title, sp.Title)
		assert.Equal(t, papers[i].Year, sp.Year)
		assert.Equal(t, papers[i].CitationCount, sp.CitationCount)
		assert.Equal(t, papers[i].RelevanceScore, sp.RelevanceScore)
		assert.Equal(t, "summary of "+papers[i].Title, sp.Summary.Text)
	}
}

func TestSummarizeAllPropagatesEngineError(t *testing.T) {
	boom := errors.New("engine crashed")
	s := &Summarizer{Engine: engineFunc(func(context.Context, string, int) (string, error) {
		return "", boom
	})}
	_, err := s.SummarizeAll(context.Background(), []types.ScoredPaper{{PaperRecord: types.PaperRecord{Title: "x"}}})
	assert.ErrorIs(t, err, boom)
}

// --- OllamaEngine ---

func TestOllamaGenerate(t *testing.T) {
	var shows, generates int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/show":
			atomic.AddInt32(&shows, 1)
			_, _ = w.Write([]byte(`{"modelfile":"..."}`))
		case "/api/generate":
			atomic.AddInt32(&generates, 1)
			var req ollamaGenerateRequest
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
				return
			}
			assert.Equal(t, "llama3.2:3b", req.Model)
			assert.False(t, req.Stream)
			assert.Equal(t, 200, req.Options.NumPredict)
			_, _ = w.Write([]byte(`{"response":"short summary","done":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	e := &OllamaEngine{Endpoint: srv.URL, Model: "llama3.2:3b", Client: srv.Client()}
	for i := 0; i < 2; i++ {
		text, err := e.Generate(context.Background(), "Title: T\nAbstract: A", 200)
		require.NoError(t, err)
		assert.Equal(t, "short summary", text)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&shows), "model checked once")
	assert.Equal(t, int32(2), atomic.LoadInt32(&generates))
}

func TestOllamaModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'missing' not found"}`))
	}))
	defer srv.Close()

	e := &OllamaEngine{Endpoint: srv.URL, Model: "missing", Client: srv.Client()}
	err := e.Load(context.Background())
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = e.Generate(context.Background(), "p", 10)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/show" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := &OllamaEngine{Endpoint: srv.URL, Model: "m", Client: srv.Client()}
	_, err := e.Generate(context.Background(), "p", 10)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelNotFound)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestOllamaEndpointNormalization(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "http://localhost:11434"},
		{"localhost:11434", "http://localhost:11434"},
		{"http://gpu-box:11434/", "http://gpu-box:11434"},
		{"https://ollama.example.com", "https://ollama.example.com"},
	}
	for _, tt := range tests {
		e := &OllamaEngine{Endpoint: tt.in}
		assert.Equal(t, tt.want, e.endpoint(), tt.in)
	}
}

func TestNewOllamaEngine(t *testing.T) {
	cfg := types.DefaultPipelineConfig().Summarize
	e := NewOllamaEngine(cfg)
	assert.Equal(t, cfg.EngineURL, e.Endpoint)
	assert.Equal(t, cfg.Model, e.Model)
	assert.Equal(t, cfg.Timeout, e.Client.Timeout)
}
