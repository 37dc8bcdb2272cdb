// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize condenses ranked papers with a local inference engine.
// Summaries are never rate limited; the engine runs on the same host.
package summarize

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-digest/internal/logging"
	"github.com/pdiddy/research-digest/internal/metrics"
	"github.com/pdiddy/research-digest/pkg/types"
)

// Engine generates text from a prompt, bounded to maxTokens output tokens.
type Engine interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Summarizer produces one Summary per paper.
type Summarizer struct {
	Engine Engine

	// MaxTokens bounds each summary (default 200).
	MaxTokens int

	// Concurrency bounds simultaneous engine calls (default 1).
	Concurrency int

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Prompt builds the summarization prompt for one paper.
func Prompt(title, abstract string) string {
	return fmt.Sprintf("Title: %s\nAbstract: %s", title, abstract)
}

// Summarize runs the engine on one paper and returns its text verbatim.
// The structured fields of the Summary stay nil.
func (s *Summarizer) Summarize(ctx context.Context, paper types.PaperRecord) (types.Summary, error) {
	start := time.Now()
	text, err := s.Engine.Generate(ctx, Prompt(paper.Title, paper.Abstract), s.maxTokens())
	if err != nil {
		return types.Summary{}, fmt.Errorf("summarizing %q: %w", paper.Title, err)
	}
	logging.OrNop(s.Logger).Debug("summarized paper",
		zap.String("paper", paper.ExternalID),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return types.Summary{Text: text}, nil
}

// SummarizeAll summarizes papers in order. Output index i belongs to input
// index i. The first engine error aborts the whole batch.
func (s *Summarizer) SummarizeAll(ctx context.Context, papers []types.ScoredPaper) ([]types.SummarizedPaper, error) {
	out := make([]types.SummarizedPaper, len(papers))
	if len(papers) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, p := range papers {
		g.Go(func() error {
			sum, err := s.Summarize(gctx, p.PaperRecord)
			if err != nil {
				return err
			}
			out[i] = types.NewSummarizedPaper(p, sum)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.Metrics.AddSummarized(len(out))
	return out, nil
}

func (s *Summarizer) maxTokens() int {
	if s.MaxTokens > 0 {
		return s.MaxTokens
	}
	return types.DefaultMaxTokens
}

func (s *Summarizer) concurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return types.DefaultConcurrency
}
