// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the five research-digest stages in order and
// assembles the Report.
//
// Stages run strictly one after another:
//
//	expand -> search -> rank -> summarize -> compare
//
// The first stage error aborts the run and no partial Report is returned.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/research-digest/internal/compare"
	"github.com/pdiddy/research-digest/internal/completion"
	"github.com/pdiddy/research-digest/internal/keywords"
	"github.com/pdiddy/research-digest/internal/logging"
	"github.com/pdiddy/research-digest/internal/metrics"
	"github.com/pdiddy/research-digest/internal/rank"
	"github.com/pdiddy/research-digest/internal/ratelimit"
	"github.com/pdiddy/research-digest/internal/search"
	"github.com/pdiddy/research-digest/internal/summarize"
	"github.com/pdiddy/research-digest/pkg/types"
)

// ErrEmptyTopic is returned when Run is given a blank topic.
var ErrEmptyTopic = errors.New("topic must not be empty")

// Stage names used in errors, logs, and metrics.
const (
	StageExpand    = "expand"
	StageSearch    = "search"
	StageRank      = "rank"
	StageSummarize = "summarize"
	StageCompare   = "compare"
)

// StageError reports which stage aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Stage contracts. The concrete stage types satisfy these.
type (
	KeywordExpander interface {
		Expand(ctx context.Context, topic string) (types.KeywordSet, error)
	}
	PaperRetriever interface {
		Search(ctx context.Context, keywords types.KeywordSet) ([]types.PaperRecord, error)
	}
	PaperRanker interface {
		Rank(ctx context.Context, papers []types.PaperRecord, keywords types.KeywordSet) ([]types.ScoredPaper, error)
	}
	PaperSummarizer interface {
		SummarizeAll(ctx context.Context, papers []types.ScoredPaper) ([]types.SummarizedPaper, error)
	}
	PaperComparator interface {
		Compare(ctx context.Context, papers []types.SummarizedPaper) (string, error)
	}
)

// Pipeline holds one instance of each stage.
type Pipeline struct {
	Expander   KeywordExpander
	Retriever  PaperRetriever
	Ranker     PaperRanker
	Summarizer PaperSummarizer
	Comparator PaperComparator

	Logger  *zap.Logger
	Metrics *metrics.Collector

	// Now stamps Report.GeneratedAt. Defaults to time.Now.
	Now func() time.Time
}

// Deps are the external services a Pipeline is built on.
type Deps struct {
	Completion completion.Client
	Backend    search.Backend
	Engine     summarize.Engine

	// Limiter spaces completion calls. When nil, New builds one from
	// cfg.Completion.CallInterval.
	Limiter ratelimit.Limiter

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// New wires the stages from cfg and deps. Every completion-backed stage
// shares one limiter so the call spacing holds across the whole run.
func New(cfg types.PipelineConfig, deps Deps) *Pipeline {
	lim := deps.Limiter
	if lim == nil {
		lim = ratelimit.NewInterval(cfg.Completion.CallInterval)
	}
	logger := logging.OrNop(deps.Logger)
	neutral := cfg.Rank.NeutralScore

	return &Pipeline{
		Expander: &keywords.Expander{
			Client:  deps.Completion,
			Limiter: lim,
			Logger:  logger.Named(StageExpand),
			Metrics: deps.Metrics,
		},
		Retriever: &search.Retriever{
			Backend:     deps.Backend,
			PerKeyword:  cfg.Search.PerKeyword,
			Concurrency: cfg.Search.Concurrency,
			Logger:      logger.Named(StageSearch),
			Metrics:     deps.Metrics,
		},
		Ranker: &rank.Ranker{
			Scorer: &rank.Scorer{
				Client:  deps.Completion,
				Limiter: lim,
				Neutral: &neutral,
				Logger:  logger.Named(StageRank),
				Metrics: deps.Metrics,
			},
			TopN:        cfg.Rank.TopN,
			Concurrency: cfg.Rank.Concurrency,
			Logger:      logger.Named(StageRank),
		},
		Summarizer: &summarize.Summarizer{
			Engine:      deps.Engine,
			MaxTokens:   cfg.Summarize.MaxTokens,
			Concurrency: cfg.Summarize.Concurrency,
			Logger:      logger.Named(StageSummarize),
			Metrics:     deps.Metrics,
		},
		Comparator: &compare.Comparator{
			Client:  deps.Completion,
			Limiter: lim,
			Logger:  logger.Named(StageCompare),
			Metrics: deps.Metrics,
		},
		Logger:  logger,
		Metrics: deps.Metrics,
	}
}

// TopicSummary restates the expanded keywords.
func TopicSummary(kws types.KeywordSet) string {
	return "Expanded keywords: " + strings.Join(kws, ", ")
}

// Run executes one full pass for topic.
func (p *Pipeline) Run(ctx context.Context, topic string) (*types.Report, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopic
	}

	runID := uuid.NewString()
	logger := logging.OrNop(p.Logger).With(zap.String("run_id", runID))
	logger.Info("pipeline started", zap.String("topic", topic))
	start := time.Now()

	report, err := p.run(ctx, logger, topic)
	if err != nil {
		p.Metrics.RecordRun("error")
		logger.Error("pipeline failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	report.RunID = runID

	p.Metrics.RecordRun("ok")
	logger.Info("pipeline finished",
		zap.Int("papers", len(report.SummarizedPapers)),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, logger *zap.Logger, topic string) (*types.Report, error) {
	var kws types.KeywordSet
	if err := p.stage(ctx, logger, StageExpand, func(ctx context.Context) (int, error) {
		var err error
		kws, err = p.Expander.Expand(ctx, topic)
		return len(kws), err
	}); err != nil {
		return nil, err
	}

	var candidates []types.PaperRecord
	if err := p.stage(ctx, logger, StageSearch, func(ctx context.Context) (int, error) {
		var err error
		candidates, err = p.Retriever.Search(ctx, kws)
		return len(candidates), err
	}); err != nil {
		return nil, err
	}

	var ranked []types.ScoredPaper
	if err := p.stage(ctx, logger, StageRank, func(ctx context.Context) (int, error) {
		var err error
		ranked, err = p.Ranker.Rank(ctx, candidates, kws)
		return len(ranked), err
	}); err != nil {
		return nil, err
	}

	var summarized []types.SummarizedPaper
	if err := p.stage(ctx, logger, StageSummarize, func(ctx context.Context) (int, error) {
		var err error
		summarized, err = p.Summarizer.SummarizeAll(ctx, ranked)
		return len(summarized), err
	}); err != nil {
		return nil, err
	}

	var analysis string
	if err := p.stage(ctx, logger, StageCompare, func(ctx context.Context) (int, error) {
		var err error
		analysis, err = p.Comparator.Compare(ctx, summarized)
		return len(summarized), err
	}); err != nil {
		return nil, err
	}

	return &types.Report{
		Topic:               topic,
		Keywords:            kws,
		TopicSummary:        TopicSummary(kws),
		SummarizedPapers:    summarized,
		ComparativeAnalysis: analysis,
		GeneratedAt:         p.now(),
	}, nil
}

// stage times fn, logs its item count, and wraps its error.
func (p *Pipeline) stage(ctx context.Context, logger *zap.Logger, name string, fn func(context.Context) (int, error)) error {
	start := time.Now()
	n, err := fn(ctx)
	elapsed := time.Since(start)
	p.Metrics.ObserveStage(name, elapsed)
	if err != nil {
		return &StageError{Stage: name, Err: err}
	}
	logger.Info("stage complete", zap.String("stage", name), zap.Int("items", n), zap.Duration("elapsed", elapsed))
	return nil
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
