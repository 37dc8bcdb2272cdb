// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores candidate papers for relevance to a keyword set and
// selects the top N by relevance, then citations, then year.
package rank

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-digest/internal/logging"
	"github.com/pdiddy/research-digest/pkg/types"
)

// Ranker scores every candidate and keeps the best TopN.
type Ranker struct {
	Scorer *Scorer

	// TopN is the number of papers returned (default 3).
	TopN int

	// Concurrency bounds simultaneous scoring calls (default 1). Calls still
	// pass through the Scorer's limiter, so spacing is unchanged.
	Concurrency int

	Logger *zap.Logger
}

// Rank scores papers, sorts them, and returns at most TopN. Fewer than
// TopN candidates are all returned. An empty input yields an empty result.
func (r *Ranker) Rank(ctx context.Context, papers []types.PaperRecord, keywords types.KeywordSet) ([]types.ScoredPaper, error) {
	scored, err := r.ScoreAll(ctx, papers, keywords)
	if err != nil {
		return nil, err
	}
	SortScored(scored)

	top := r.TopN
	if top <= 0 {
		top = types.DefaultTopN
	}
	if len(scored) > top {
		scored = scored[:top]
	}
	return scored, nil
}

// ScoreAll scores each paper once and returns them in input order.
func (r *Ranker) ScoreAll(ctx context.Context, papers []types.PaperRecord, keywords types.KeywordSet) ([]types.ScoredPaper, error) {
	logger := logging.OrNop(r.Logger)
	scored := make([]types.ScoredPaper, len(papers))
	if len(papers) == 0 {
		return scored, nil
	}

	workers := r.Concurrency
	if workers <= 0 {
		workers = types.DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range papers {
		g.Go(func() error {
			score, err := r.Scorer.Score(gctx, p, keywords)
			if err != nil {
				return err
			}
			scored[i] = types.ScoredPaper{
				PaperRecord:    p,
				RelevanceScore: score.Value,
				ScoreOutcome:   score.Outcome,
				FallbackReason: score.Reason,
			}
			logger.Debug("paper scored",
				zap.String("paper", p.ExternalID),
				zap.Float64("score", score.Value),
				zap.String("outcome", string(score.Outcome)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// SortScored orders papers by relevance, citations, and year, all
// descending. Papers equal on all three keep their relative order, so
// sorting an already sorted slice leaves it unchanged.
func SortScored(papers []types.ScoredPaper) {
	sort.SliceStable(papers, func(i, j int) bool {
		a, b := papers[i], papers[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if a.CitationCount != b.CitationCount {
			return a.CitationCount > b.CitationCount
		}
		return a.Year > b.Year
	})
}
