// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search retrieves candidate paper records for an expanded keyword
// set from an academic search backend.
package search

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-digest/internal/logging"
	"github.com/pdiddy/research-digest/internal/metrics"
	"github.com/pdiddy/research-digest/pkg/types"
)

// Backend searches a single academic API for one keyword. Implementations
// return at most limit records in the backend's own relevance order.
type Backend interface {
	Name() string
	Search(ctx context.Context, keyword string, limit int) ([]types.PaperRecord, error)
}

// Retriever fetches records for every keyword of a KeywordSet.
type Retriever struct {
	Backend Backend

	// PerKeyword is the record limit per keyword (default 3).
	PerKeyword int

	// Concurrency bounds simultaneous backend queries (default 1).
	Concurrency int

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Search queries the backend once per keyword and concatenates the
// results in keyword order, then backend order within a keyword. Records
// are not deduplicated. Any backend error fails the whole call.
func (r *Retriever) Search(ctx context.Context, keywords types.KeywordSet) ([]types.PaperRecord, error) {
	logger := logging.OrNop(r.Logger)
	if len(keywords) == 0 {
		return []types.PaperRecord{}, nil
	}

	limit := r.PerKeyword
	if limit <= 0 {
		limit = types.DefaultPerKeyword
	}
	workers := r.Concurrency
	if workers <= 0 {
		workers = types.DefaultConcurrency
	}

	perKeyword := make([][]types.PaperRecord, len(keywords))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, kw := range keywords {
		g.Go(func() error {
			records, err := r.Backend.Search(gctx, kw, limit)
			if err != nil {
				return fmt.Errorf("searching %s for %q: %w", r.Backend.Name(), kw, err)
			}
			if len(records) > limit {
				records = records[:limit]
			}
			for j := range records {
				if records[j].Keyword == "" {
					records[j].Keyword = kw
				}
				if records[j].Source == "" {
					records[j].Source = r.Backend.Name()
				}
			}
			logger.Debug("keyword searched",
				zap.String("backend", r.Backend.Name()),
				zap.String("keyword", kw),
				zap.Int("records", len(records)))
			perKeyword[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := []types.PaperRecord{}
	for _, records := range perKeyword {
		all = append(all, records...)
	}
	r.Metrics.AddRetrieved(len(all))
	return all, nil
}

// NewBackend returns the backend registered under name.
func NewBackend(name string, client *http.Client, cfg types.SearchConfig) (Backend, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	switch name {
	case "arxiv":
		return &ArxivBackend{Client: client, UserAgent: cfg.UserAgent}, nil
	case "openalex":
		return &OpenAlexBackend{Client: client, UserAgent: cfg.UserAgent, Email: cfg.OpenAlexEmail}, nil
	case "semantic_scholar":
		return &SemanticScholarBackend{Client: client, UserAgent: cfg.UserAgent, APIKey: cfg.SemanticScholarAPIKey}, nil
	case "synthetic":
		return SyntheticBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", name)
	}
}
