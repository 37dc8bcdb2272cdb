// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/research-digest/pkg/types"
)

// SyntheticBackend fabricates deterministic records without any network
// access, for offline runs and demos. Every keyword yields exactly limit
// records.
type SyntheticBackend struct{}

// Name returns the backend identifier.
func (SyntheticBackend) Name() string { return "synthetic" }

// Search returns limit sample records for keyword.
func (SyntheticBackend) Search(ctx context.Context, keyword string, limit int) ([]types.PaperRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slug := strings.ReplaceAll(strings.TrimSpace(keyword), " ", "_")

	records := make([]types.PaperRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		records = append(records, types.PaperRecord{
			Title:         fmt.Sprintf("Sample Paper %d on %s", i, keyword),
			Authors:       []string{"Author A", "Author B"},
			Abstract:      fmt.Sprintf("This is an abstract about %s.", keyword),
			Year:          2023,
			CitationCount: 42,
			ExternalID:    fmt.Sprintf("synthetic:%s:%d", slug, i),
			URL:           fmt.Sprintf("https://arxiv.org/abs/%s_%d", slug, i),
			Keyword:       keyword,
			Source:        "synthetic",
		})
	}
	return records, nil
}
