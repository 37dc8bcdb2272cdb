// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-digest/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive", "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func report(runID, topic string, at time.Time, titles ...string) *types.Report {
	r := &types.Report{
		RunID:               runID,
		Topic:               topic,
		Keywords:            types.KeywordSet{topic, topic + " survey"},
		TopicSummary:        "Expanded keywords: " + topic + ", " + topic + " survey",
		ComparativeAnalysis: "They agree.",
		GeneratedAt:         at,
		SummarizedPapers:    []types.SummarizedPaper{},
	}
	for i, title := range titles {
		r.SummarizedPapers = append(r.SummarizedPapers, types.SummarizedPaper{
			Title:          title,
			Authors:        []string{"Author A", "Author B"},
			Year:           2020 + i,
			CitationCount:  10 * i,
			URL:            "https://example.org/" + title,
			RelevanceScore: 0.9 - float64(i)/10,
			Summary:        types.Summary{Text: "Summary of " + title},
		})
	}
	return r
}

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := report("run-1", "graph neural networks", t0, "GAT", "GraphSAGE", "GCN")

	require.NoError(t, s.Save(ctx, want))
	got, err := s.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveReplacesExistingRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, report("run-1", "first", t0, "a", "b", "c")))
	require.NoError(t, s.Save(ctx, report("run-1", "second", t0, "d")))

	got, err := s.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Topic)
	require.Len(t, got.SummarizedPapers, 1)
	assert.Equal(t, "d", got.SummarizedPapers[0].Title)
}

func TestSaveRequiresRunID(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Save(context.Background(), &types.Report{Topic: "x"}))
}

func TestLoadMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirstWithFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, report("run-1", "Graph Neural Networks", t0, "GAT")))
	require.NoError(t, s.Save(ctx, report("run-2", "protein folding", t0.Add(time.Hour), "AlphaFold", "RoseTTAFold")))
	require.NoError(t, s.Save(ctx, report("run-3", "graph transformers", t0.Add(2*time.Hour))))

	all, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"run-3", "run-2", "run-1"}, []string{all[0].RunID, all[1].RunID, all[2].RunID})
	assert.Equal(t, 2, all[1].Papers)
	assert.Equal(t, 0, all[0].Papers)
	assert.True(t, all[2].GeneratedAt.Equal(t0))

	graph, err := s.List(ctx, ListOptions{Topic: "GRAPH"})
	require.NoError(t, err)
	assert.Len(t, graph, 2)

	byPaper, err := s.List(ctx, ListOptions{Query: "alphafold"})
	require.NoError(t, err)
	require.Len(t, byPaper, 1)
	assert.Equal(t, "run-2", byPaper[0].RunID)

	limited, err := s.List(ctx, ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListOrdersWithinOneSecond(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, report("whole-second", "t", t0)))
	require.NoError(t, s.Save(ctx, report("half-second", "t", t0.Add(500*time.Millisecond))))
	require.NoError(t, s.Save(ctx, report("one-micro", "t", t0.Add(time.Microsecond))))

	entries, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"half-second", "one-micro", "whole-second"},
		[]string{entries[0].RunID, entries[1].RunID, entries[2].RunID})
	assert.True(t, entries[0].GeneratedAt.Equal(t0.Add(500*time.Millisecond)))
}

func TestListEmpty(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, report("run-1", "topic", t0, "a", "b")))

	require.NoError(t, s.Delete(ctx, "run-1"))
	_, err := s.Load(ctx, "run-1")
	assert.ErrorIs(t, err, ErrNotFound)

	var orphans int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM report_papers`).Scan(&orphans))
	assert.Zero(t, orphans)

	assert.ErrorIs(t, s.Delete(ctx, "run-1"), ErrNotFound)
}

func TestInMemoryStore(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, report("run-1", "topic", t0, "a")))
	got, err := s.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "topic", got.Topic)
}

func TestReopenKeepsReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), report("run-1", "topic", t0, "a")))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	entries, err := s2.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
