// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keywords

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/pdiddy/research-digest/internal/completion"
	"github.com/pdiddy/research-digest/pkg/types"
)

type countingLimiter struct{ waits int }

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits++
	return ctx.Err()
}

func replyWith(text string, err error) completion.Func {
	return func(context.Context, string) (string, error) { return text, err }
}

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want types.KeywordSet
	}{
		{"simple list", "graph neural networks, GNN, message passing", types.KeywordSet{"graph neural networks", "GNN", "message passing"}},
		{"blank segments dropped", " a ,, ,b,", types.KeywordSet{"a", "b"}},
		{"duplicates after trim dropped", "GNN, GNN ,gnn", types.KeywordSet{"GNN", "gnn"}},
		{"entirely blank", "  ,  , ", types.KeywordSet{}},
		{"empty", "", types.KeywordSet{}},
		{"no commas", "transformers", types.KeywordSet{"transformers"}},
		{"newlines inside segment trimmed", "\nattention\n, rnn", types.KeywordSet{"attention", "rnn"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKeywords(tt.in))
		})
	}
}

func TestParseKeywordsProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		segs := rapid.SliceOf(rapid.StringMatching(`[ a-zA-Z\t]{0,8}`)).Draw(t, "segments")
		kws := ParseKeywords(strings.Join(segs, ","))

		seen := map[string]bool{}
		for _, kw := range kws {
			if kw == "" || strings.TrimSpace(kw) != kw {
				t.Fatalf("keyword %q is blank or untrimmed", kw)
			}
			if seen[kw] {
				t.Fatalf("duplicate keyword %q", kw)
			}
			seen[kw] = true
		}

		// Every non-blank segment is represented.
		for _, s := range segs {
			if trimmed := strings.TrimSpace(s); trimmed != "" && !seen[trimmed] {
				t.Fatalf("segment %q missing from %v", s, kws)
			}
		}
	})
}

func TestExpand(t *testing.T) {
	var gotPrompt string
	client := completion.Func(func(_ context.Context, p string) (string, error) {
		gotPrompt = p
		return "graph neural networks, GNN, message passing", nil
	})
	lim := &countingLimiter{}

	e := &Expander{Client: client, Limiter: lim}
	kws, err := e.Expand(context.Background(), "graph neural networks")
	require.NoError(t, err)

	assert.Equal(t, types.KeywordSet{"graph neural networks", "GNN", "message passing"}, kws)
	assert.Contains(t, gotPrompt, "Expand and suggest related academic keywords for: graph neural networks")
	assert.Equal(t, 1, lim.waits)
}

func TestExpandBlankReplyIsEmptySet(t *testing.T) {
	e := &Expander{Client: replyWith("   ", nil)}
	kws, err := e.Expand(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, kws)
}

func TestExpandPropagatesServiceError(t *testing.T) {
	boom := errors.New("connection reset")
	e := &Expander{Client: replyWith("", boom)}
	_, err := e.Expand(context.Background(), "topic")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestExpandCancelledBeforeCall(t *testing.T) {
	called := false
	client := completion.Func(func(context.Context, string) (string, error) {
		called = true
		return "x", nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Expander{Client: client, Limiter: &countingLimiter{}}
	_, err := e.Expand(ctx, "topic")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
