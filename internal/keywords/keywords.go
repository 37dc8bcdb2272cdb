// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keywords expands a free-text topic into related search terms
// with one call to the completion service.
package keywords

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/research-digest/internal/completion"
	"github.com/pdiddy/research-digest/internal/logging"
	"github.com/pdiddy/research-digest/internal/metrics"
	"github.com/pdiddy/research-digest/internal/ratelimit"
	"github.com/pdiddy/research-digest/pkg/types"
)

var expandPromptTmpl = template.Must(template.New("expand").Parse(
	`Expand and suggest related academic keywords for: {{.Topic}}
Reply with a single comma-separated list of keywords and nothing else.`))

// Expander turns a topic into a KeywordSet.
type Expander struct {
	Client  completion.Client
	Limiter ratelimit.Limiter
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Expand issues one completion call for topic and parses the reply.
// A reply with no usable segment yields an empty KeywordSet and no error.
// Completion failures are returned as-is, wrapped with context.
func (e *Expander) Expand(ctx context.Context, topic string) (types.KeywordSet, error) {
	logger := logging.OrNop(e.Logger)

	prompt, err := renderPrompt(topic)
	if err != nil {
		return nil, fmt.Errorf("rendering expansion prompt: %w", err)
	}

	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reply, err := e.Client.Complete(ctx, prompt)
	if err != nil {
		e.Metrics.RecordCompletion("expand", "error")
		return nil, fmt.Errorf("expanding keywords for %q: %w", topic, err)
	}
	e.Metrics.RecordCompletion("expand", "ok")

	kws := ParseKeywords(reply)
	logger.Debug("expanded topic", zap.String("topic", topic), zap.Strings("keywords", kws))
	if len(kws) == 0 {
		logger.Warn("keyword expansion returned no usable terms", zap.String("topic", topic))
	}
	return kws, nil
}

// ParseKeywords splits text on commas, trims each segment, and drops blank
// and repeated segments. The first occurrence of a repeated term wins.
func ParseKeywords(text string) types.KeywordSet {
	seen := make(map[string]bool)
	kws := types.KeywordSet{}
	for _, part := range strings.Split(text, ",") {
		kw := strings.TrimSpace(part)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		kws = append(kws, kw)
	}
	return kws
}

func renderPrompt(topic string) (string, error) {
	var buf bytes.Buffer
	if err := expandPromptTmpl.Execute(&buf, struct{ Topic string }{Topic: topic}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
