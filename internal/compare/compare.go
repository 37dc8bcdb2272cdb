// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compare produces a cross-paper comparative analysis from a set
// of summaries with one completion call.
package compare

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/research-digest/internal/completion"
	"github.com/pdiddy/research-digest/internal/logging"
	"github.com/pdiddy/research-digest/internal/metrics"
	"github.com/pdiddy/research-digest/internal/ratelimit"
	"github.com/pdiddy/research-digest/pkg/types"
)

// NoPapersAnalysis is the analysis reported when there is nothing to compare.
const NoPapersAnalysis = "No papers were available for comparison."

var comparePromptTmpl = template.Must(template.New("compare").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(
	`Compare the following research papers and identify common findings, contradictory insights, and research gaps:
{{range $i, $p := .}}
Paper {{inc $i}}: {{$p.Title}}
Summary: {{$p.Summary.Text}}
{{end}}
Provide a structured comparative analysis.`))

// Comparator issues the comparison call.
type Comparator struct {
	Client  completion.Client
	Limiter ratelimit.Limiter
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Compare returns the raw analysis text for papers. An empty input yields
// NoPapersAnalysis without contacting the service.
func (c *Comparator) Compare(ctx context.Context, papers []types.SummarizedPaper) (string, error) {
	logger := logging.OrNop(c.Logger)
	if len(papers) == 0 {
		logger.Info("no papers to compare")
		return NoPapersAnalysis, nil
	}

	prompt, err := Prompt(papers)
	if err != nil {
		return "", fmt.Errorf("rendering comparison prompt: %w", err)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	reply, err := c.Client.Complete(ctx, prompt)
	if err != nil {
		c.Metrics.RecordCompletion("compare", "error")
		return "", fmt.Errorf("comparing %d papers: %w", len(papers), err)
	}
	c.Metrics.RecordCompletion("compare", "ok")
	logger.Debug("comparative analysis received", zap.Int("papers", len(papers)), zap.Int("chars", len(reply)))
	return reply, nil
}

// Prompt renders the comparison prompt listing every summary in order.
func Prompt(papers []types.SummarizedPaper) (string, error) {
	var buf bytes.Buffer
	if err := comparePromptTmpl.Execute(&buf, papers); err != nil {
		return "", err
	}
	return buf.String(), nil
}
