// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/research-digest/internal/completion"
	"github.com/pdiddy/research-digest/internal/logging"
	"github.com/pdiddy/research-digest/internal/metrics"
	"github.com/pdiddy/research-digest/internal/ratelimit"
	"github.com/pdiddy/research-digest/pkg/types"
)

// NeutralScore is substituted when a relevance reply cannot be used.
const NeutralScore = types.DefaultNeutralScore

var scorePromptTmpl = template.Must(template.New("score").Parse(
	`Given the keywords {{.Keywords}}, rate the relevance (0-1) of this paper: {{.Title}} - {{.Abstract}}
Reply with only the number.`))

// Scorer rates one paper at a time through the completion service.
type Scorer struct {
	Client  completion.Client
	Limiter ratelimit.Limiter

	// Neutral overrides NeutralScore when set. Zero is a valid override.
	Neutral *float64

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Score asks for the relevance of paper to keywords. Service errors and
// unusable replies produce a fallback Score, never an error. The returned
// error is non-nil only when ctx is done.
func (s *Scorer) Score(ctx context.Context, paper types.PaperRecord, keywords types.KeywordSet) (types.Score, error) {
	neutral := s.neutral()

	prompt, err := renderScorePrompt(paper, keywords)
	if err != nil {
		return fallback(neutral, "rendering prompt: "+err.Error()), nil
	}

	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return types.Score{}, err
		}
	}

	reply, err := s.Client.Complete(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.Score{}, ctxErr
		}
		s.Metrics.RecordCompletion("rank", "error")
		return s.recordFallback(paper, fallback(neutral, "completion failed: "+err.Error())), nil
	}
	s.Metrics.RecordCompletion("rank", "ok")

	score := ParseScore(reply, neutral)
	if score.IsFallback() {
		return s.recordFallback(paper, score), nil
	}
	return score, nil
}

func (s *Scorer) recordFallback(paper types.PaperRecord, score types.Score) types.Score {
	s.Metrics.RecordFallback()
	logging.OrNop(s.Logger).Warn("relevance score fell back to neutral default",
		zap.String("paper", paper.ExternalID),
		zap.Float64("score", score.Value),
		zap.String("reason", score.Reason))
	return score
}

func (s *Scorer) neutral() float64 {
	if s.Neutral != nil {
		return *s.Neutral
	}
	return NeutralScore
}

// ParseScore reads a relevance reply. The trimmed reply must be a finite
// number in [0,1]; anything else yields a fallback Score with value neutral.
func ParseScore(reply string, neutral float64) types.Score {
	text := strings.TrimSpace(reply)
	v, err := strconv.ParseFloat(text, 64)
	switch {
	case err != nil:
		return fallback(neutral, fmt.Sprintf("non-numeric reply %q", truncate(text, 40)))
	case math.IsNaN(v) || math.IsInf(v, 0):
		return fallback(neutral, fmt.Sprintf("non-finite reply %q", text))
	case v < 0 || v > 1:
		return fallback(neutral, fmt.Sprintf("reply %g outside [0,1]", v))
	}
	return types.Score{Value: v, Outcome: types.ScoreParsed}
}

func fallback(neutral float64, reason string) types.Score {
	return types.Score{Value: neutral, Outcome: types.ScoreFallback, Reason: reason}
}

func renderScorePrompt(paper types.PaperRecord, keywords types.KeywordSet) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Keywords string
		Title    string
		Abstract string
	}{
		Keywords: "[" + strings.Join(keywords, ", ") + "]",
		Title:    paper.Title,
		Abstract: paper.Abstract,
	}
	if err := scorePromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// truncate shortens s to at most max runes, cutting on a rune boundary.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
