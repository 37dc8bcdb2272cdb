// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// KeywordSet is the ordered, deduplicated list of search terms derived
// from a topic. Order follows the order emitted by the expansion call.
type KeywordSet []string

// PaperRecord holds the metadata of one candidate paper as returned by a
// search backend. One record is created per (keyword, result slot) pair, so
// the same paper found under two keywords yields two records.
type PaperRecord struct {
	// Title is the paper title as returned by the backend.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Year is the publication year (0 when unknown).
	Year int `json:"year" yaml:"year"`

	// CitationCount is the number of citations reported by the backend.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// ExternalID is the backend identifier (arXiv ID, DOI, OpenAlex ID).
	ExternalID string `json:"external_id" yaml:"external_id"`

	// URL links to the paper landing page.
	URL string `json:"url" yaml:"url"`

	// Keyword is the expanded keyword whose query produced this record.
	Keyword string `json:"keyword" yaml:"keyword"`

	// Source identifies which backend found this record (e.g. "arxiv").
	Source string `json:"source" yaml:"source"`
}

// ScoreOutcome records how a relevance score was obtained.
type ScoreOutcome string

const (
	// ScoreParsed means the completion service replied with a usable number.
	ScoreParsed ScoreOutcome = "parsed"
	// ScoreFallback means the neutral default was substituted.
	ScoreFallback ScoreOutcome = "fallback"
)

// Score is the result of rating one paper against a keyword set.
type Score struct {
	Value   float64      `json:"value" yaml:"value"`
	Outcome ScoreOutcome `json:"outcome" yaml:"outcome"`

	// Reason explains a fallback. Empty when Outcome is ScoreParsed.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// IsFallback reports whether the neutral default was used.
func (s Score) IsFallback() bool {
	return s.Outcome == ScoreFallback
}

// ScoredPaper is a PaperRecord with its relevance score attached.
type ScoredPaper struct {
	PaperRecord `yaml:",inline"`

	// RelevanceScore is nominally in [0,1]; unusable replies are replaced
	// by the neutral default before they get here.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// ScoreOutcome tells parsed scores apart from fallbacks.
	ScoreOutcome ScoreOutcome `json:"score_outcome" yaml:"score_outcome"`

	// FallbackReason is set when ScoreOutcome is ScoreFallback.
	FallbackReason string `json:"fallback_reason,omitempty" yaml:"fallback_reason,omitempty"`
}

// Summary is the structured output of summarizing one paper.
//
// Methodology, Contributions and Limitations are extension points for a
// structured-extraction step that does not exist yet. They stay nil until
// something populates them; renderers must treat nil as "not extracted".
type Summary struct {
	Text          string  `json:"text" yaml:"text"`
	Methodology   *string `json:"methodology,omitempty" yaml:"methodology,omitempty"`
	Contributions *string `json:"contributions,omitempty" yaml:"contributions,omitempty"`
	Limitations   *string `json:"limitations,omitempty" yaml:"limitations,omitempty"`
}

// SummarizedPaper is the projection of a ranked paper carried into the report.
type SummarizedPaper struct {
	Title          string   `json:"title" yaml:"title"`
	Authors        []string `json:"authors" yaml:"authors"`
	Year           int      `json:"year" yaml:"year"`
	CitationCount  int      `json:"citation_count" yaml:"citation_count"`
	URL            string   `json:"url" yaml:"url"`
	RelevanceScore float64  `json:"relevance_score" yaml:"relevance_score"`
	Summary        Summary  `json:"summary" yaml:"summary"`
}

// NewSummarizedPaper projects a ScoredPaper and its Summary.
func NewSummarizedPaper(p ScoredPaper, s Summary) SummarizedPaper {
	return SummarizedPaper{
		Title:          p.Title,
		Authors:        p.Authors,
		Year:           p.Year,
		CitationCount:  p.CitationCount,
		URL:            p.URL,
		RelevanceScore: p.RelevanceScore,
		Summary:        s,
	}
}
