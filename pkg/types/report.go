// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-digest pipeline:
// keyword sets, paper records, scores, summaries, the final Report, and
// the configuration of every stage.
package types

import "time"

// Report is the terminal artifact of one pipeline run. Renderers read it
// but never modify it.
type Report struct {
	// RunID uniquely identifies the run that produced the report.
	RunID string `json:"run_id" yaml:"run_id"`

	// Topic is the caller-supplied topic.
	Topic string `json:"topic" yaml:"topic"`

	// Keywords is the expanded keyword set.
	Keywords KeywordSet `json:"keywords" yaml:"keywords"`

	// TopicSummary restates the expanded keywords.
	TopicSummary string `json:"topic_summary" yaml:"topic_summary"`

	// SummarizedPapers holds at most TopN papers in ranking order.
	SummarizedPapers []SummarizedPaper `json:"summarized_papers" yaml:"summarized_papers"`

	// ComparativeAnalysis is the free-text cross-paper analysis.
	ComparativeAnalysis string `json:"comparative_analysis" yaml:"comparative_analysis"`

	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}
