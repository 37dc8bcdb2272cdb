// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"io"
	"strings"
	"text/template"

	"github.com/pdiddy/research-digest/pkg/types"
)

var markdownTmpl = template.Must(template.New("markdown").Funcs(template.FuncMap{
	"clean": Sanitize,
	"join":  func(s []string) string { return Sanitize(strings.Join(s, ", ")) },
	"inc":   func(i int) int { return i + 1 },
	"score": func(f float64) string { return formatScore(f) },
}).Parse(`# Research Summary

**Topic:** {{clean .Topic}}

{{clean .TopicSummary}}
{{range $i, $p := .SummarizedPapers}}
## Paper {{inc $i}}: {{clean $p.Title}}

- Authors: {{join $p.Authors}}
- Year: {{$p.Year}} | Citations: {{$p.CitationCount}} | Relevance: {{score $p.RelevanceScore}}
{{- if $p.URL}}
- URL: {{clean $p.URL}}
{{- end}}

{{clean $p.Summary.Text}}
{{end}}
## Comparative Analysis

{{clean .ComparativeAnalysis}}

---
Run {{.RunID}} generated {{.GeneratedAt.UTC.Format "2006-01-02 15:04 MST"}}
`))

// MarkdownRenderer writes the report as a readable document.
type MarkdownRenderer struct{}

// Format returns "markdown".
func (MarkdownRenderer) Format() string { return "markdown" }

// Ext returns ".md".
func (MarkdownRenderer) Ext() string { return ".md" }

// Write renders report as Markdown.
func (MarkdownRenderer) Write(w io.Writer, report *types.Report) error {
	return markdownTmpl.Execute(w, report)
}
