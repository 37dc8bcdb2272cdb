// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pdiddy/research-digest/pkg/types"
)

// BibTeXRenderer writes one @article entry per summarized paper so the
// digest can be cited from LaTeX.
type BibTeXRenderer struct{}

// Format returns "bibtex".
func (BibTeXRenderer) Format() string { return "bibtex" }

// Ext returns ".bib".
func (BibTeXRenderer) Ext() string { return ".bib" }

// Write renders the report papers as BibTeX.
func (BibTeXRenderer) Write(w io.Writer, report *types.Report) error {
	_, err := io.WriteString(w, GenerateBibTeX(report.SummarizedPapers))
	return err
}

// GenerateBibTeX produces BibTeX content for papers in report order.
// Repeated citation keys get a letter suffix (Smith2020, Smith2020b).
func GenerateBibTeX(papers []types.SummarizedPaper) string {
	var b strings.Builder
	seen := map[string]int{}
	for _, p := range papers {
		key := CitationKey(p)
		seen[key]++
		if n := seen[key]; n > 1 {
			key += string(rune('a' + n - 1))
		}

		fmt.Fprintf(&b, "@article{%s,\n", key)
		fmt.Fprintf(&b, "  title = {%s},\n", Sanitize(p.Title))
		if len(p.Authors) > 0 {
			fmt.Fprintf(&b, "  author = {%s},\n", Sanitize(strings.Join(p.Authors, " and ")))
		}
		if p.Year > 0 {
			fmt.Fprintf(&b, "  year = {%d},\n", p.Year)
		}
		if p.URL != "" {
			fmt.Fprintf(&b, "  url = {%s},\n", p.URL)
		}
		fmt.Fprintf(&b, "}\n\n")
	}
	return b.String()
}

// CitationKey builds an AuthorYear key from the first author's last name.
// Papers without authors fall back to the first title word.
func CitationKey(p types.SummarizedPaper) string {
	base := ""
	if len(p.Authors) > 0 {
		parts := strings.Fields(Sanitize(p.Authors[0]))
		if len(parts) > 0 {
			base = parts[len(parts)-1]
		}
	}
	if base == "" {
		if parts := strings.Fields(Sanitize(p.Title)); len(parts) > 0 {
			base = parts[0]
		}
	}
	base = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, base)
	if base == "" {
		base = "Paper"
	}
	if p.Year > 0 {
		return fmt.Sprintf("%s%d", base, p.Year)
	}
	return base
}
