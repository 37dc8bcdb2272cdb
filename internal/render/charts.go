// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-digest/pkg/types"
)

const defaultTopWords = 50

// ChartData is the data behind the report visualizations: a citations
// bar chart, a publication-year histogram, and a word cloud of the
// comparative analysis.
type ChartData struct {
	RunID     string          `yaml:"run_id"`
	Citations []CitationBar   `yaml:"citations"`
	Years     []YearBucket    `yaml:"years"`
	WordCloud []WordFrequency `yaml:"word_cloud"`
}

// CitationBar is one bar of the citations-per-paper chart.
type CitationBar struct {
	Title     string `yaml:"title"`
	Citations int    `yaml:"citations"`
}

// YearBucket counts papers published in one year.
type YearBucket struct {
	Year   int `yaml:"year"`
	Papers int `yaml:"papers"`
}

// WordFrequency is one word of the word cloud.
type WordFrequency struct {
	Word  string `yaml:"word"`
	Count int    `yaml:"count"`
}

// ChartRenderer writes ChartData as YAML.
type ChartRenderer struct {
	// TopWords caps the word cloud. Zero keeps every word.
	TopWords int
}

// Format returns "charts".
func (ChartRenderer) Format() string { return "charts" }

// Ext returns ".charts.yaml".
func (ChartRenderer) Ext() string { return ".charts.yaml" }

// Write encodes the chart data of report.
func (c ChartRenderer) Write(w io.Writer, report *types.Report) error {
	data := BuildCharts(report, c.TopWords)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding chart data: %w", err)
	}
	return enc.Close()
}

// BuildCharts derives chart data from report. Citation bars follow report
// order, years ascend, and words are ordered by count then alphabetically.
func BuildCharts(report *types.Report, topWords int) ChartData {
	data := ChartData{
		RunID:     report.RunID,
		Citations: []CitationBar{},
		Years:     []YearBucket{},
	}

	years := map[int]int{}
	for _, p := range report.SummarizedPapers {
		data.Citations = append(data.Citations, CitationBar{Title: Sanitize(p.Title), Citations: p.CitationCount})
		if p.Year > 0 {
			years[p.Year]++
		}
	}
	for y, n := range years {
		data.Years = append(data.Years, YearBucket{Year: y, Papers: n})
	}
	sort.Slice(data.Years, func(i, j int) bool { return data.Years[i].Year < data.Years[j].Year })

	data.WordCloud = WordFrequencies(report.ComparativeAnalysis, topWords)
	return data
}

var stopWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`a about above after all also an and any are as at be been both but
		by can could do does each for from had has have how however in into is it its may more most
		no not of on one or other over paper papers such than that the their them then there these
		they this those through to two under use used uses using was we were what when where which
		while who will with within would`) {
		stopWords[w] = true
	}
}

// WordFrequencies counts words of text for a word cloud. Words are
// lowercased, stop words and one-letter tokens are dropped, and at most
// limit entries are returned when limit is positive.
func WordFrequencies(text string, limit int) []WordFrequency {
	counts := map[string]int{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(Sanitize(text)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		tok = strings.Trim(tok, "-")
		if len(tok) < 2 || stopWords[tok] {
			continue
		}
		counts[tok]++
	}

	out := make([]WordFrequency, 0, len(counts))
	for w, n := range counts {
		out = append(out, WordFrequency{Word: w, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
