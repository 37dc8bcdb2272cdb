// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/research-digest/internal/httputil"
	"github.com/pdiddy/research-digest/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,citationCount,url"

// SemanticScholarBackend queries the Semantic Scholar API.
type SemanticScholarBackend struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search queries Semantic Scholar for keyword and returns up to limit records.
func (b *SemanticScholarBackend) Search(ctx context.Context, keyword string, limit int) ([]types.PaperRecord, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	params := url.Values{
		"query":  {keyword},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {semanticFields},
	}

	var headers map[string]string
	if b.APIKey != "" {
		headers = map[string]string{"x-api-key": b.APIKey}
	}

	var sr semanticResponse
	if err := httputil.GetJSON(ctx, b.Client, semanticAPIBase+"?"+params.Encode(), b.UserAgent, "Semantic Scholar API", headers, &sr); err != nil {
		return nil, err
	}

	records := []types.PaperRecord{}
	for _, paper := range sr.Data {
		r := types.PaperRecord{
			Title:         paper.Title,
			Abstract:      paper.Abstract,
			Year:          paper.Year,
			CitationCount: max(paper.CitationCount, 0),
			URL:           paper.URL,
			Keyword:       keyword,
			Source:        "semantic_scholar",
		}
		for _, a := range paper.Authors {
			r.Authors = append(r.Authors, a.Name)
		}

		// Prefer arXiv ID, then DOI, then the S2 paper ID.
		switch {
		case paper.ExternalIDs.ArXiv != "":
			r.ExternalID = "arxiv:" + paper.ExternalIDs.ArXiv
		case paper.ExternalIDs.DOI != "":
			r.ExternalID = "doi:" + paper.ExternalIDs.DOI
		default:
			r.ExternalID = "s2:" + paper.PaperID
		}

		records = append(records, r)
	}
	return records, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	CitationCount int                 `json:"citationCount"`
	URL           string              `json:"url"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
