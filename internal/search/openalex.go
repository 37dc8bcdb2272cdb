// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/research-digest/internal/httputil"
	"github.com/pdiddy/research-digest/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexBackend queries the OpenAlex API.
type OpenAlexBackend struct {
	Client    *http.Client
	UserAgent string
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// Search queries OpenAlex for keyword and returns up to limit records.
func (b *OpenAlexBackend) Search(ctx context.Context, keyword string, limit int) ([]types.PaperRecord, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	if limit > 200 {
		limit = 200
	}

	params := url.Values{
		"search":   {keyword},
		"per_page": {fmt.Sprintf("%d", limit)},
		"page":     {"1"},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	var oar openAlexResponse
	if err := httputil.GetJSON(ctx, b.Client, openAlexSearchBase+"?"+params.Encode(), b.UserAgent, "OpenAlex API", nil, &oar); err != nil {
		return nil, err
	}

	records := []types.PaperRecord{}
	for _, work := range oar.Results {
		r := types.PaperRecord{
			Title:         work.Title,
			Abstract:      reconstructAbstract(work.AbstractInvertedIndex),
			Year:          work.PublicationYear,
			CitationCount: max(work.CitedByCount, 0),
			Keyword:       keyword,
			Source:        "openalex",
		}
		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName != "" {
				r.Authors = append(r.Authors, authorship.Author.DisplayName)
			}
		}

		// Prefer DOI as identifier since OpenAlex is DOI-centric.
		switch {
		case work.DOI != "":
			r.ExternalID = "doi:" + strings.TrimPrefix(work.DOI, "https://doi.org/")
			r.URL = work.DOI
		case work.ID != "":
			r.ExternalID = "openalex:" + strings.TrimPrefix(work.ID, "https://openalex.org/")
			r.URL = work.ID
		}
		if work.PrimaryLocation.LandingPageURL != "" {
			r.URL = work.PrimaryLocation.LandingPageURL
		}

		records = append(records, r)
	}
	return records, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexLocation struct {
	LandingPageURL string `json:"landing_page_url"`
}
