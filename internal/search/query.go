package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams defines parameters for a paper search.
type SearchParams struct {
	Query      string   // Free-text query across title, abstract, authors
	Categories []string // Filter to papers carrying any of these arXiv categories
	Limit      int      // Max results (default 20, max 100)
	Offset     int      // Pagination offset
	SortBy     string   // "relevance" (default) or "recent"
}

// SearchHit is a single search result.
type SearchHit struct {
	ID         int64               `json:"id"`
	ArxivID    string              `json:"arxivId"`
	Title      string              `json:"title"`
	Authors    []string            `json:"authors"`
	Categories []string            `json:"categories"`
	Score      float64             `json:"score"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// SearchResult contains search hits plus pagination metadata.
type SearchResult struct {
	Hits     []SearchHit   `json:"hits"`
	Total    uint64        `json:"total"`
	Took     time.Duration `json:"took"`
	MaxScore float64       `json:"maxScore"`
}

// Search executes a search query against the index.
func (s *Index) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Apply defaults and limits
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.Fields = []string{"arxiv_id", "title", "authors", "categories"}

	// Highlight matched terms in title and authors
	searchRequest.Highlight = bleve.NewHighlightWithStyle("html")
	searchRequest.Highlight.AddField("title")
	searchRequest.Highlight.AddField("authors")

	addSorting(searchRequest, params.SortBy)

	result, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]SearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			// Skip documents with malformed ids rather than failing the search
			continue
		}

		sh := SearchHit{
			ID:         id,
			ArxivID:    stringField(hit.Fields, "arxiv_id"),
			Title:      stringField(hit.Fields, "title"),
			Authors:    stringSliceField(hit.Fields, "authors"),
			Categories: stringSliceField(hit.Fields, "categories"),
			Score:      hit.Score,
		}

		if len(hit.Fragments) > 0 {
			sh.Highlights = hit.Fragments
		}

		hits = append(hits, sh)
	}

	return &SearchResult{
		Hits:     hits,
		Total:    result.Total,
		Took:     result.Took,
		MaxScore: result.MaxScore,
	}, nil
}

// buildSearchQuery constructs the Bleve query from search parameters.
//
// Text matching uses a disjunction across title (boosted), abstract, and
// authors, plus a fuzzy variant for typo tolerance and a prefix variant
// so partial words match while typing.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	text := strings.TrimSpace(params.Query)
	if text != "" {
		textQueries := []query.Query{}

		// Title matches rank highest
		titleQuery := bleve.NewMatchQuery(text)
		titleQuery.SetField("title")
		titleQuery.SetBoost(3.0)
		textQueries = append(textQueries, titleQuery)

		abstractQuery := bleve.NewMatchQuery(text)
		abstractQuery.SetField("abstract")
		textQueries = append(textQueries, abstractQuery)

		authorsQuery := bleve.NewMatchQuery(text)
		authorsQuery.SetField("authors")
		authorsQuery.SetBoost(2.0)
		textQueries = append(textQueries, authorsQuery)

		// Diacritic-folded author names ("schrodinger" finds "Schrödinger")
		foldedQuery := bleve.NewMatchQuery(FoldDiacritics(text))
		foldedQuery.SetField("authors_folded")
		foldedQuery.SetBoost(2.0)
		textQueries = append(textQueries, foldedQuery)

		// Typo tolerance: allow edit distance of 1
		fuzzyTitle := bleve.NewMatchQuery(text)
		fuzzyTitle.SetField("title")
		fuzzyTitle.SetFuzziness(1)
		textQueries = append(textQueries, fuzzyTitle)

		// Prefix matching for incremental queries
		if len(text) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(text))
			prefixQuery.SetField("title")
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Categories) > 0 {
		categoryQueries := make([]query.Query, 0, len(params.Categories))
		for _, cat := range params.Categories {
			tq := bleve.NewTermQuery(cat)
			tq.SetField("categories")
			categoryQueries = append(categoryQueries, tq)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(categoryQueries...))
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting applies sort order to the search request.
func addSorting(req *bleve.SearchRequest, sortBy string) {
	switch sortBy {
	case "recent":
		req.SortBy([]string{"-published_at", "-_score"})
	default:
		// Relevance with recency tiebreak
		req.SortBy([]string{"-_score", "-published_at"})
	}
}

// stringField extracts a string field from search hit fields.
func stringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

// stringSliceField extracts a string slice field; Bleve returns a bare
// string when the stored field has a single value.
func stringSliceField(fields map[string]interface{}, name string) []string {
	switch v := fields[name].(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
