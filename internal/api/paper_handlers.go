package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	"github.com/paperdeckapp/paperdeck-server/internal/search"
)

func (s *Server) registerPaperRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTopRecentPapers",
		Method:      http.MethodGet,
		Path:        "/api/v1/papers/top",
		Summary:     "Top recent papers",
		Description: "Returns the most recently published papers in the catalog",
		Tags:        []string{"Papers"},
	}, s.handleTopRecentPapers)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchPapers",
		Method:      http.MethodGet,
		Path:        "/api/v1/papers/search",
		Summary:     "Search papers",
		Description: "Full-text search over titles, abstracts, and authors",
		Tags:        []string{"Papers"},
	}, s.handleSearchPapers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPaper",
		Method:      http.MethodGet,
		Path:        "/api/v1/papers/{id}",
		Summary:     "Get paper",
		Description: "Returns a paper by its numeric ID",
		Tags:        []string{"Papers"},
	}, s.handleGetPaper)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPaperByArxivID",
		Method:      http.MethodGet,
		Path:        "/api/v1/papers/arxiv/{arxivId}",
		Summary:     "Get paper by arXiv ID",
		Description: "Returns a paper by arXiv ID, importing it from arXiv on first access",
		Tags:        []string{"Papers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetPaperByArxivID)
}

// === DTOs ===

// PaperResponse contains paper data in API responses.
type PaperResponse struct {
	ID          int64     `json:"id" doc:"Numeric paper ID"`
	ArxivID     string    `json:"arxiv_id" doc:"arXiv identifier"`
	Title       string    `json:"title" doc:"Paper title"`
	Abstract    string    `json:"abstract" doc:"Paper abstract"`
	Authors     []string  `json:"authors" doc:"Author names in publication order"`
	Categories  []string  `json:"categories" doc:"arXiv categories"`
	PublishedAt time.Time `json:"published_at" doc:"First arXiv publication time"`
	RevisedAt   time.Time `json:"revised_at" doc:"Latest arXiv revision time"`
	AbsURL      string    `json:"abs_url" doc:"arXiv abstract page URL"`
	PDFURL      string    `json:"pdf_url" doc:"arXiv PDF URL"`
}

// GetPaperInput contains parameters for fetching a paper by ID.
type GetPaperInput struct {
	ID int64 `path:"id" doc:"Numeric paper ID"`
}

// PaperOutput wraps a single paper response for Huma.
type PaperOutput struct {
	Body PaperResponse
}

// GetPaperByArxivIDInput contains parameters for fetching a paper by arXiv ID.
type GetPaperByArxivIDInput struct {
	Authorization string `header:"Authorization"`
	ArxivID       string `path:"arxivId" doc:"arXiv identifier, version suffix allowed"`
}

// TopRecentPapersInput contains parameters for the top-recent listing.
type TopRecentPapersInput struct {
	Limit int `query:"limit" doc:"Maximum papers to return (default 20, max 100)"`
}

// PaperListResponse contains a list of papers.
type PaperListResponse struct {
	Papers []PaperResponse `json:"papers" doc:"Papers, newest first"`
}

// PaperListOutput wraps the paper list response for Huma.
type PaperListOutput struct {
	Body PaperListResponse
}

// SearchPapersInput contains full-text search parameters.
type SearchPapersInput struct {
	Query    string   `query:"q" doc:"Search query"`
	Category []string `query:"category" doc:"Restrict to arXiv categories"`
	Limit    int      `query:"limit" doc:"Maximum hits to return (default 20, max 100)"`
	Offset   int      `query:"offset" doc:"Hits to skip for pagination"`
	Sort     string   `query:"sort" doc:"Sort order: relevance (default) or recent"`
}

// SearchHitResponse contains one search hit.
type SearchHitResponse struct {
	ID         int64               `json:"id" doc:"Numeric paper ID"`
	ArxivID    string              `json:"arxiv_id" doc:"arXiv identifier"`
	Title      string              `json:"title" doc:"Paper title"`
	Authors    []string            `json:"authors" doc:"Author names"`
	Categories []string            `json:"categories" doc:"arXiv categories"`
	Score      float64             `json:"score" doc:"Relevance score"`
	Highlights map[string][]string `json:"highlights,omitempty" doc:"Highlighted fragments per field"`
}

// SearchPapersResponse contains search results.
type SearchPapersResponse struct {
	Hits  []SearchHitResponse `json:"hits" doc:"Matching papers"`
	Total uint64              `json:"total" doc:"Total matches"`
	Took  string              `json:"took" doc:"Search duration"`
}

// SearchPapersOutput wraps the search response for Huma.
type SearchPapersOutput struct {
	Body SearchPapersResponse
}

// === Handlers ===

func (s *Server) handleTopRecentPapers(ctx context.Context, input *TopRecentPapersInput) (*PaperListOutput, error) {
	papers, err := s.services.Paper.TopRecent(ctx, input.Limit)
	if err != nil {
		return nil, err
	}

	resp := make([]PaperResponse, len(papers))
	for i, p := range papers {
		resp[i] = mapPaperResponse(p)
	}

	return &PaperListOutput{Body: PaperListResponse{Papers: resp}}, nil
}

func (s *Server) handleSearchPapers(ctx context.Context, input *SearchPapersInput) (*SearchPapersOutput, error) {
	result, err := s.services.Paper.Search(ctx, search.SearchParams{
		Query:      input.Query,
		Categories: input.Category,
		Limit:      input.Limit,
		Offset:     input.Offset,
		SortBy:     input.Sort,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResponse, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResponse{
			ID:         h.ID,
			ArxivID:    h.ArxivID,
			Title:      h.Title,
			Authors:    h.Authors,
			Categories: h.Categories,
			Score:      h.Score,
			Highlights: h.Highlights,
		}
	}

	return &SearchPapersOutput{
		Body: SearchPapersResponse{
			Hits:  hits,
			Total: result.Total,
			Took:  result.Took.String(),
		},
	}, nil
}

func (s *Server) handleGetPaper(ctx context.Context, input *GetPaperInput) (*PaperOutput, error) {
	p, err := s.services.Paper.GetPaper(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &PaperOutput{Body: mapPaperResponse(p)}, nil
}

func (s *Server) handleGetPaperByArxivID(ctx context.Context, input *GetPaperByArxivIDInput) (*PaperOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	p, err := s.services.Paper.GetPaperByArxivID(ctx, input.ArxivID)
	if err != nil {
		return nil, err
	}

	return &PaperOutput{Body: mapPaperResponse(p)}, nil
}

// === Helpers ===

func mapPaperResponse(p *domain.Paper) PaperResponse {
	return PaperResponse{
		ID:          p.ID,
		ArxivID:     p.ArxivID,
		Title:       p.Title,
		Abstract:    p.Abstract,
		Authors:     p.Authors,
		Categories:  p.Categories,
		PublishedAt: p.PublishedAt,
		RevisedAt:   p.RevisedAt,
		AbsURL:      p.AbsURL(),
		PDFURL:      p.PDFURL(),
	}
}
