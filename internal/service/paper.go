package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paperdeckapp/paperdeck-server/internal/arxiv"
	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
	"github.com/paperdeckapp/paperdeck-server/internal/search"
	"github.com/paperdeckapp/paperdeck-server/internal/store"
)

// ArxivFetcher retrieves paper metadata from the arXiv API.
type ArxivFetcher interface {
	FetchByID(ctx context.Context, arxivID string) (*arxiv.Metadata, error)
}

// MetadataCache caches arXiv API responses.
type MetadataCache interface {
	GetMetadata(ctx context.Context, arxivID string) (*arxiv.Metadata, error)
	PutMetadata(ctx context.Context, meta *arxiv.Metadata) error
}

// PaperService serves the paper catalog. Papers unknown to the store
// are fetched from arXiv on demand and persisted.
type PaperService struct {
	store   *store.Store
	fetcher ArxivFetcher
	cache   MetadataCache
	search  *search.Index
	logger  *slog.Logger
}

// NewPaperService creates a new paper service.
func NewPaperService(
	store *store.Store,
	fetcher ArxivFetcher,
	cache MetadataCache,
	searchIndex *search.Index,
	logger *slog.Logger,
) *PaperService {
	return &PaperService{
		store:   store,
		fetcher: fetcher,
		cache:   cache,
		search:  searchIndex,
		logger:  logger,
	}
}

// GetPaper returns a paper by its numeric id.
func (s *PaperService) GetPaper(ctx context.Context, paperID int64) (*domain.Paper, error) {
	paper, err := s.store.GetPaper(ctx, paperID)
	if err != nil {
		if errors.Is(err, store.ErrPaperNotFound) {
			return nil, domainerrors.NotFoundf("paper %d not found", paperID)
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}
	return paper, nil
}

// GetPaperByArxivID returns a paper by its arXiv id, importing it from
// the arXiv API when the store doesn't have it yet.
func (s *PaperService) GetPaperByArxivID(ctx context.Context, arxivID string) (*domain.Paper, error) {
	normalized := domain.NormalizeArxivID(arxivID)
	if normalized == "" {
		return nil, domainerrors.Validation("arXiv id is required")
	}

	paper, err := s.store.GetPaperByArxivID(ctx, normalized)
	if err == nil {
		return paper, nil
	}
	if !errors.Is(err, store.ErrPaperNotFound) {
		return nil, fmt.Errorf("get paper by arXiv id: %w", err)
	}

	meta, err := s.fetchMetadata(ctx, normalized)
	if err != nil {
		return nil, err
	}

	paper, created, err := s.store.FindOrCreatePaperByArxivID(ctx, meta.ToPaper())
	if err != nil {
		return nil, fmt.Errorf("import paper: %w", err)
	}
	if created && s.logger != nil {
		s.logger.Info("imported paper from arXiv", "arxiv_id", normalized, "paper_id", paper.ID)
	}

	return paper, nil
}

// fetchMetadata consults the API-response cache before paying the
// rate-limited arXiv request.
func (s *PaperService) fetchMetadata(ctx context.Context, arxivID string) (*arxiv.Metadata, error) {
	if s.cache != nil {
		meta, err := s.cache.GetMetadata(ctx, arxivID)
		if err == nil {
			return meta, nil
		}
		if !errors.Is(err, arxiv.ErrCacheMiss) && s.logger != nil {
			s.logger.Warn("arXiv metadata cache read failed", "arxiv_id", arxivID, "error", err)
		}
	}

	meta, err := s.fetcher.FetchByID(ctx, arxivID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.PutMetadata(ctx, meta); err != nil && s.logger != nil {
			s.logger.Warn("arXiv metadata cache write failed", "arxiv_id", arxivID, "error", err)
		}
	}

	return meta, nil
}

// TopRecent returns the most recently published papers in the store.
func (s *PaperService) TopRecent(ctx context.Context, limit int) ([]*domain.Paper, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	papers, err := s.store.ListRecentPapers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent papers: %w", err)
	}
	return papers, nil
}

// Search runs a full-text search over indexed papers.
func (s *PaperService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	result, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search papers: %w", err)
	}
	return result, nil
}
