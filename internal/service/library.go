package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	"github.com/paperdeckapp/paperdeck-server/internal/store"
)

// LibraryService manages users' personal paper libraries.
type LibraryService struct {
	store  *store.Store
	papers *PaperService
	logger *slog.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(store *store.Store, papers *PaperService, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		store:  store,
		papers: papers,
		logger: logger,
	}
}

// UpsertEntryRequest adds or updates a paper in a user's library.
// Repeated adds update the existing entry in place.
type UpsertEntryRequest struct {
	UserID     string `json:"-" validate:"required"`
	PaperID    int64  `json:"paper_id" validate:"required,gt=0"`
	WantToRead *bool  `json:"want_to_read"` // Omitted keeps the stored flag; false on create
}

// UpsertEntry creates or updates a library entry.
func (s *LibraryService) UpsertEntry(ctx context.Context, req UpsertEntryRequest) (*domain.LibraryEntry, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	// The paper must exist before it can enter a library
	if _, err := s.papers.GetPaper(ctx, req.PaperID); err != nil {
		return nil, err
	}

	entry, err := s.store.UpsertLibraryEntry(ctx, req.UserID, req.PaperID, req.WantToRead)
	if err != nil {
		return nil, fmt.Errorf("upsert library entry: %w", err)
	}

	return entry, nil
}

// GetEntry returns a user's library entry for a paper, or nil when the
// paper is not in their library.
func (s *LibraryService) GetEntry(ctx context.Context, userID string, paperID int64) (*domain.LibraryEntry, error) {
	entry, err := s.store.GetLibraryEntry(ctx, userID, paperID)
	if err != nil {
		if errors.Is(err, store.ErrLibraryEntryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get library entry: %w", err)
	}
	return entry, nil
}

// RemoveEntry deletes a library entry. Removing an absent entry is a no-op.
func (s *LibraryService) RemoveEntry(ctx context.Context, userID string, paperID int64) error {
	if err := s.store.DeleteLibraryEntry(ctx, userID, paperID); err != nil {
		return fmt.Errorf("delete library entry: %w", err)
	}
	return nil
}

// LibraryItem pairs an entry with its paper.
type LibraryItem struct {
	Entry *domain.LibraryEntry `json:"entry"`
	Paper *domain.Paper        `json:"paper"`
}

// GetLibrary returns a user's library, newest entries first, with
// papers hydrated. Entries whose paper has vanished are skipped.
func (s *LibraryService) GetLibrary(ctx context.Context, userID string) ([]LibraryItem, error) {
	entries, err := s.store.ListLibraryEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list library entries: %w", err)
	}

	paperIDs := make([]int64, 0, len(entries))
	for _, e := range entries {
		paperIDs = append(paperIDs, e.PaperID)
	}

	papers, err := s.store.GetPapersByIDs(ctx, paperIDs)
	if err != nil {
		return nil, fmt.Errorf("load library papers: %w", err)
	}

	byID := make(map[int64]*domain.Paper, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
	}

	items := make([]LibraryItem, 0, len(entries))
	for _, e := range entries {
		paper, ok := byID[e.PaperID]
		if !ok {
			continue
		}
		items = append(items, LibraryItem{Entry: e, Paper: paper})
	}

	return items, nil
}
