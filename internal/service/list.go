package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
	"github.com/paperdeckapp/paperdeck-server/internal/id"
	"github.com/paperdeckapp/paperdeck-server/internal/store"
)

// ListService manages shareable paper lists. Every list mutation
// verifies the acting user owns the list; reads honor the public flag.
type ListService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewListService creates a new list service.
func NewListService(store *store.Store, logger *slog.Logger) *ListService {
	return &ListService{
		store:  store,
		logger: logger,
	}
}

// CreateListRequest creates a list, optionally with a first paper.
type CreateListRequest struct {
	UserID      string `json:"-" validate:"required"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Public      bool   `json:"public"`
	PaperID     int64  `json:"paper_id,omitempty" validate:"omitempty,gt=0"`
}

// CreateList creates a list owned by the requesting user.
func (s *ListService) CreateList(ctx context.Context, req CreateListRequest) (*domain.List, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	var paperIDs []int64
	if req.PaperID != 0 {
		if _, err := s.store.GetPaper(ctx, req.PaperID); err != nil {
			if errors.Is(err, store.ErrPaperNotFound) {
				return nil, domainerrors.NotFoundf("paper %d not found", req.PaperID)
			}
			return nil, fmt.Errorf("get paper: %w", err)
		}
		paperIDs = []int64{req.PaperID}
	}

	listID, err := id.Generate("list")
	if err != nil {
		return nil, fmt.Errorf("generate list ID: %w", err)
	}

	now := time.Now()
	list := &domain.List{
		ID:          listID,
		OwnerID:     req.UserID,
		Name:        req.Name,
		Description: req.Description,
		Public:      req.Public,
		PaperIDs:    paperIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateList(ctx, list); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("list created", "list_id", listID, "owner_id", req.UserID, "public", req.Public)
	}

	return list, nil
}

// DeleteList removes a list. Only the owner may delete it.
func (s *ListService) DeleteList(ctx context.Context, userID, listID string) error {
	list, err := s.getOwnedList(ctx, userID, listID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteList(ctx, list.ID); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

// GetList returns a list visible to the viewer. Private lists are
// visible only to their owner; others get an authorization error.
func (s *ListService) GetList(ctx context.Context, viewerID, listID string) (*domain.List, error) {
	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			return nil, domainerrors.NotFoundf("list %s not found", listID)
		}
		return nil, fmt.Errorf("get list: %w", err)
	}

	if !list.VisibleTo(viewerID) {
		return nil, domainerrors.Forbidden("this list is private")
	}

	return list, nil
}

// ListItem pairs a list entry's paper with its position.
type ListItem struct {
	Position int           `json:"position"`
	Paper    *domain.Paper `json:"paper"`
}

// GetListPapers returns the papers of a visible list in list order.
func (s *ListService) GetListPapers(ctx context.Context, viewerID, listID string) (*domain.List, []ListItem, error) {
	list, err := s.GetList(ctx, viewerID, listID)
	if err != nil {
		return nil, nil, err
	}

	papers, err := s.store.GetPapersByIDs(ctx, list.PaperIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load list papers: %w", err)
	}

	items := make([]ListItem, 0, len(papers))
	for i, p := range papers {
		items = append(items, ListItem{Position: i, Paper: p})
	}

	return list, items, nil
}

// GetUserLists returns all lists owned by a user, newest first.
func (s *ListService) GetUserLists(ctx context.Context, userID string) ([]*domain.List, error) {
	lists, err := s.store.ListUserLists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user lists: %w", err)
	}
	return lists, nil
}

// GetUserListsWherePaper returns the user's own lists containing a paper.
func (s *ListService) GetUserListsWherePaper(ctx context.Context, userID string, paperID int64) ([]*domain.List, error) {
	lists, err := s.store.GetUserListsWherePaper(ctx, userID, paperID)
	if err != nil {
		return nil, fmt.Errorf("get user lists for paper: %w", err)
	}
	return lists, nil
}

// AddPaperToList appends a paper to a list the user owns.
// A paper may appear at most once per list; duplicates are a conflict.
func (s *ListService) AddPaperToList(ctx context.Context, userID, listID string, paperID int64) (*domain.List, error) {
	list, err := s.getOwnedList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetPaper(ctx, paperID); err != nil {
		if errors.Is(err, store.ErrPaperNotFound) {
			return nil, domainerrors.NotFoundf("paper %d not found", paperID)
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	if list.ContainsPaper(paperID) {
		return nil, domainerrors.Conflict("paper is already in this list")
	}

	list.AddPaper(paperID)
	list.UpdatedAt = time.Now()

	if err := s.store.UpdateList(ctx, list); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}
	return list, nil
}

// RemovePaperFromList removes a single paper from a list the user owns.
// Removing an absent paper is a no-op.
func (s *ListService) RemovePaperFromList(ctx context.Context, userID, listID string, paperID int64) (*domain.List, error) {
	return s.RemovePapersFromList(ctx, userID, listID, []int64{paperID})
}

// RemovePapersFromList removes multiple papers from a list the user owns.
func (s *ListService) RemovePapersFromList(ctx context.Context, userID, listID string, paperIDs []int64) (*domain.List, error) {
	list, err := s.getOwnedList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	changed := false
	for _, paperID := range paperIDs {
		if list.RemovePaper(paperID) {
			changed = true
		}
	}
	if !changed {
		return list, nil
	}

	list.UpdatedAt = time.Now()
	if err := s.store.UpdateList(ctx, list); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}
	return list, nil
}

// ChangePrivacy flips a list's public flag. Only the owner may do this.
func (s *ListService) ChangePrivacy(ctx context.Context, userID, listID string, public bool) (*domain.List, error) {
	list, err := s.getOwnedList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	if list.Public == public {
		return list, nil
	}

	list.Public = public
	list.UpdatedAt = time.Now()

	if err := s.store.UpdateList(ctx, list); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("list privacy changed", "list_id", listID, "public", public)
	}

	return list, nil
}

// getOwnedList loads a list and verifies the caller owns it.
func (s *ListService) getOwnedList(ctx context.Context, userID, listID string) (*domain.List, error) {
	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			return nil, domainerrors.NotFoundf("list %s not found", listID)
		}
		return nil, fmt.Errorf("get list: %w", err)
	}

	if list.OwnerID != userID {
		return nil, domainerrors.Forbidden("you do not own this list")
	}
	return list, nil
}
