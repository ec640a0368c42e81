package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paperdeckapp/paperdeck-server/internal/color"
	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
	"github.com/paperdeckapp/paperdeck-server/internal/id"
	"github.com/paperdeckapp/paperdeck-server/internal/store"
)

// TagService manages user-scoped tags and their paper associations.
// Tags are never shared between users.
type TagService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store *store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// CreateTagRequest creates a tag, optionally attaching it to a paper
// in the same call.
type CreateTagRequest struct {
	UserID  string `json:"-" validate:"required"`
	Name    string `json:"name" validate:"required,max=60"`
	Color   string `json:"color" validate:"omitempty,hexcolor"`
	PaperID int64  `json:"paper_id,omitempty" validate:"omitempty,gt=0"`
}

// CreateTag creates a tag for a user. Tag names are unique per owner
// (case-insensitive).
func (s *TagService) CreateTag(ctx context.Context, req CreateTagRequest) (*domain.Tag, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	tagColor := req.Color
	if tagColor == "" {
		tagColor = color.ForTag(req.Name)
	}

	now := time.Now()
	tag := &domain.Tag{
		ID:        tagID,
		OwnerID:   req.UserID,
		Name:      req.Name,
		Color:     tagColor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrTagExists) {
			return nil, domainerrors.Conflictf("tag %q already exists", req.Name)
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	if req.PaperID != 0 {
		if err := s.attachTag(ctx, tag, req.PaperID); err != nil {
			return nil, err
		}
	}

	if s.logger != nil {
		s.logger.Info("tag created", "tag_id", tagID, "owner_id", req.UserID)
	}

	return tag, nil
}

// attachTag links a tag to a paper after verifying the paper exists.
func (s *TagService) attachTag(ctx context.Context, tag *domain.Tag, paperID int64) error {
	if _, err := s.store.GetPaper(ctx, paperID); err != nil {
		if errors.Is(err, store.ErrPaperNotFound) {
			return domainerrors.NotFoundf("paper %d not found", paperID)
		}
		return fmt.Errorf("get paper: %w", err)
	}

	if err := s.store.AddTagToPaper(ctx, tag.ID, paperID); err != nil {
		return fmt.Errorf("attach tag to paper: %w", err)
	}
	return nil
}

// ListUserTags returns all tags owned by a user, sorted by name.
func (s *TagService) ListUserTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	tags, err := s.store.ListUserTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user tags: %w", err)
	}
	return tags, nil
}

// DeleteTag removes a tag and all its paper associations.
// Only the owner may delete a tag.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID string) error {
	tag, err := s.getOwnedTag(ctx, userID, tagID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTag(ctx, tag.ID); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// AddTagToPaperRequest attaches an existing tag to a paper.
// The supplied name must match the tag's stored name; a mismatch means
// the caller's view of the tag is stale.
type AddTagToPaperRequest struct {
	UserID  string `json:"-" validate:"required"`
	TagID   string `json:"tag_id" validate:"required"`
	PaperID int64  `json:"paper_id" validate:"required,gt=0"`
	Name    string `json:"name" validate:"required"`
}

// AddTagToPaper attaches a user's tag to a paper.
// Attaching the same tag twice is a conflict.
func (s *TagService) AddTagToPaper(ctx context.Context, req AddTagToPaperRequest) error {
	if err := validate.Validate(req); err != nil {
		return err
	}

	tag, err := s.getOwnedTag(ctx, req.UserID, req.TagID)
	if err != nil {
		return err
	}

	if domain.NormalizeTagName(req.Name) != domain.NormalizeTagName(tag.Name) {
		return domainerrors.Validationf("tag name %q does not match stored name %q", req.Name, tag.Name)
	}

	if _, err := s.store.GetPaper(ctx, req.PaperID); err != nil {
		if errors.Is(err, store.ErrPaperNotFound) {
			return domainerrors.NotFoundf("paper %d not found", req.PaperID)
		}
		return fmt.Errorf("get paper: %w", err)
	}

	tagged, err := s.store.HasTagOnPaper(ctx, tag.ID, req.PaperID)
	if err != nil {
		return fmt.Errorf("check tag on paper: %w", err)
	}
	if tagged {
		return domainerrors.Conflictf("tag %q is already on this paper", tag.Name)
	}

	if err := s.store.AddTagToPaper(ctx, tag.ID, req.PaperID); err != nil {
		return fmt.Errorf("add tag to paper: %w", err)
	}
	return nil
}

// RemoveTagFromPaper detaches a user's tag from a paper.
// Removing an absent association is a no-op.
func (s *TagService) RemoveTagFromPaper(ctx context.Context, userID, tagID string, paperID int64) error {
	tag, err := s.getOwnedTag(ctx, userID, tagID)
	if err != nil {
		return err
	}

	if err := s.store.RemoveTagFromPaper(ctx, tag.ID, paperID); err != nil {
		return fmt.Errorf("remove tag from paper: %w", err)
	}
	return nil
}

// RemoveTagsFromPaper detaches multiple tags from a paper in one call.
// Ownership is verified for every tag before any removal happens.
func (s *TagService) RemoveTagsFromPaper(ctx context.Context, userID string, tagIDs []string, paperID int64) error {
	tags := make([]*domain.Tag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		tag, err := s.getOwnedTag(ctx, userID, tagID)
		if err != nil {
			return err
		}
		tags = append(tags, tag)
	}

	for _, tag := range tags {
		if err := s.store.RemoveTagFromPaper(ctx, tag.ID, paperID); err != nil {
			return fmt.Errorf("remove tag %s from paper: %w", tag.ID, err)
		}
	}
	return nil
}

// GetUserTagsOnPaper returns the user's own tags attached to a paper.
func (s *TagService) GetUserTagsOnPaper(ctx context.Context, userID string, paperID int64) ([]*domain.Tag, error) {
	tags, err := s.store.GetUserTagsOnPaper(ctx, userID, paperID)
	if err != nil {
		return nil, fmt.Errorf("get user tags on paper: %w", err)
	}
	return tags, nil
}

// getOwnedTag loads a tag and verifies the caller owns it.
func (s *TagService) getOwnedTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		if errors.Is(err, store.ErrTagNotFound) {
			return nil, domainerrors.NotFoundf("tag %s not found", tagID)
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	if tag.OwnerID != userID {
		return nil, domainerrors.Forbidden("you do not own this tag")
	}
	return tag, nil
}
