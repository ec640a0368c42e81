package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	"github.com/paperdeckapp/paperdeck-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags owned by the current user",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Description: "Creates a new tag, optionally linking it to a paper",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Description: "Deletes a tag and all its paper associations",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPaperTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/papers/{paperId}/tags",
		Summary:     "Get tags on paper",
		Description: "Returns the current user's tags on a paper",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetPaperTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "addTagToPaper",
		Method:      http.MethodPut,
		Path:        "/api/v1/papers/{paperId}/tags/{tagId}",
		Summary:     "Add tag to paper",
		Description: "Attaches one of the current user's tags to a paper",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddTagToPaper)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeTagFromPaper",
		Method:      http.MethodDelete,
		Path:        "/api/v1/papers/{paperId}/tags/{tagId}",
		Summary:     "Remove tag from paper",
		Description: "Detaches a tag from a paper",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveTagFromPaper)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeTagsFromPaper",
		Method:      http.MethodPost,
		Path:        "/api/v1/papers/{paperId}/tags/remove",
		Summary:     "Remove multiple tags from paper",
		Description: "Detaches several tags from a paper in one call",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveTagsFromPaper)
}

// === DTOs ===

// ListTagsInput contains parameters for listing tags.
type ListTagsInput struct {
	Authorization string `header:"Authorization"`
}

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID        string    `json:"id" doc:"Tag ID"`
	Name      string    `json:"name" doc:"Tag name"`
	Color     string    `json:"color,omitempty" doc:"Display color"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=60" doc:"Tag name"`
	Color   string `json:"color,omitempty" validate:"omitempty,hexcolor" doc:"Display color"`
	PaperID int64  `json:"paper_id,omitempty" validate:"omitempty,gt=0" doc:"Paper to link the new tag to"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateTagRequest
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// DeleteTagInput contains parameters for deleting a tag.
type DeleteTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
}

// GetPaperTagsInput contains parameters for listing tags on a paper.
type GetPaperTagsInput struct {
	Authorization string `header:"Authorization"`
	PaperID       int64  `path:"paperId" doc:"Numeric paper ID"`
}

// AddTagToPaperRequest is the request body for attaching a tag.
type AddTagToPaperRequest struct {
	Name string `json:"name" validate:"required,min=1,max=60" doc:"Tag name, must match the tag's stored name"`
}

// AddTagToPaperInput wraps the attach request for Huma.
type AddTagToPaperInput struct {
	Authorization string `header:"Authorization"`
	PaperID       int64  `path:"paperId" doc:"Numeric paper ID"`
	TagID         string `path:"tagId" doc:"Tag ID"`
	Body          AddTagToPaperRequest
}

// RemoveTagFromPaperInput contains parameters for detaching a tag.
type RemoveTagFromPaperInput struct {
	Authorization string `header:"Authorization"`
	PaperID       int64  `path:"paperId" doc:"Numeric paper ID"`
	TagID         string `path:"tagId" doc:"Tag ID"`
}

// RemoveTagsFromPaperRequest is the request body for a batch detach.
type RemoveTagsFromPaperRequest struct {
	TagIDs []string `json:"tag_ids" validate:"required,min=1,dive,required" doc:"Tags to detach"`
}

// RemoveTagsFromPaperInput wraps the batch detach request for Huma.
type RemoveTagsFromPaperInput struct {
	Authorization string `header:"Authorization"`
	PaperID       int64  `path:"paperId" doc:"Numeric paper ID"`
	Body          RemoveTagsFromPaperRequest
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*ListTagsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListUserTags(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: mapTagResponses(tags)}}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	t, err := s.services.Tag.CreateTag(ctx, service.CreateTagRequest{
		UserID:  userID,
		Name:    input.Body.Name,
		Color:   input.Body.Color,
		PaperID: input.Body.PaperID,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(t)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *DeleteTagInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.DeleteTag(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}

func (s *Server) handleGetPaperTags(ctx context.Context, input *GetPaperTagsInput) (*ListTagsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.GetUserTagsOnPaper(ctx, userID, input.PaperID)
	if err != nil {
		return nil, err
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: mapTagResponses(tags)}}, nil
}

func (s *Server) handleAddTagToPaper(ctx context.Context, input *AddTagToPaperInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	err = s.services.Tag.AddTagToPaper(ctx, service.AddTagToPaperRequest{
		UserID:  userID,
		TagID:   input.TagID,
		PaperID: input.PaperID,
		Name:    input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag added to paper"}}, nil
}

func (s *Server) handleRemoveTagFromPaper(ctx context.Context, input *RemoveTagFromPaperInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.RemoveTagFromPaper(ctx, userID, input.TagID, input.PaperID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag removed from paper"}}, nil
}

func (s *Server) handleRemoveTagsFromPaper(ctx context.Context, input *RemoveTagsFromPaperInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.RemoveTagsFromPaper(ctx, userID, input.Body.TagIDs, input.PaperID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tags removed from paper"}}, nil
}

// === Helpers ===

func mapTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{
		ID:        t.ID,
		Name:      t.Name,
		Color:     t.Color,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func mapTagResponses(tags []*domain.Tag) []TagResponse {
	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = mapTagResponse(t)
	}
	return resp
}
