package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	"github.com/paperdeckapp/paperdeck-server/internal/service"
)

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getUserLists",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists",
		Summary:     "Get user lists",
		Description: "Returns all lists owned by the current user",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetUserLists)

	huma.Register(s.api, huma.Operation{
		OperationID: "createList",
		Method:      http.MethodPost,
		Path:        "/api/v1/lists",
		Summary:     "Create list",
		Description: "Creates a new list, optionally with a first paper",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "getList",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{id}",
		Summary:     "Get list",
		Description: "Returns a list. Private lists are visible to their owner only.",
		Tags:        []string{"Lists"},
	}, s.handleGetList)

	huma.Register(s.api, huma.Operation{
		OperationID: "getListPapers",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{id}/papers",
		Summary:     "Get list papers",
		Description: "Returns a list's papers in list order. Private lists are visible to their owner only.",
		Tags:        []string{"Lists"},
	}, s.handleGetListPapers)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteList",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{id}",
		Summary:     "Delete list",
		Description: "Deletes a list owned by the current user",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteList)

	huma.Register(s.api, huma.Operation{
		OperationID: "addPaperToList",
		Method:      http.MethodPut,
		Path:        "/api/v1/lists/{id}/papers/{paperId}",
		Summary:     "Add paper to list",
		Description: "Appends a paper to a list owned by the current user",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddPaperToList)

	huma.Register(s.api, huma.Operation{
		OperationID: "removePaperFromList",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{id}/papers/{paperId}",
		Summary:     "Remove paper from list",
		Description: "Removes a paper from a list owned by the current user",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemovePaperFromList)

	huma.Register(s.api, huma.Operation{
		OperationID: "removePapersFromList",
		Method:      http.MethodPost,
		Path:        "/api/v1/lists/{id}/papers/remove",
		Summary:     "Remove multiple papers from list",
		Description: "Removes several papers from a list in one call",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemovePapersFromList)

	huma.Register(s.api, huma.Operation{
		OperationID: "changeListPrivacy",
		Method:      http.MethodPatch,
		Path:        "/api/v1/lists/{id}/privacy",
		Summary:     "Change list privacy",
		Description: "Makes a list public or private",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleChangeListPrivacy)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserListsWherePaper",
		Method:      http.MethodGet,
		Path:        "/api/v1/papers/{paperId}/lists",
		Summary:     "Get user lists containing paper",
		Description: "Returns the current user's lists that contain a paper",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetUserListsWherePaper)
}

// === DTOs ===

// ListResponse contains list data in API responses.
type ListResponse struct {
	ID          string    `json:"id" doc:"List ID"`
	OwnerID     string    `json:"owner_id" doc:"Owning user ID"`
	Name        string    `json:"name" doc:"List name"`
	Description string    `json:"description,omitempty" doc:"List description"`
	Public      bool      `json:"public" doc:"Whether the list is publicly visible"`
	PaperIDs    []int64   `json:"paper_ids" doc:"Paper IDs in list order"`
	EntryCount  int       `json:"entry_count" doc:"Number of papers on the list"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

// ListOutput wraps a single list response for Huma.
type ListOutput struct {
	Body ListResponse
}

// UserListsInput contains parameters for listing the user's lists.
type UserListsInput struct {
	Authorization string `header:"Authorization"`
}

// UserListsResponse contains a set of lists.
type UserListsResponse struct {
	Lists []ListResponse `json:"lists" doc:"Lists owned by the user"`
}

// UserListsOutput wraps the lists response for Huma.
type UserListsOutput struct {
	Body UserListsResponse
}

// CreateListRequest is the request body for creating a list.
type CreateListRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120" doc:"List name"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000" doc:"List description"`
	Public      bool   `json:"public" doc:"Whether the list is publicly visible"`
	PaperID     int64  `json:"paper_id,omitempty" validate:"omitempty,gt=0" doc:"First paper to add"`
}

// CreateListInput wraps the create list request for Huma.
type CreateListInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateListRequest
}

// GetListInput contains parameters for reading a list.
// The Authorization header is optional: public lists are readable anonymously.
type GetListInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"List ID"`
}

// ListPapersResponse contains a list plus its papers in order.
type ListPapersResponse struct {
	List   ListResponse       `json:"list" doc:"The list"`
	Papers []ListItemResponse `json:"papers" doc:"Papers in list order"`
}

// ListItemResponse is one positioned paper on a list.
type ListItemResponse struct {
	Position int           `json:"position" doc:"Zero-based position on the list"`
	Paper    PaperResponse `json:"paper" doc:"The paper"`
}

// ListPapersOutput wraps the list papers response for Huma.
type ListPapersOutput struct {
	Body ListPapersResponse
}

// ListPaperPathInput addresses one (list, paper) pair.
type ListPaperPathInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"List ID"`
	PaperID       int64  `path:"paperId" doc:"Numeric paper ID"`
}

// RemovePapersFromListRequest is the request body for a batch removal.
type RemovePapersFromListRequest struct {
	PaperIDs []int64 `json:"paper_ids" validate:"required,min=1,dive,gt=0" doc:"Papers to remove"`
}

// RemovePapersFromListInput wraps the batch removal request for Huma.
type RemovePapersFromListInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"List ID"`
	Body          RemovePapersFromListRequest
}

// ChangeListPrivacyRequest is the request body for a privacy change.
type ChangeListPrivacyRequest struct {
	Public bool `json:"public" doc:"New visibility"`
}

// ChangeListPrivacyInput wraps the privacy change request for Huma.
type ChangeListPrivacyInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"List ID"`
	Body          ChangeListPrivacyRequest
}

// ListsWherePaperInput contains parameters for the reverse lookup.
type ListsWherePaperInput struct {
	Authorization string `header:"Authorization"`
	PaperID       int64  `path:"paperId" doc:"Numeric paper ID"`
}

// === Handlers ===

func (s *Server) handleGetUserLists(ctx context.Context, input *UserListsInput) (*UserListsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	lists, err := s.services.List.GetUserLists(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserListsOutput{Body: UserListsResponse{Lists: mapListResponses(lists)}}, nil
}

func (s *Server) handleCreateList(ctx context.Context, input *CreateListInput) (*ListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	l, err := s.services.List.CreateList(ctx, service.CreateListRequest{
		UserID:      userID,
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Public:      input.Body.Public,
		PaperID:     input.Body.PaperID,
	})
	if err != nil {
		return nil, err
	}

	return &ListOutput{Body: mapListResponse(l)}, nil
}

func (s *Server) handleGetList(ctx context.Context, input *GetListInput) (*ListOutput, error) {
	viewerID, err := s.optionalUserID(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	l, err := s.services.List.GetList(ctx, viewerID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ListOutput{Body: mapListResponse(l)}, nil
}

func (s *Server) handleGetListPapers(ctx context.Context, input *GetListInput) (*ListPapersOutput, error) {
	viewerID, err := s.optionalUserID(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	l, items, err := s.services.List.GetListPapers(ctx, viewerID, input.ID)
	if err != nil {
		return nil, err
	}

	papers := make([]ListItemResponse, len(items))
	for i, item := range items {
		papers[i] = ListItemResponse{
			Position: item.Position,
			Paper:    mapPaperResponse(item.Paper),
		}
	}

	return &ListPapersOutput{
		Body: ListPapersResponse{
			List:   mapListResponse(l),
			Papers: papers,
		},
	}, nil
}

func (s *Server) handleDeleteList(ctx context.Context, input *GetListInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.List.DeleteList(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "List deleted"}}, nil
}

func (s *Server) handleAddPaperToList(ctx context.Context, input *ListPaperPathInput) (*ListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	l, err := s.services.List.AddPaperToList(ctx, userID, input.ID, input.PaperID)
	if err != nil {
		return nil, err
	}

	return &ListOutput{Body: mapListResponse(l)}, nil
}

func (s *Server) handleRemovePaperFromList(ctx context.Context, input *ListPaperPathInput) (*ListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	l, err := s.services.List.RemovePaperFromList(ctx, userID, input.ID, input.PaperID)
	if err != nil {
		return nil, err
	}

	return &ListOutput{Body: mapListResponse(l)}, nil
}

func (s *Server) handleRemovePapersFromList(ctx context.Context, input *RemovePapersFromListInput) (*ListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	l, err := s.services.List.RemovePapersFromList(ctx, userID, input.ID, input.Body.PaperIDs)
	if err != nil {
		return nil, err
	}

	return &ListOutput{Body: mapListResponse(l)}, nil
}

func (s *Server) handleChangeListPrivacy(ctx context.Context, input *ChangeListPrivacyInput) (*ListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	l, err := s.services.List.ChangePrivacy(ctx, userID, input.ID, input.Body.Public)
	if err != nil {
		return nil, err
	}

	return &ListOutput{Body: mapListResponse(l)}, nil
}

func (s *Server) handleGetUserListsWherePaper(ctx context.Context, input *ListsWherePaperInput) (*UserListsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	lists, err := s.services.List.GetUserListsWherePaper(ctx, userID, input.PaperID)
	if err != nil {
		return nil, err
	}

	return &UserListsOutput{Body: UserListsResponse{Lists: mapListResponses(lists)}}, nil
}

// === Helpers ===

// optionalUserID resolves the viewer for endpoints that allow anonymous
// access. No header means anonymous; a present but invalid token is a 401.
func (s *Server) optionalUserID(ctx context.Context, authorization string) (string, error) {
	if authorization == "" {
		return "", nil
	}
	return s.authenticateRequest(ctx, authorization)
}

func mapListResponse(l *domain.List) ListResponse {
	return ListResponse{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Name:        l.Name,
		Description: l.Description,
		Public:      l.Public,
		PaperIDs:    l.PaperIDs,
		EntryCount:  len(l.PaperIDs),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func mapListResponses(lists []*domain.List) []ListResponse {
	resp := make([]ListResponse, len(lists))
	for i, l := range lists {
		resp[i] = mapListResponse(l)
	}
	return resp
}
