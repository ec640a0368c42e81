package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	"github.com/paperdeckapp/paperdeck-server/internal/service"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "Get library",
		Description: "Returns the current user's library, newest entries first",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "upsertLibraryEntry",
		Method:      http.MethodPut,
		Path:        "/api/v1/library/{paperId}",
		Summary:     "Upsert library entry",
		Description: "Creates or updates the current user's library entry for a paper",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpsertLibraryEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLibraryEntry",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/{paperId}",
		Summary:     "Get library entry",
		Description: "Returns the current user's library entry for a paper, if present",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetLibraryEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeLibraryEntry",
		Method:      http.MethodDelete,
		Path:        "/api/v1/library/{paperId}",
		Summary:     "Remove library entry",
		Description: "Removes a paper from the current user's library",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveLibraryEntry)
}

// === DTOs ===

// LibraryEntryResponse contains library entry data in API responses.
type LibraryEntryResponse struct {
	PaperID    int64     `json:"paper_id" doc:"Numeric paper ID"`
	WantToRead bool      `json:"want_to_read" doc:"Flagged for reading later"`
	CreatedAt  time.Time `json:"created_at" doc:"When the paper was added"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last entry update"`
}

// LibraryEntryOutput wraps a single entry response for Huma.
type LibraryEntryOutput struct {
	Body LibraryEntryResponse
}

// GetLibraryInput contains parameters for fetching the library.
type GetLibraryInput struct {
	Authorization string `header:"Authorization"`
}

// LibraryItemResponse pairs a library entry with its hydrated paper.
type LibraryItemResponse struct {
	Entry LibraryEntryResponse `json:"entry" doc:"Library entry"`
	Paper PaperResponse        `json:"paper" doc:"The paper itself"`
}

// LibraryResponse contains the full library listing.
type LibraryResponse struct {
	Items []LibraryItemResponse `json:"items" doc:"Library items, newest first"`
}

// LibraryOutput wraps the library response for Huma.
type LibraryOutput struct {
	Body LibraryResponse
}

// UpsertLibraryEntryRequest is the request body for an entry upsert.
type UpsertLibraryEntryRequest struct {
	WantToRead *bool `json:"want_to_read,omitempty" doc:"Flag for reading later; omitted keeps the stored value, false on create"`
}

// UpsertLibraryEntryInput wraps the upsert request for Huma.
type UpsertLibraryEntryInput struct {
	Authorization string `header:"Authorization"`
	PaperID       int64  `path:"paperId" doc:"Numeric paper ID"`
	Body          UpsertLibraryEntryRequest
}

// LibraryEntryPathInput contains parameters addressing one entry.
type LibraryEntryPathInput struct {
	Authorization string `header:"Authorization"`
	PaperID       int64  `path:"paperId" doc:"Numeric paper ID"`
}

// MaybeLibraryEntryResponse is an entry read that distinguishes "absent"
// from an error.
type MaybeLibraryEntryResponse struct {
	Present bool                  `json:"present" doc:"Whether an entry exists"`
	Entry   *LibraryEntryResponse `json:"entry,omitempty" doc:"The entry, when present"`
}

// MaybeLibraryEntryOutput wraps the optional entry response for Huma.
type MaybeLibraryEntryOutput struct {
	Body MaybeLibraryEntryResponse
}

// === Handlers ===

func (s *Server) handleGetLibrary(ctx context.Context, input *GetLibraryInput) (*LibraryOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Library.GetLibrary(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]LibraryItemResponse, len(items))
	for i, item := range items {
		resp[i] = LibraryItemResponse{
			Entry: mapLibraryEntryResponse(item.Entry),
			Paper: mapPaperResponse(item.Paper),
		}
	}

	return &LibraryOutput{Body: LibraryResponse{Items: resp}}, nil
}

func (s *Server) handleUpsertLibraryEntry(ctx context.Context, input *UpsertLibraryEntryInput) (*LibraryEntryOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.Library.UpsertEntry(ctx, service.UpsertEntryRequest{
		UserID:     userID,
		PaperID:    input.PaperID,
		WantToRead: input.Body.WantToRead,
	})
	if err != nil {
		return nil, err
	}

	return &LibraryEntryOutput{Body: mapLibraryEntryResponse(entry)}, nil
}

func (s *Server) handleGetLibraryEntry(ctx context.Context, input *LibraryEntryPathInput) (*MaybeLibraryEntryOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.Library.GetEntry(ctx, userID, input.PaperID)
	if err != nil {
		return nil, err
	}

	if entry == nil {
		return &MaybeLibraryEntryOutput{Body: MaybeLibraryEntryResponse{Present: false}}, nil
	}

	resp := mapLibraryEntryResponse(entry)
	return &MaybeLibraryEntryOutput{Body: MaybeLibraryEntryResponse{Present: true, Entry: &resp}}, nil
}

func (s *Server) handleRemoveLibraryEntry(ctx context.Context, input *LibraryEntryPathInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.RemoveEntry(ctx, userID, input.PaperID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Entry removed"}}, nil
}

// === Helpers ===

func mapLibraryEntryResponse(e *domain.LibraryEntry) LibraryEntryResponse {
	return LibraryEntryResponse{
		PaperID:    e.PaperID,
		WantToRead: e.WantToRead,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
