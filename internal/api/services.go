package api

import (
	"github.com/paperdeckapp/paperdeck-server/internal/search"
	"github.com/paperdeckapp/paperdeck-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth    *service.AuthService
	Session *service.SessionService
	Paper   *service.PaperService
	Library *service.LibraryService
	Tag     *service.TagService
	List    *service.ListService
	Chat    *service.ChatService
	Search  *search.Index
}
