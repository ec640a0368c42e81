package providers

import (
	"github.com/samber/do/v2"

	"github.com/paperdeckapp/paperdeck-server/internal/arxiv"
	"github.com/paperdeckapp/paperdeck-server/internal/auth"
	"github.com/paperdeckapp/paperdeck-server/internal/chat"
	"github.com/paperdeckapp/paperdeck-server/internal/config"
	"github.com/paperdeckapp/paperdeck-server/internal/logger"
	"github.com/paperdeckapp/paperdeck-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, log.Logger), nil
}

// ProvidePaperService provides the paper catalog service.
func ProvidePaperService(i do.Injector) (*service.PaperService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	arxivClient := do.MustInvoke[*arxiv.Client](i)
	cacheHandle := do.MustInvoke[*ArxivCacheHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPaperService(storeHandle.Store, arxivClient, cacheHandle.Cache, indexHandle.Index, log.Logger), nil
}

// ProvideLibraryService provides the personal library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	paperService := do.MustInvoke[*service.PaperService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, paperService, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideListService provides the shareable list service.
func ProvideListService(i do.Injector) (*service.ListService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewListService(storeHandle.Store, log.Logger), nil
}

// ProvideChatService provides the LLM chat service. PDF text extraction
// and the sqlite cache back the paper context assembly.
func ProvideChatService(i do.Injector) (*service.ChatService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	arxivClient := do.MustInvoke[*arxiv.Client](i)
	cacheHandle := do.MustInvoke[*ArxivCacheHandle](i)
	paperService := do.MustInvoke[*service.PaperService](i)
	log := do.MustInvoke[*logger.Logger](i)

	chatSvc := chat.NewService(chat.Options{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.Model,
		MaxPaperTokens: cfg.OpenAI.MaxPaperTokens,
		PDFs:           arxivClient,
		Texts:          cacheHandle.Cache,
		Logger:         log.Logger,
	})

	return service.NewChatService(paperService, chatSvc, log.Logger), nil
}
