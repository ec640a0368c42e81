// Package di provides dependency injection configuration for the PaperDeck server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/paperdeckapp/paperdeck-server/internal/auth"
	"github.com/paperdeckapp/paperdeck-server/internal/config"
	"github.com/paperdeckapp/paperdeck-server/internal/di/providers"
	"github.com/paperdeckapp/paperdeck-server/internal/logger"
	"github.com/paperdeckapp/paperdeck-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// arXiv layer
	do.Provide(injector, providers.ProvideArxivCache)
	do.Provide(injector, providers.ProvideArxivClient)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvidePaperService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideListService)
	do.Provide(injector, providers.ProvideChatService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	// Discovery
	do.Provide(injector, providers.ProvideMDNS)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.ArxivCacheHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.PaperService](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.ListService](injector)
	_ = do.MustInvoke[*service.ChatService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Discovery
	_ = do.MustInvoke[*providers.MDNSHandle](injector)

	// Backfill the search index from the store when it starts empty
	providers.ReindexIfEmpty(injector)

	return nil
}
