package providers

import (
	"github.com/samber/do/v2"

	"github.com/paperdeckapp/paperdeck-server/internal/arxiv"
	"github.com/paperdeckapp/paperdeck-server/internal/config"
	"github.com/paperdeckapp/paperdeck-server/internal/logger"
)

// ArxivCacheHandle wraps the sqlite catalog cache with shutdown capability.
type ArxivCacheHandle struct {
	*arxiv.Cache
}

// Shutdown implements do.Shutdownable.
func (h *ArxivCacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideArxivCache provides the local cache for arXiv metadata and PDF text.
func ProvideArxivCache(i do.Injector) (*ArxivCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cache, err := arxiv.OpenCache(cfg.ArXiv.CachePath)
	if err != nil {
		return nil, err
	}

	log.Info("arXiv cache opened", "path", cfg.ArXiv.CachePath)

	return &ArxivCacheHandle{Cache: cache}, nil
}

// ProvideArxivClient provides the rate-limited arXiv API client.
func ProvideArxivClient(i do.Injector) (*arxiv.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return arxiv.NewClient(arxiv.Options{
		APIBaseURL:      cfg.ArXiv.APIBaseURL,
		PDFBaseURL:      cfg.ArXiv.PDFBaseURL,
		RequestInterval: cfg.ArXiv.RequestInterval,
		Logger:          log.Logger,
	}), nil
}
