package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/paperdeckapp/paperdeck-server/internal/config"
	"github.com/paperdeckapp/paperdeck-server/internal/logger"
	"github.com/paperdeckapp/paperdeck-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the bleve search index and hooks it into
// the store so writes keep the index current.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	indexPath := filepath.Join(cfg.Data.BasePath, "search")
	index, err := search.NewIndex(search.Options{
		DataPath: indexPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(search.NewIndexer(index))

	log.Info("Search index ready", "path", indexPath)

	return &SearchIndexHandle{Index: index}, nil
}

// ReindexIfEmpty backfills the search index from the store. A fresh
// index (new install, or rebuilt after a mapping change) starts empty
// while the store may already hold papers.
func ReindexIfEmpty(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	count, err := indexHandle.DocumentCount()
	if err != nil || count > 0 {
		return
	}

	papers, err := storeHandle.ListRecentPapers(context.Background(), 0)
	if err != nil || len(papers) == 0 {
		return
	}

	docs := make([]*search.Document, len(papers))
	for idx, p := range papers {
		docs[idx] = search.PaperToDocument(p)
	}

	if err := indexHandle.IndexDocuments(docs); err != nil {
		log.Warn("Search index backfill failed", "error", err)
		return
	}

	log.Info("Search index backfilled", "papers", len(papers))
}
