package search

import (
	"context"
	"strconv"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
)

// Indexer adapts the search index to the store's indexing hook.
// The store calls it after paper writes so the index tracks the KV state.
type Indexer struct {
	index *Index
}

// NewIndexer creates an indexer backed by the given search index.
func NewIndexer(index *Index) *Indexer {
	return &Indexer{index: index}
}

// IndexPaper indexes or reindexes a paper.
func (i *Indexer) IndexPaper(_ context.Context, paper *domain.Paper) error {
	return i.index.IndexDocument(PaperToDocument(paper))
}

// DeletePaper removes a paper from the index.
func (i *Indexer) DeletePaper(_ context.Context, paperID int64) error {
	return i.index.DeleteDocument(strconv.FormatInt(paperID, 10))
}
