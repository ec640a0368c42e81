package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdeckapp/paperdeck-server/internal/arxiv"
	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
)

// fakeFetcher serves canned arXiv metadata and counts API hits.
type fakeFetcher struct {
	metadata map[string]*arxiv.Metadata
	fetches  int
}

func (f *fakeFetcher) FetchByID(_ context.Context, arxivID string) (*arxiv.Metadata, error) {
	f.fetches++
	meta, ok := f.metadata[arxivID]
	if !ok {
		return nil, domainerrors.NotFoundf("paper %s not found on arXiv", arxivID)
	}
	return meta, nil
}

// fakeMetadataCache is an in-memory MetadataCache.
type fakeMetadataCache struct {
	entries map[string]*arxiv.Metadata
}

func newFakeMetadataCache() *fakeMetadataCache {
	return &fakeMetadataCache{entries: make(map[string]*arxiv.Metadata)}
}

func (f *fakeMetadataCache) GetMetadata(_ context.Context, arxivID string) (*arxiv.Metadata, error) {
	meta, ok := f.entries[arxivID]
	if !ok {
		return nil, arxiv.ErrCacheMiss
	}
	return meta, nil
}

func (f *fakeMetadataCache) PutMetadata(_ context.Context, meta *arxiv.Metadata) error {
	f.entries[meta.ArxivID] = meta
	return nil
}

func attentionMetadata() *arxiv.Metadata {
	return &arxiv.Metadata{
		ArxivID:     "1706.03762",
		Title:       "Attention Is All You Need",
		Abstract:    "The dominant sequence transduction models...",
		Authors:     []string{"Ashish Vaswani"},
		Categories:  []string{"cs.CL"},
		PublishedAt: time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
	}
}

func TestPaperService_GetPaperByArxivID_ImportsOnMiss(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	fetcher := &fakeFetcher{metadata: map[string]*arxiv.Metadata{
		"1706.03762": attentionMetadata(),
	}}
	cache := newFakeMetadataCache()
	papers := NewPaperService(env.store, fetcher, cache, nil, slog.New(slog.DiscardHandler))

	paper, err := papers.GetPaperByArxivID(ctx, "1706.03762v7")
	require.NoError(t, err)
	assert.Positive(t, paper.ID)
	assert.Equal(t, "1706.03762", paper.ArxivID)
	assert.Equal(t, "Attention Is All You Need", paper.Title)
	assert.Equal(t, 1, fetcher.fetches)

	// Second read comes from the store, not the API
	again, err := papers.GetPaperByArxivID(ctx, "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, paper.ID, again.ID)
	assert.Equal(t, 1, fetcher.fetches)
}

func TestPaperService_GetPaperByArxivID_UsesMetadataCache(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	fetcher := &fakeFetcher{metadata: map[string]*arxiv.Metadata{}}
	cache := newFakeMetadataCache()
	cache.entries["1706.03762"] = attentionMetadata()

	papers := NewPaperService(env.store, fetcher, cache, nil, slog.New(slog.DiscardHandler))

	paper, err := papers.GetPaperByArxivID(ctx, "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", paper.Title)
	assert.Zero(t, fetcher.fetches, "cached metadata must not hit the API")
}

func TestPaperService_GetPaperByArxivID_Unknown(t *testing.T) {
	env := setupTestEnv(t)

	fetcher := &fakeFetcher{metadata: map[string]*arxiv.Metadata{}}
	papers := NewPaperService(env.store, fetcher, newFakeMetadataCache(), nil, slog.New(slog.DiscardHandler))

	_, err := papers.GetPaperByArxivID(context.Background(), "9999.99999")
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
}

func TestPaperService_GetPaper_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.papers.GetPaper(context.Background(), 424242)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
}

func TestPaperService_TopRecent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	// createTestPaper publishes each paper further in the past
	newest := createTestPaper(t, env.store, "Newest")
	createTestPaper(t, env.store, "Middle")
	createTestPaper(t, env.store, "Oldest")

	papers, err := env.papers.TopRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, newest.ID, papers[0].ID)
}
