package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
)

const attentionFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
  You Need</title>
    <summary>  The dominant sequence transduction models are based on complex
  recurrent or convolutional neural networks.
</summary>
    <published>2017-06-12T17:57:34Z</published>
    <updated>2023-08-02T00:41:18Z</updated>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
</feed>`

// testClient returns a client pointed at a stub API server with rate
// limiting effectively disabled.
func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Options{
		APIBaseURL:      server.URL,
		PDFBaseURL:      server.URL + "/pdf",
		RequestInterval: time.Millisecond,
	})
	return client, server
}

func TestClient_FetchByID(t *testing.T) {
	var gotQuery string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("id_list")
		w.Write([]byte(attentionFeed))
	}))

	meta, err := client.FetchByID(context.Background(), "1706.03762v7")
	require.NoError(t, err)

	// Version suffix stripped before the request and in the parsed id
	assert.Equal(t, "1706.03762", gotQuery)
	assert.Equal(t, "1706.03762", meta.ArxivID)
	assert.Equal(t, "Attention Is All You Need", meta.Title)
	assert.Contains(t, meta.Abstract, "dominant sequence transduction")
	assert.NotContains(t, meta.Abstract, "\n")
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, meta.Authors)
	assert.Equal(t, []string{"cs.CL", "cs.LG"}, meta.Categories)
	assert.Equal(t, 2017, meta.PublishedAt.Year())
	assert.Equal(t, 2023, meta.UpdatedAt.Year())
}

func TestClient_FetchByID_NotFound(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyFeed))
	}))

	_, err := client.FetchByID(context.Background(), "9999.99999")
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusNotFound, derr.HTTPStatus())
}

func TestClient_FetchByID_EmptyID(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := client.FetchByID(context.Background(), "  ")
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusBadRequest, derr.HTTPStatus())
}

func TestClient_FetchBatch(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(attentionFeed))
	}))

	results, err := client.FetchBatch(context.Background(), []string{"1706.03762"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1706.03762", results[0].ArxivID)
}

func TestClient_FetchBatch_Empty(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	results, err := client.FetchBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestClient_Search(t *testing.T) {
	var gotQuery string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(attentionFeed))
	}))

	results, err := client.Search(context.Background(), "attention transformers", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "all:attention transformers", gotQuery)
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := client.Search(context.Background(), "   ", 0, 10)
	require.Error(t, err)
}

func TestClient_UpstreamError(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.FetchByID(context.Background(), "1706.03762")
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusBadGateway, derr.HTTPStatus())
}

func TestClient_DownloadPDF(t *testing.T) {
	pdfBody := []byte("%PDF-1.5 fake body")
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pdf/1706.03762" {
			w.Write(pdfBody)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	data, err := client.DownloadPDF(context.Background(), "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, pdfBody, data)

	_, err = client.DownloadPDF(context.Background(), "9999.99999")
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusNotFound, derr.HTTPStatus())
}

func TestMetadata_ToPaper(t *testing.T) {
	published := time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC)
	meta := &Metadata{
		ArxivID:     "1706.03762",
		Title:       "Attention Is All You Need",
		Abstract:    "The dominant sequence transduction models...",
		Authors:     []string{"Ashish Vaswani"},
		Categories:  []string{"cs.CL"},
		PublishedAt: published,
		UpdatedAt:   published.AddDate(6, 0, 0),
	}

	paper := meta.ToPaper()
	assert.Zero(t, paper.ID)
	assert.Equal(t, meta.ArxivID, paper.ArxivID)
	assert.Equal(t, meta.Title, paper.Title)
	assert.Equal(t, meta.Authors, paper.Authors)
	assert.Equal(t, meta.PublishedAt, paper.PublishedAt)
	assert.Equal(t, meta.UpdatedAt, paper.RevisedAt)
}

func setupTestCache(t *testing.T) *Cache {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "arxiv-cache-test-*")
	require.NoError(t, err)

	cache, err := OpenCache(filepath.Join(tmpDir, "arxiv.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cache.Close()
		_ = os.RemoveAll(tmpDir)
	})

	return cache
}

func TestCache_MetadataRoundTrip(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	_, err := cache.GetMetadata(ctx, "1706.03762")
	assert.ErrorIs(t, err, ErrCacheMiss)

	meta := &Metadata{
		ArxivID:    "1706.03762",
		Title:      "Attention Is All You Need",
		Authors:    []string{"Ashish Vaswani"},
		Categories: []string{"cs.CL"},
	}
	require.NoError(t, cache.PutMetadata(ctx, meta))

	got, err := cache.GetMetadata(ctx, "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, meta.Title, got.Title)
	assert.Equal(t, meta.Authors, got.Authors)

	// Put replaces the prior entry
	meta.Title = "Attention Is All You Need (v7)"
	require.NoError(t, cache.PutMetadata(ctx, meta))

	got, err = cache.GetMetadata(ctx, "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need (v7)", got.Title)
}

func TestCache_PDFTextRoundTrip(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	_, err := cache.GetPDFText(ctx, "1706.03762")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.PutPDFText(ctx, "1706.03762", "extracted text"))

	text, err := cache.GetPDFText(ctx, "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, "extracted text", text)

	metaCount, pdfCount, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), metaCount)
	assert.Equal(t, int64(1), pdfCount)
}
