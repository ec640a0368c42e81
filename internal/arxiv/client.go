package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
)

const (
	defaultAPIBaseURL = "https://export.arxiv.org/api/query"
	defaultPDFBaseURL = "https://arxiv.org/pdf"

	// arXiv asks API clients to make no more than one request every 3 seconds.
	defaultRequestInterval = 3 * time.Second

	// The API accepts roughly 100 ids per id_list request.
	maxBatchSize = 50

	maxPDFBytes = 100 << 20
)

// Client fetches paper metadata and PDFs from the arXiv API.
// All requests share a single rate limiter honoring arXiv's crawl policy.
type Client struct {
	httpClient *http.Client
	apiBaseURL string
	pdfBaseURL string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Options configures the arXiv client.
type Options struct {
	APIBaseURL      string        // Defaults to the public export API
	PDFBaseURL      string        // Defaults to arxiv.org/pdf
	RequestInterval time.Duration // Minimum spacing between requests (default 3s)
	HTTPClient      *http.Client  // Defaults to a 30s-timeout client
	Logger          *slog.Logger
}

// NewClient creates an arXiv API client.
func NewClient(opts Options) *Client {
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = defaultAPIBaseURL
	}
	if opts.PDFBaseURL == "" {
		opts.PDFBaseURL = defaultPDFBaseURL
	}
	if opts.RequestInterval <= 0 {
		opts.RequestInterval = defaultRequestInterval
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		httpClient: opts.HTTPClient,
		apiBaseURL: strings.TrimRight(opts.APIBaseURL, "/"),
		pdfBaseURL: strings.TrimRight(opts.PDFBaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(opts.RequestInterval), 1),
		logger:     opts.Logger,
	}
}

// Metadata is a paper as returned by the arXiv API.
type Metadata struct {
	ArxivID     string
	Title       string
	Abstract    string
	Authors     []string
	Categories  []string
	PublishedAt time.Time
	UpdatedAt   time.Time
	Comment     string
	JournalRef  string
	DOI         string
}

// FetchByID retrieves metadata for a single paper.
// Returns a not-found error when arXiv has no entry for the id.
func (c *Client) FetchByID(ctx context.Context, arxivID string) (*Metadata, error) {
	arxivID = domain.NormalizeArxivID(arxivID)
	if arxivID == "" {
		return nil, domainerrors.Validation("arXiv id is required")
	}

	entries, err := c.query(ctx, url.Values{
		"id_list":     {arxivID},
		"max_results": {"1"},
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domainerrors.NotFoundf("paper %s not found on arXiv", arxivID)
	}

	meta := parseEntry(entries[0])
	if meta.ArxivID == "" {
		// Feeds for unknown ids sometimes contain a single empty entry
		return nil, domainerrors.NotFoundf("paper %s not found on arXiv", arxivID)
	}
	return meta, nil
}

// FetchBatch retrieves metadata for multiple papers.
// Ids are chunked to stay within the API's id_list limit; papers arXiv
// doesn't know are silently absent from the result.
func (c *Client) FetchBatch(ctx context.Context, arxivIDs []string) ([]*Metadata, error) {
	if len(arxivIDs) == 0 {
		return nil, nil
	}

	normalized := make([]string, 0, len(arxivIDs))
	for _, id := range arxivIDs {
		if n := domain.NormalizeArxivID(id); n != "" {
			normalized = append(normalized, n)
		}
	}

	var results []*Metadata
	for i := 0; i < len(normalized); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(normalized) {
			end = len(normalized)
		}
		chunk := normalized[i:end]

		entries, err := c.query(ctx, url.Values{
			"id_list":     {strings.Join(chunk, ",")},
			"max_results": {fmt.Sprintf("%d", len(chunk))},
		})
		if err != nil {
			return results, err
		}

		for _, entry := range entries {
			meta := parseEntry(entry)
			if meta.ArxivID == "" {
				continue
			}
			results = append(results, meta)
		}
	}

	return results, nil
}

// Search runs a free-text query against the arXiv API.
func (c *Client) Search(ctx context.Context, query string, start, maxResults int) ([]*Metadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainerrors.Validation("search query is required")
	}
	if maxResults <= 0 {
		maxResults = 20
	}
	if maxResults > 100 {
		maxResults = 100
	}
	if start < 0 {
		start = 0
	}

	entries, err := c.query(ctx, url.Values{
		"search_query": {"all:" + query},
		"start":        {fmt.Sprintf("%d", start)},
		"max_results":  {fmt.Sprintf("%d", maxResults)},
		"sortBy":       {"relevance"},
	})
	if err != nil {
		return nil, err
	}

	results := make([]*Metadata, 0, len(entries))
	for _, entry := range entries {
		meta := parseEntry(entry)
		if meta.ArxivID == "" {
			continue
		}
		results = append(results, meta)
	}
	return results, nil
}

// DownloadPDF fetches the PDF for a paper and returns its bytes.
func (c *Client) DownloadPDF(ctx context.Context, arxivID string) ([]byte, error) {
	arxivID = domain.NormalizeArxivID(arxivID)
	if arxivID == "" {
		return nil, domainerrors.Validation("arXiv id is required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pdfURL := fmt.Sprintf("%s/%s", c.pdfBaseURL, arxivID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.Transport("arXiv PDF request failed").WithCause(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domainerrors.NotFoundf("no PDF for paper %s", arxivID)
	default:
		return nil, domainerrors.Transportf("arXiv PDF returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return nil, domainerrors.Transport("read arXiv PDF").WithCause(err)
	}

	c.logger.Debug("downloaded arXiv PDF",
		"arxiv_id", arxivID,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	return data, nil
}

// query performs a rate-limited GET against the query API and returns
// the feed's entries.
func (c *Client) query(ctx context.Context, params url.Values) ([]atomEntry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.apiBaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.Transport("arXiv API request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.Transportf("arXiv API returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domainerrors.Transport("read arXiv API response").WithCause(err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, domainerrors.Transport("parse arXiv API response").WithCause(err)
	}

	return feed.Entries, nil
}

// Atom feed structures for the arXiv query API.

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Comment    string         `xml:"comment"`
	JournalRef string         `xml:"journal_ref"`
	DOI        string         `xml:"doi"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// parseEntry converts an atom entry to Metadata.
// The entry id is a URL like http://arxiv.org/abs/2301.00001v2; the
// arXiv id is the path after /abs/ with the version suffix stripped.
func parseEntry(entry atomEntry) *Metadata {
	arxivID := ""
	if idx := strings.LastIndex(entry.ID, "/abs/"); idx >= 0 {
		arxivID = domain.NormalizeArxivID(entry.ID[idx+5:])
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			categories = append(categories, cat.Term)
		}
	}

	meta := &Metadata{
		ArxivID:    arxivID,
		Title:      collapseWhitespace(entry.Title),
		Abstract:   collapseWhitespace(entry.Summary),
		Authors:    authors,
		Categories: categories,
		Comment:    strings.TrimSpace(entry.Comment),
		JournalRef: strings.TrimSpace(entry.JournalRef),
		DOI:        strings.TrimSpace(entry.DOI),
	}

	meta.PublishedAt, _ = time.Parse(time.RFC3339, entry.Published)
	meta.UpdatedAt, _ = time.Parse(time.RFC3339, entry.Updated)

	return meta
}

// ToPaper converts API metadata into a domain paper without an id.
// The store assigns the id on create.
func (m *Metadata) ToPaper() *domain.Paper {
	return &domain.Paper{
		ArxivID:     m.ArxivID,
		Title:       m.Title,
		Abstract:    m.Abstract,
		Authors:     m.Authors,
		Categories:  m.Categories,
		PublishedAt: m.PublishedAt,
		RevisedAt:   m.UpdatedAt,
	}
}

// collapseWhitespace flattens feed text that arXiv wraps with newlines
// and leading spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
