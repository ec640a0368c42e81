package arxiv

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrCacheMiss is returned when the cache has no entry for an id.
var ErrCacheMiss = errors.New("arxiv: cache miss")

// Cache is a local sqlite cache for arXiv API responses and extracted
// PDF text. Fetching metadata costs a 3-second rate-limit slot and PDF
// extraction is CPU-heavy, so both are cached aggressively.
type Cache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS paper_metadata (
	arxiv_id   TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pdf_text (
	arxiv_id     TEXT PRIMARY KEY,
	content      TEXT NOT NULL,
	extracted_at TEXT NOT NULL
);
`

// OpenCache opens or creates the cache database at the given path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	// The modernc driver serializes writes itself but multiple write
	// connections still race on locking.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// GetMetadata returns cached metadata for a paper, or ErrCacheMiss.
func (c *Cache) GetMetadata(ctx context.Context, arxivID string) (*Metadata, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		"SELECT payload FROM paper_metadata WHERE arxiv_id = ?", arxivID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(payload), &meta); err != nil {
		return nil, fmt.Errorf("decode cached metadata: %w", err)
	}
	return &meta, nil
}

// PutMetadata stores metadata for a paper, replacing any prior entry.
func (c *Cache) PutMetadata(ctx context.Context, meta *Metadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO paper_metadata (arxiv_id, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(arxiv_id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`, meta.ArxivID, string(payload), time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetPDFText returns cached extracted text for a paper, or ErrCacheMiss.
func (c *Cache) GetPDFText(ctx context.Context, arxivID string) (string, error) {
	var content string
	err := c.db.QueryRowContext(ctx,
		"SELECT content FROM pdf_text WHERE arxiv_id = ?", arxivID,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

// PutPDFText stores extracted text for a paper.
func (c *Cache) PutPDFText(ctx context.Context, arxivID, content string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO pdf_text (arxiv_id, content, extracted_at)
		VALUES (?, ?, ?)
		ON CONFLICT(arxiv_id) DO UPDATE SET content = excluded.content, extracted_at = excluded.extracted_at
	`, arxivID, content, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Stats reports cache entry counts.
func (c *Cache) Stats(ctx context.Context) (metadataCount, pdfTextCount int64, err error) {
	if err = c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM paper_metadata").Scan(&metadataCount); err != nil {
		return 0, 0, err
	}
	if err = c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pdf_text").Scan(&pdfTextCount); err != nil {
		return 0, 0, err
	}
	return metadataCount, pdfTextCount, nil
}
