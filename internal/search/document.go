// Package search provides full-text search over papers using Bleve.
// It supports relevance-ranked matching on titles, abstracts and authors
// with fuzzy and prefix fallbacks, plus category filtering.
package search

import (
	"strconv"
	"strings"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
)

// Document is the paper document structure for the Bleve index.
//
// Author names are indexed both as written and diacritic-folded so
// "Schrodinger" finds "Schrödinger".
type Document struct {
	ID         string   `json:"id"` // Paper id, decimal-formatted
	ArxivID    string   `json:"arxiv_id"`
	Title      string   `json:"title"`
	Abstract   string   `json:"abstract"`
	Authors    []string `json:"authors"`
	Categories []string `json:"categories"`

	// Timestamps for sorting. Unix millis.
	PublishedAt int64 `json:"published_at"`
	UpdatedAt   int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":           d.ID,
		"arxiv_id":     d.ArxivID,
		"title":        d.Title,
		"published_at": d.PublishedAt,
		"updated_at":   d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Abstract != "" {
		m["abstract"] = d.Abstract
	}
	if len(d.Authors) > 0 {
		m["authors"] = d.Authors
		folded := make([]string, len(d.Authors))
		for i, a := range d.Authors {
			folded[i] = FoldDiacritics(a)
		}
		m["authors_folded"] = folded
	}
	if len(d.Categories) > 0 {
		m["categories"] = d.Categories
	}

	return m
}

// PaperToDocument converts a domain Paper to a search Document.
func PaperToDocument(p *domain.Paper) *Document {
	return &Document{
		ID:          strconv.FormatInt(p.ID, 10),
		ArxivID:     p.ArxivID,
		Title:       collapseWhitespace(p.Title),
		Abstract:    collapseWhitespace(p.Abstract),
		Authors:     p.Authors,
		Categories:  p.Categories,
		PublishedAt: p.PublishedAt.UnixMilli(),
		UpdatedAt:   p.UpdatedAt.UnixMilli(),
	}
}

// collapseWhitespace flattens the newline-wrapped text arXiv feeds return.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
